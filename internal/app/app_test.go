package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/convoview/bootstrap"
	"github.com/kbukum/convoview/database"
	"github.com/kbukum/convoview/internal/account"
	"github.com/kbukum/convoview/internal/conversation"
	"github.com/kbukum/convoview/logger"
	"github.com/kbukum/convoview/testutil"
)

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Name != ServiceName || cfg.Version == "" {
		t.Errorf("service = %q %q", cfg.Name, cfg.Version)
	}
	if cfg.Conversations.Store != StoreDatabase || cfg.Conversations.Prefix != conversation.DefaultFilePrefix {
		t.Errorf("conversations = %+v", cfg.Conversations)
	}
	if cfg.Analysis.ClassLabel != conversation.DefaultClassLabel {
		t.Errorf("class label = %q", cfg.Analysis.ClassLabel)
	}
	if cfg.Database.Driver != database.DriverSQLite || cfg.Server.Port != 8000 {
		t.Errorf("database %q port %d", cfg.Database.Driver, cfg.Server.Port)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown store", func(c *Config) { c.Conversations.Store = "redis" }, "conversations.store"},
		{"auth without secret", func(c *Config) { c.Auth.Enabled = true }, "auth"},
		{"auth with secret", func(c *Config) { c.Auth.Enabled = true; c.Auth.JWT.Secret = "s3cret" }, ""},
		{"bad database ignored for file store", func(c *Config) {
			c.Conversations.Store = StoreStorage
			c.Database.Driver = "oracle"
		}, ""},
		{"bad database", func(c *Config) { c.Database.Driver = "oracle" }, "database"},
		{"bad viewer url", func(c *Config) { c.Viewer.BaseURL = "nowhere" }, "viewer"},
		{"negative keep alive", func(c *Config) { c.Events.KeepAlive = -1 }, "events.keep_alive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			tt.mutate(cfg)
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yml")
	yml := `
name: convoview
environment: staging
server:
  port: 9100
conversations:
  store: storage
  prefix: calls
analysis:
  class_label: Scripts2
media:
  url_ttl: 20m
`
	if err := os.WriteFile(file, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STORAGE_BASE_PATH", dir)

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != "staging" || cfg.Server.Port != 9100 {
		t.Errorf("service %q port %d", cfg.Environment, cfg.Server.Port)
	}
	if cfg.Conversations.Store != StoreStorage || cfg.Conversations.Prefix != "calls" {
		t.Errorf("conversations = %+v", cfg.Conversations)
	}
	if cfg.Analysis.ClassLabel != "Scripts2" || cfg.Media.URLTTL.Minutes() != 20 {
		t.Errorf("analysis %q media %s", cfg.Analysis.ClassLabel, cfg.Media.URLTTL)
	}
	if cfg.Storage.BasePath != dir {
		t.Errorf("base path from env = %q", cfg.Storage.BasePath)
	}
}

func quietApp(t *testing.T, cfg *Config, opts Options) *App {
	t.Helper()
	opts.Bootstrap = append(opts.Bootstrap, bootstrap.WithLogger(logger.Nop()))
	a, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestRunTaskWithFileStore(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{}
	cfg.Conversations.Store = StoreStorage
	cfg.Storage.BasePath = dir
	a := quietApp(t, cfg, Options{})

	if a.DB() != nil {
		t.Fatal("file store without auth should not open a database")
	}
	err := a.RunTask(context.Background(), func(ctx context.Context) error {
		return a.Services().Conversations.Create(ctx, &conversation.Conversation{
			FileName: "call.mp3",
			FilePath: "calls/call.mp3",
			FileData: json.RawMessage(`{"splitted":[]}`),
		})
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, conversation.DefaultFilePrefix, "1.json")); err != nil {
		t.Errorf("stored document: %v", err)
	}
}

func TestRunTaskMigratesDatabase(t *testing.T) {
	cfg := &Config{}
	cfg.Database.DSN = filepath.Join(t.TempDir(), "task.db")
	cfg.Database.LogLevel = "silent"
	cfg.Conversations.MigrateOnStart = true
	cfg.Storage.BasePath = t.TempDir()
	cfg.Auth.Password.BcryptCost = 4
	a := quietApp(t, cfg, Options{})

	err := a.RunTask(context.Background(), func(ctx context.Context) error {
		if _, err := a.Services().Accounts.Register(ctx, account.RegisterRequest{
			Username: "alice", Email: "alice@example.com", Password: "password123",
		}); err != nil {
			return err
		}
		v, dirty, err := MigrationVersion(a.DB())
		if err != nil {
			return err
		}
		if v != 2 || dirty {
			t.Errorf("version = %d dirty=%v", v, dirty)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}
}

func TestMountGuardsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &Config{}
	cfg.Auth.Enabled = true
	cfg.Auth.JWT.Secret = "mount-test-secret"
	cfg.Auth.Password.BcryptCost = 4
	cfg.ApplyDefaults()

	db := testutil.Database(t)
	store := testutil.Storage(t, map[string]string{"a.mp3": "abc"})

	in := Infra{DB: db, Storage: store, Log: logger.Nop()}
	svc, err := NewServices(cfg, in)
	if err != nil {
		t.Fatal(err)
	}
	r := gin.New()
	if err := Mount(r, cfg, svc, in); err != nil {
		t.Fatal(err)
	}
	do := func(method, target, body, contentType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(http.MethodGet, "/api/conversations", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list = %d", rec.Code)
	}
	rec := do(http.MethodPost, "/api/auth/register", `{"username":"bob","email":"bob@example.com","password":"password123"}`, "application/json")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register = %d %s", rec.Code, rec.Body.String())
	}
	form := url.Values{"username": {"bob"}, "password": {"password123"}}
	rec = do(http.MethodPost, "/api/auth/login", form.Encode(), "application/x-www-form-urlencoded")
	var env struct {
		Data account.Token `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil || env.Data.AccessToken == "" {
		t.Fatalf("login = %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(http.MethodGet, "/api/conversations?token="+env.Data.AccessToken, "", ""); rec.Code != http.StatusOK {
		t.Errorf("list with query token = %d %s", rec.Code, rec.Body.String())
	}
}

func TestMountRejectsAuthWithoutTokens(t *testing.T) {
	cfg := &Config{}
	cfg.Auth.Enabled = true
	if err := Mount(gin.New(), cfg, &Services{}, Infra{}); err == nil {
		t.Fatal("expected error when auth is enabled without a token service")
	}
}

func TestNewRepositoryRequiresBackend(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if _, err := NewRepository(cfg, nil, nil); err == nil {
		t.Error("database store without a database should fail")
	}
	cfg.Conversations.Store = StoreStorage
	if _, err := NewRepository(cfg, nil, nil); err == nil {
		t.Error("file store without storage should fail")
	}
}
