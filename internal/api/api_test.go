package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/convoview/auth/jwt"
	"github.com/kbukum/convoview/auth/password"
	clientsse "github.com/kbukum/convoview/httpclient/sse"
	"github.com/kbukum/convoview/internal/account"
	"github.com/kbukum/convoview/internal/conversation"
	"github.com/kbukum/convoview/internal/media"
	"github.com/kbukum/convoview/logger"
	"github.com/kbukum/convoview/server/middleware"
	"github.com/kbukum/convoview/sse"
	"github.com/kbukum/convoview/testutil"
)

const sampleDoc = `{"splitted": [
 {"speaker": 0, "text": "Hello, how can I help?", "start": "0:00:00.000", "stop": "0:00:04.000",
  "classifiers": {"smc": {"Скрипты1": {"classes": [{"class": "greeting"}]}}}},
 {"speaker": 1, "text": "My invoice is wrong", "start": "0:00:03.000", "stop": "0:00:06.000", "emotion": "angry"}
]}`

type testEnv struct {
	engine        *gin.Engine
	conversations *conversation.Service
	tokens        *jwt.Service[*jwt.Claims]
	hub           *sse.Hub
}

func newEnv(t *testing.T, withAuth bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.Database(t)
	store := testutil.Storage(t, map[string]string{"calls/1.mp3": "0123456789"})

	hub := sse.NewHub(logger.Nop())
	go hub.Run()
	t.Cleanup(hub.Stop)

	tokens, err := jwt.NewService(jwt.Config{Secret: "api-test-secret-api-test-secret!"}, func() *jwt.Claims { return &jwt.Claims{} })
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		engine:        gin.New(),
		conversations: conversation.NewService(conversation.NewGormRepository(db), hub, nil, nil),
		tokens:        tokens,
		hub:           hub,
	}
	h := New(Deps{
		Conversations: env.conversations,
		Media:         media.NewService(store, media.Config{}, nil),
		Accounts:      account.NewService(db, password.NewBcryptHasher(4, 8), tokens, nil, nil),
		Hub:           hub,
		KeepAlive:     time.Minute,
	})

	var auth gin.HandlerFunc
	if withAuth {
		auth = middleware.Auth(middleware.AuthConfig{Validator: tokens.ValidatorFunc(), QueryParam: "token"})
	}
	h.Register(env.engine, auth)
	return env
}

func (e *testEnv) do(t *testing.T, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return env
}

func (e *testEnv) create(t *testing.T, doc string) uint {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/conversations?fname=call.mp3&fpath=calls/1.mp3", doc, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	var out struct{ ID uint }
	_ = json.Unmarshal(decode(t, rec).Data, &out)
	return out.ID
}

func TestConversationRoutes(t *testing.T) {
	env := newEnv(t, false)
	id := env.create(t, sampleDoc)
	if id != 1 {
		t.Fatalf("id = %d", id)
	}

	rec := env.do(t, http.MethodGet, "/api/conversations", "", nil)
	body := decode(t, rec)
	var list []conversation.Conversation
	_ = json.Unmarshal(body.Data, &list)
	if rec.Code != http.StatusOK || len(list) != 1 || body.Meta["total"] != float64(1) {
		t.Fatalf("list = %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/conversations/1", "", nil)
	var conv conversation.Conversation
	_ = json.Unmarshal(decode(t, rec).Data, &conv)
	if rec.Code != http.StatusOK || conv.FileName != "call.mp3" || !conv.HasData() {
		t.Fatalf("get = %d %s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		target string
		status int
		msg    string
	}{
		{"/api/conversations/99", http.StatusNotFound, "conversation not found"},
		{"/api/conversations/0", http.StatusBadRequest, ""},
		{"/api/conversations/abc", http.StatusBadRequest, ""},
		{"/api/conversations?page=x", http.StatusBadRequest, ""},
		{"/api/conversations?page_size=501", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		rec := env.do(t, http.MethodGet, tt.target, "", nil)
		if rec.Code != tt.status {
			t.Errorf("GET %s = %d, want %d", tt.target, rec.Code, tt.status)
		}
		if tt.msg != "" && decode(t, rec).Error.Message != tt.msg {
			t.Errorf("GET %s message = %q", tt.target, decode(t, rec).Error.Message)
		}
	}
}

func TestCreateRejects(t *testing.T) {
	env := newEnv(t, false)
	tests := []struct {
		name   string
		target string
		body   string
		code   string
	}{
		{"array body", "/api/conversations?fname=a&fpath=b", `[1,2]`, "INVALID_INPUT"},
		{"empty body", "/api/conversations?fname=a&fpath=b", ``, "INVALID_INPUT"},
		{"broken json", "/api/conversations?fname=a&fpath=b", `{"x":`, "INVALID_INPUT"},
		{"missing fname", "/api/conversations?fpath=b", `{}`, "VALIDATION_FAILED"},
		{"long fname", "/api/conversations?fpath=b&fname=" + strings.Repeat("n", 65), `{}`, "VALIDATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.target, tt.body, nil)
			if rec.Code != http.StatusBadRequest || decode(t, rec).Error.Code != tt.code {
				t.Errorf("= %d %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestStatsRoute(t *testing.T) {
	env := newEnv(t, false)
	env.create(t, sampleDoc)

	rec := env.do(t, http.MethodGet, "/api/analyze/stats/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats = %d %s", rec.Code, rec.Body.String())
	}
	var s struct {
		TotalDuration  string `json:"totalDuration"`
		SpeakerCount   int    `json:"speakerCount"`
		TopClass       string `json:"topClass"`
		OverlapDetails struct {
			Count int `json:"count"`
		} `json:"overlapDetails"`
	}
	_ = json.Unmarshal(decode(t, rec).Data, &s)
	if s.TotalDuration != "00:00:07" || s.SpeakerCount != 2 || s.TopClass != "greeting" || s.OverlapDetails.Count != 1 {
		t.Errorf("stats = %+v", s)
	}

	// A conversation stored without file_data has no stats.
	empty := &conversation.Conversation{FileName: "e", FilePath: "e.mp3"}
	if err := env.conversations.Create(context.Background(), empty); err != nil {
		t.Fatal(err)
	}
	rec = env.do(t, http.MethodGet, "/api/analyze/stats/2", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("stats without data = %d", rec.Code)
	}
	// An empty object is no data either.
	env.create(t, `{}`)
	if rec = env.do(t, http.MethodGet, "/api/analyze/stats/3", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("stats of {} = %d %s", rec.Code, rec.Body.String())
	}
	if rec = env.do(t, http.MethodGet, "/api/analyze/stats/77", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("stats of missing = %d", rec.Code)
	}
}

func TestFragmentsRoute(t *testing.T) {
	env := newEnv(t, false)
	env.create(t, sampleDoc)

	tests := []struct {
		query string
		want  []int
	}{
		{"", []int{0, 1}},
		{"?q=INVOICE", []int{1}},
		{"?speaker=0", []int{0}},
		{"?class=greeting", []int{0}},
		{"?emotion=angry&speaker=1", []int{1}},
		{"?emotion=calm", []int{}},
	}
	for _, tt := range tests {
		rec := env.do(t, http.MethodGet, "/api/conversations/1/fragments"+tt.query, "", nil)
		var resp FragmentsResponse
		_ = json.Unmarshal(decode(t, rec).Data, &resp)
		if rec.Code != http.StatusOK || len(resp.Items) != len(tt.want) || resp.Total != 2 {
			t.Errorf("fragments%s = %d %s", tt.query, rec.Code, rec.Body.String())
			continue
		}
		for i, idx := range tt.want {
			if resp.Items[i].Index != idx {
				t.Errorf("fragments%s item %d = %d", tt.query, i, resp.Items[i].Index)
			}
		}
		if len(resp.Classes) != 1 || len(resp.Emotions) != 1 || len(resp.Speakers) != 2 {
			t.Errorf("choices = %+v", resp)
		}
	}

	if rec := env.do(t, http.MethodGet, "/api/conversations/1/fragments?speaker=x", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad speaker = %d", rec.Code)
	}
}

func TestRegionsRoute(t *testing.T) {
	env := newEnv(t, false)
	env.create(t, sampleDoc)

	rec := env.do(t, http.MethodGet, "/api/conversations/1/regions?mode=overlap", "", nil)
	var resp RegionsResponse
	_ = json.Unmarshal(decode(t, rec).Data, &resp)
	if rec.Code != http.StatusOK || resp.Mode != "overlap" || len(resp.Regions) != 1 || resp.Duration != 6 {
		t.Fatalf("regions = %d %s", rec.Code, rec.Body.String())
	}
	if r := resp.Regions[0]; r.Start != 3 || r.End != 4 {
		t.Errorf("overlap region = %+v", r)
	}

	rec = env.do(t, http.MethodGet, "/api/conversations/1/regions", "", nil)
	_ = json.Unmarshal(decode(t, rec).Data, &resp)
	if resp.Mode != "speaker" || len(resp.Regions) != 2 {
		t.Errorf("default mode = %+v", resp)
	}

	if rec := env.do(t, http.MethodGet, "/api/conversations/1/regions?mode=rainbow", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad mode = %d", rec.Code)
	}
}

func TestAudioRoutes(t *testing.T) {
	env := newEnv(t, false)
	env.create(t, sampleDoc)

	rec := env.do(t, http.MethodGet, "/api/conversations/1/audio", "", http.Header{"Range": {"bytes=2-4"}})
	if rec.Code != http.StatusPartialContent || rec.Body.String() != "234" {
		t.Errorf("range = %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("Content-Type = %q", ct)
	}

	rec = env.do(t, http.MethodGet, "/api/conversations/1/audio/url", "", nil)
	var link media.Link
	_ = json.Unmarshal(decode(t, rec).Data, &link)
	if rec.Code != http.StatusOK || link.Signed || link.URL != "/api/conversations/1/audio" {
		t.Errorf("audio url = %d %s", rec.Code, rec.Body.String())
	}

	missing := &conversation.Conversation{FileName: "m", FilePath: "calls/missing.mp3"}
	if err := env.conversations.Create(context.Background(), missing); err != nil {
		t.Fatal(err)
	}
	if rec := env.do(t, http.MethodGet, "/api/conversations/2/audio", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing audio = %d", rec.Code)
	}
}

func TestAuthFlow(t *testing.T) {
	env := newEnv(t, true)

	rec := env.do(t, http.MethodGet, "/api/conversations", "", nil)
	if rec.Code != http.StatusUnauthorized || rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("unauthenticated = %d", rec.Code)
	}

	jsonHeader := http.Header{"Content-Type": {"application/json"}}
	reg := `{"username":"erin","email":"erin@example.com","password":"password1"}`
	rec = env.do(t, http.MethodPost, "/api/auth/register", reg, jsonHeader)
	var regResp struct {
		Message string
		User    struct{ Username string }
	}
	_ = json.Unmarshal(decode(t, rec).Data, &regResp)
	if rec.Code != http.StatusCreated || regResp.Message != "User registered successfully" || regResp.User.Username != "erin" {
		t.Fatalf("register = %d %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "hashed_password") || strings.Contains(rec.Body.String(), "$2a$") {
		t.Error("password hash leaked")
	}
	if rec = env.do(t, http.MethodPost, "/api/auth/register", reg, jsonHeader); rec.Code != http.StatusConflict {
		t.Errorf("duplicate register = %d", rec.Code)
	}

	formHeader := http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}
	bad := url.Values{"username": {"erin"}, "password": {"nope-nope"}}.Encode()
	rec = env.do(t, http.MethodPost, "/api/auth/login", bad, formHeader)
	if rec.Code != http.StatusUnauthorized || rec.Header().Get("WWW-Authenticate") != "Bearer" ||
		decode(t, rec).Error.Message != "Incorrect username or password" {
		t.Fatalf("bad login = %d %s", rec.Code, rec.Body.String())
	}

	good := url.Values{"username": {"erin"}, "password": {"password1"}}.Encode()
	rec = env.do(t, http.MethodPost, "/api/auth/login", good, formHeader)
	var tok account.Token
	_ = json.Unmarshal(decode(t, rec).Data, &tok)
	if rec.Code != http.StatusOK || tok.TokenType != "bearer" || tok.AccessToken == "" {
		t.Fatalf("login = %d %s", rec.Code, rec.Body.String())
	}

	bearer := http.Header{"Authorization": {"Bearer " + tok.AccessToken}}
	rec = env.do(t, http.MethodGet, "/api/auth/me", "", bearer)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"erin"`) {
		t.Errorf("me = %d %s", rec.Code, rec.Body.String())
	}
	if rec = env.do(t, http.MethodGet, "/api/conversations", "", bearer); rec.Code != http.StatusOK {
		t.Errorf("authorized list = %d", rec.Code)
	}
	if rec = env.do(t, http.MethodGet, "/api/conversations?token="+tok.AccessToken, "", nil); rec.Code != http.StatusOK {
		t.Errorf("query token = %d", rec.Code)
	}
	if rec = env.do(t, http.MethodGet, "/api/conversations", "", http.Header{"Authorization": {"Bearer junk"}}); rec.Code != http.StatusUnauthorized {
		t.Errorf("junk token = %d", rec.Code)
	}
}

func TestEventsStream(t *testing.T) {
	env := newEnv(t, false)
	srv := httptest.NewServer(env.engine)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	events := clientsse.NewReader(resp.Body)
	defer events.Close()

	first, err := events.Next()
	if err != nil || first.Event != sse.EventConnected {
		t.Fatalf("first event = %+v, %v", first, err)
	}

	env.create(t, sampleDoc)

	ev, err := events.Next()
	if err != nil || ev.Event != conversation.EventCreated {
		t.Fatalf("event = %+v, %v", ev, err)
	}
	var payload conversation.CreatedEvent
	if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil || payload.ID != 1 || payload.FileName != "call.mp3" {
		t.Errorf("payload = %s", ev.Data)
	}
}
