package security

import (
	"crypto/tls"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// writeCA stores the test server's certificate as a PEM bundle.
func writeCA(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ca.pem")
	block := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := os.WriteFile(path, block, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildDisabled(t *testing.T) {
	var nilCfg *TLSConfig
	for _, cfg := range []*TLSConfig{nilCfg, {}} {
		got, err := cfg.Build()
		if err != nil || got != nil {
			t.Errorf("Build() = %v, %v; want nil, nil", got, err)
		}
	}
}

func TestBuildTrustsCAFile(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	cfg := &TLSConfig{CAFile: writeCA(t, srv)}
	tlsCfg, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tlsCfg.MinVersion != tls.VersionTLS12 || tlsCfg.RootCAs == nil {
		t.Errorf("config = %+v", tlsCfg)
	}

	client := &http.Client{Transport: &http.Transport{TLSClientConfig: tlsCfg}}
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET with trusted CA: %v", err)
	}
	resp.Body.Close()

	if _, err := http.Get(srv.URL); err == nil {
		t.Error("GET with system roots should fail against a test certificate")
	}
}

func TestBuildErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not a cert"), 0o600); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		cfg  TLSConfig
	}{
		{"missing ca", TLSConfig{CAFile: filepath.Join(dir, "none.pem")}},
		{"unparsable ca", TLSConfig{CAFile: garbage}},
		{"cert without key", TLSConfig{CertFile: garbage}},
		{"unloadable pair", TLSConfig{CertFile: garbage, KeyFile: garbage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.Build(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
