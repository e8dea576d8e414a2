// internal/config/loader_test.go
//
// Loader overlay and secret-resolution tests using a throwaway root.
//
// Run: go test ./internal/config -v

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const baseYAML = `
http:
  listen_addr: ":8080"
database:
  global_dsn: "press:%s@tcp(127.0.0.1:3306)/pressroom?parseTime=true"
  global_password: "plain"
provider:
  site_id: "site-1"
  token: "tok"
endpoint:
  origin: "https://example.com"
`

func writeRoot(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PRESSROOM_ROOT", root)
	return root
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	writeRoot(t, baseYAML)
	t.Setenv("PRESSROOM_HTTP__LISTEN_ADDR", ":9090")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":9090" {
		t.Fatalf("listen_addr = %q, want env override", cfg.HTTP.ListenAddr)
	}
	if cfg.Provider.SiteID != "site-1" {
		t.Fatalf("site_id = %q", cfg.Provider.SiteID)
	}
	if Get() != cfg {
		t.Fatal("Get() did not return the cached config")
	}
}

func TestLoad_ResolvesVaultValues(t *testing.T) {
	writeRoot(t, baseYAML)
	t.Setenv("PRESSROOM_PROVIDER__TOKEN", "vault:secret/pressroom#provider_token")

	SetSecretSource(func(_ context.Context, uri string) (string, error) {
		if uri != "vault:secret/pressroom#provider_token" {
			t.Fatalf("unexpected uri %q", uri)
		}
		return "s3cret", nil
	})
	defer SetSecretSource(nil)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.Token != "s3cret" {
		t.Fatalf("token = %q, want resolved secret", cfg.Provider.Token)
	}
}

func TestLoad_MissingRequiredFieldFails(t *testing.T) {
	writeRoot(t, `
http:
  listen_addr: ":8080"
database:
  global_dsn: "dsn"
  global_password: "pw"
endpoint:
  origin: "https://example.com"
`)
	if _, err := Load(context.Background()); err == nil {
		t.Fatal("want validation error for missing provider block")
	}
}
