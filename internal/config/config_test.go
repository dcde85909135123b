package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sp-uploader.conf")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearAzureEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AZURE_TENANT_ID", "")
	t.Setenv("AZURE_CLIENT_ID", "")
	t.Setenv("AZURE_CLIENT_SECRET", "")
}

func TestLoadValidFile(t *testing.T) {
	clearAzureEnv(t)
	path := writeConfig(t, `
[azure]
tenant_id = tenant-1
client_id = client-1
client_secret = secret-1

[server]
listen_addr = :4040
allowed_origin = https://example.sharepoint.com

[gateway]
region = us-east-1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.Azure.TenantID != "tenant-1" {
		t.Errorf("TenantID = %q, want tenant-1", cfg.Azure.TenantID)
	}
	if cfg.Server.ListenAddr != ":4040" {
		t.Errorf("ListenAddr = %q, want :4040", cfg.Server.ListenAddr)
	}
	if cfg.Server.AllowedOrigin != "https://example.sharepoint.com" {
		t.Errorf("AllowedOrigin = %q", cfg.Server.AllowedOrigin)
	}
	// Defaults survive for sections the file does not set
	if cfg.Gateway.AccessKey != "gateway" {
		t.Errorf("Gateway.AccessKey = %q, want default", cfg.Gateway.AccessKey)
	}
	if cfg.Gateway.Region != "us-east-1" {
		t.Errorf("Gateway.Region = %q, want us-east-1", cfg.Gateway.Region)
	}
	if cfg.Proxy.Mode != "no-proxy" {
		t.Errorf("Proxy.Mode = %q, want no-proxy", cfg.Proxy.Mode)
	}
}

func TestLoadMissingTenant(t *testing.T) {
	clearAzureEnv(t)
	path := writeConfig(t, `
[azure]
client_id = client-1
client_secret = secret-1
`)

	_, err := Load(path)
	if !errors.Is(err, ErrMissingTenantID) {
		t.Fatalf("Load() error = %v, want ErrMissingTenantID", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[azure]
tenant_id = file-tenant
client_id = file-client
client_secret = file-secret
`)
	t.Setenv("AZURE_TENANT_ID", "env-tenant")
	t.Setenv("AZURE_CLIENT_ID", "")
	t.Setenv("AZURE_CLIENT_SECRET", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Azure.TenantID != "env-tenant" {
		t.Errorf("TenantID = %q, want env-tenant", cfg.Azure.TenantID)
	}
	if cfg.Azure.ClientID != "file-client" {
		t.Errorf("ClientID = %q, want file-client", cfg.Azure.ClientID)
	}
}

func TestMissingFileWithEnv(t *testing.T) {
	t.Setenv("AZURE_TENANT_ID", "t")
	t.Setenv("AZURE_CLIENT_ID", "c")
	t.Setenv("AZURE_CLIENT_SECRET", "s")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.conf"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for env-only config", err)
	}
	if cfg.Server.ListenAddr != ":3030" {
		t.Errorf("ListenAddr = %q, want default :3030", cfg.Server.ListenAddr)
	}
}

func TestInvalidProxyMode(t *testing.T) {
	clearAzureEnv(t)
	path := writeConfig(t, `
[azure]
tenant_id = t
client_id = c
client_secret = s

[proxy]
mode = socks5
`)

	_, err := Load(path)
	if !errors.Is(err, ErrInvalidProxyMode) {
		t.Fatalf("Load() error = %v, want ErrInvalidProxyMode", err)
	}
}
