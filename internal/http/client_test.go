package http

import (
	nethttp "net/http"
	"testing"

	"github.com/penwern/curate-sharepoint-uploader/internal/config"
)

func TestConfigureHTTPClientNoProxy(t *testing.T) {
	cfg := config.Default()

	client, err := ConfigureHTTPClient(cfg)
	if err != nil {
		t.Fatalf("ConfigureHTTPClient() error = %v", err)
	}
	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		t.Fatal("expected *http.Transport for no-proxy mode")
	}
	if tr.Proxy != nil {
		t.Error("no-proxy mode should not set a proxy func")
	}
}

func TestConfigureHTTPClientRejectsUnknownMode(t *testing.T) {
	cfg := config.Default()
	cfg.Proxy.Mode = "socks5"

	if _, err := ConfigureHTTPClient(cfg); err == nil {
		t.Fatal("ConfigureHTTPClient() should reject unknown proxy mode")
	}
}

func TestCreateTransferClientClearsTimeout(t *testing.T) {
	cfg := config.Default()

	client, err := CreateTransferClient(cfg)
	if err != nil {
		t.Fatalf("CreateTransferClient() error = %v", err)
	}
	if client.Timeout != 0 {
		t.Errorf("transfer client timeout = %v, want 0", client.Timeout)
	}
	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		t.Fatal("expected *http.Transport")
	}
	if !tr.DisableCompression {
		t.Error("transfer client should disable compression")
	}
}

func TestNTLMModeWrapsTransport(t *testing.T) {
	cfg := config.Default()
	cfg.Proxy.Mode = "ntlm"
	cfg.Proxy.Host = "proxy.internal"
	cfg.Proxy.Port = 8080

	client, err := ConfigureHTTPClient(cfg)
	if err != nil {
		t.Fatalf("ConfigureHTTPClient() error = %v", err)
	}
	if _, ok := client.Transport.(*nethttp.Transport); ok {
		t.Error("ntlm mode should wrap the transport in a negotiator")
	}
}
