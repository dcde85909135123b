// Package config provides configuration management for the transfer service.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"

	"github.com/penwern/curate-sharepoint-uploader/internal/constants"
)

// Config is the process-wide service configuration.
//
// Config file location: ~/.config/curate/sp-uploader.conf (override with
// the --config flag).
//
// INI format:
//
//	[azure]
//	tenant_id = <tenant>
//	client_id = <app registration id>
//	client_secret = <app registration secret>
//
//	[server]
//	listen_addr = :3030
//	allowed_origin = https://example.sharepoint.com
//
//	[gateway]
//	access_key = gateway
//	secret_key = gatewaysecret
//	region = eu-west-1
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 0
//	user =
//	password =
//	no_proxy =
//
// Azure credentials may also come from the environment (AZURE_TENANT_ID,
// AZURE_CLIENT_ID, AZURE_CLIENT_SECRET); environment values win over the
// file so deployments can keep secrets out of it.
type Config struct {
	Azure   AzureConfig
	Server  ServerConfig
	Gateway GatewayConfig
	Proxy   ProxyConfig

	// GraphBaseURL is the Microsoft Graph endpoint. Not read from the
	// config file; tests point it at local fakes.
	GraphBaseURL string
}

// AzureConfig holds the Azure AD app registration used for Graph access.
type AzureConfig struct {
	TenantID     string `ini:"tenant_id"`
	ClientID     string `ini:"client_id"`
	ClientSecret string `ini:"client_secret"`
}

// ServerConfig holds accepting-layer settings.
type ServerConfig struct {
	// ListenAddr is the HTTP listen address, e.g. ":3030".
	ListenAddr string `ini:"listen_addr"`

	// AllowedOrigin is the SharePoint origin permitted by CORS.
	AllowedOrigin string `ini:"allowed_origin"`
}

// GatewayConfig holds the fixed Curate S3 gateway signing credentials used
// for presigned URL issuance and the buffered direct-upload path.
type GatewayConfig struct {
	AccessKey string `ini:"access_key"`
	SecretKey string `ini:"secret_key"`
	Region    string `ini:"region"`
}

// ProxyConfig holds outbound proxy settings.
type ProxyConfig struct {
	// Mode is one of: no-proxy (default), system, basic, ntlm.
	Mode     string `ini:"mode"`
	Host     string `ini:"host"`
	Port     int    `ini:"port"`
	User     string `ini:"user"`
	Password string `ini:"password"`
	// NoProxy is a comma-separated bypass list (hosts or CIDRs).
	NoProxy string `ini:"no_proxy"`
}

// Validation errors
var (
	ErrMissingTenantID     = errors.New("azure tenant_id is required")
	ErrMissingClientID     = errors.New("azure client_id is required")
	ErrMissingClientSecret = errors.New("azure client_secret is required")
	ErrMissingListenAddr   = errors.New("server listen_addr is required")
	ErrInvalidProxyMode    = errors.New("proxy mode must be one of: no-proxy, system, basic, ntlm")
)

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sp-uploader.conf"
	}
	return filepath.Join(home, ".config", "curate", "sp-uploader.conf")
}

// Default returns a config populated with defaults only.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":3030",
		},
		Gateway: GatewayConfig{
			AccessKey: "gateway",
			SecretKey: "gatewaysecret",
			Region:    "eu-west-1",
		},
		Proxy: ProxyConfig{
			Mode: "no-proxy",
		},
		GraphBaseURL: constants.GraphBaseURL,
	}
}

// Load reads the config file at path, applies environment overrides and
// validates the result. A missing file is not an error if the environment
// supplies the Azure credentials.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		file, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if err := file.Section("azure").MapTo(&cfg.Azure); err != nil {
			return nil, fmt.Errorf("invalid [azure] section: %w", err)
		}
		if err := file.Section("server").MapTo(&cfg.Server); err != nil {
			return nil, fmt.Errorf("invalid [server] section: %w", err)
		}
		if err := file.Section("gateway").MapTo(&cfg.Gateway); err != nil {
			return nil, fmt.Errorf("invalid [gateway] section: %w", err)
		}
		if err := file.Section("proxy").MapTo(&cfg.Proxy); err != nil {
			return nil, fmt.Errorf("invalid [proxy] section: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AZURE_TENANT_ID"); v != "" {
		cfg.Azure.TenantID = v
	}
	if v := os.Getenv("AZURE_CLIENT_ID"); v != "" {
		cfg.Azure.ClientID = v
	}
	if v := os.Getenv("AZURE_CLIENT_SECRET"); v != "" {
		cfg.Azure.ClientSecret = v
	}
}

// Validate checks required fields and enumerations.
func (c *Config) Validate() error {
	if c.Azure.TenantID == "" {
		return ErrMissingTenantID
	}
	if c.Azure.ClientID == "" {
		return ErrMissingClientID
	}
	if c.Azure.ClientSecret == "" {
		return ErrMissingClientSecret
	}
	if c.Server.ListenAddr == "" {
		return ErrMissingListenAddr
	}
	switch c.Proxy.Mode {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return ErrInvalidProxyMode
	}
	return nil
}
