package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Config represents TLS configuration for backend connections
type Config struct {
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
	ServerName         string `yaml:"serverName"`
	ClientCertFile     string `yaml:"clientCertFile"`
	ClientKeyFile      string `yaml:"clientKeyFile"`
	RootCAFile         string `yaml:"rootCAFile"`
	MinVersion         string `yaml:"minVersion"`
	MaxVersion         string `yaml:"maxVersion"`
}

// NewClientConfig builds a *tls.Config for dialing backends from cfg. A nil
// cfg yields secure defaults (TLS 1.2 minimum, system roots).
func NewClientConfig(cfg *Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS13,
	}

	if cfg == nil {
		return tlsConfig, nil
	}

	tlsConfig.InsecureSkipVerify = cfg.InsecureSkipVerify

	if cfg.MinVersion != "" {
		if v := ParseTLSVersion(cfg.MinVersion); v != 0 {
			tlsConfig.MinVersion = v
		}
	}

	if cfg.MaxVersion != "" {
		if v := ParseTLSVersion(cfg.MaxVersion); v != 0 {
			tlsConfig.MaxVersion = v
		}
	}

	// Server name for SNI
	if cfg.ServerName != "" {
		tlsConfig.ServerName = cfg.ServerName
	}

	// Load CA certificate if provided
	if cfg.RootCAFile != "" {
		caCertPEM, err := os.ReadFile(cfg.RootCAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if ok := caCertPool.AppendCertsFromPEM(caCertPEM); !ok {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = caCertPool
	}

	// Load client certificate for mutual TLS
	if cfg.ClientCertFile != "" && cfg.ClientKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertFile, cfg.ClientKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}
