package pool

import (
	"net"
	"net/http"
	"time"
)

// Config holds balanced pool configuration
type Config struct {
	// Connection pool settings
	MaxIdleConns        int           `yaml:"maxIdleConns"`
	MaxIdleConnsPerHost int           `yaml:"maxIdleConnsPerHost"`
	IdleConnTimeout     time.Duration `yaml:"idleConnTimeout"`

	// Connection settings
	KeepAlive        bool          `yaml:"keepAlive"`
	KeepAliveTimeout time.Duration `yaml:"keepAliveTimeout"`

	// Timeout settings
	DialTimeout           time.Duration `yaml:"dialTimeout"`
	ResponseHeaderTimeout time.Duration `yaml:"responseHeaderTimeout"`
	RequestTimeout        time.Duration `yaml:"requestTimeout"`
}

func (c Config) withDefaults() Config {
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 100
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = 10
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = 90 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.KeepAliveTimeout <= 0 {
		c.KeepAliveTimeout = 30 * time.Second
	}
	return c
}

// NewTransport creates a pooled transport from configuration
func NewTransport(cfg Config) *http.Transport {
	cfg = cfg.withDefaults()
	dialer := &net.Dialer{
		Timeout: cfg.DialTimeout,
	}

	if cfg.KeepAlive {
		dialer.KeepAlive = cfg.KeepAliveTimeout
	} else {
		dialer.KeepAlive = -1 // Disable keep-alive
	}

	return &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       cfg.IdleConnTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ForceAttemptHTTP2:     true,
	}
}
