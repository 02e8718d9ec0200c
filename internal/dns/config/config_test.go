package config

import (
	"testing"

	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "1.1.1.1", cfg.Server)
	assert.Equal(t, "udp", cfg.Transport)
	assert.Equal(t, 5000, cfg.TimeoutMS)
	assert.Equal(t, 1232, cfg.EDNSSize)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TOLUOL_SERVER", "9.9.9.9")
	t.Setenv("TOLUOL_TRANSPORT", "dot")
	t.Setenv("TOLUOL_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9.9.9.9", cfg.Server)
	assert.Equal(t, "dot", cfg.Transport)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidTransport(t *testing.T) {
	t.Setenv("TOLUOL_TRANSPORT", "carrier-pigeon")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidServer(t *testing.T) {
	t.Setenv("TOLUOL_SERVER", "not a host")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidEDNSSize(t *testing.T) {
	t.Setenv("TOLUOL_EDNS_SIZE", "100")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_EnvLoaderFailure(t *testing.T) {
	orig := envLoader
	defer func() { envLoader = orig }()
	envLoader = func(k *koanf.Koanf) error {
		return assert.AnError
	}
	_, err := Load()
	assert.ErrorIs(t, err, assert.AnError)
}

func TestValidHostAcceptsNames(t *testing.T) {
	tests := []struct {
		host  string
		valid bool
	}{
		{"1.1.1.1", true},
		{"2606:4700:4700::1111", true},
		{"dns.google", true},
		{"dns.google.", true},
		{"", false},
		{"has space.example", false},
		{"a..b", false},
	}
	for _, tt := range tests {
		t.Setenv("TOLUOL_SERVER", tt.host)
		_, err := Load()
		if tt.valid {
			assert.NoError(t, err, "host %q", tt.host)
		} else {
			assert.Error(t, err, "host %q", tt.host)
		}
	}
}
