// Package config loads the CLI's defaults from the environment, following
// the koanf defaults-then-env pattern with validator-checked results.
package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables
// with the TOLUOL_ prefix. Command-line flags override these per invocation.
type AppConfig struct {
	// Server is the nameserver queried when none is given on the command line.
	Server string `koanf:"server" validate:"required,host"`

	// Port overrides the transport's default port when non-zero.
	Port int `koanf:"port" validate:"gte=0,lt=65536"`

	// Transport selects how queries reach the server.
	Transport string `koanf:"transport" validate:"required,oneof=udp tcp dot doh-https doh-http"`

	// TimeoutMS bounds one complete exchange, in milliseconds.
	TimeoutMS int `koanf:"timeout_ms" validate:"required,gte=1"`

	// EDNSSize is the advertised EDNS payload size.
	EDNSSize int `koanf:"edns_size" validate:"required,gte=512,lt=65536"`

	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity.
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`
}

// DEFAULT_APP_CONFIG defines the defaults applied before the environment is
// consulted.
var DEFAULT_APP_CONFIG = AppConfig{
	Server:    "1.1.1.1",
	Port:      0,
	Transport: "udp",
	TimeoutMS: 5000,
	EDNSSize:  1232,
	Env:       "prod",
	LogLevel:  "warn",
}

// validHost accepts an IP address or a plausible hostname.
func validHost(fl validator.FieldLevel) bool {
	host := fl.Field().String()
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	if len(host) > 253 || strings.ContainsAny(host, " /?#@") {
		return false
	}
	for _, label := range strings.Split(strings.TrimSuffix(host, "."), ".") {
		if label == "" || len(label) > 63 {
			return false
		}
	}
	return true
}

// envLoader loads environment variables with the prefix "TOLUOL_",
// lowercasing keys and trimming the prefix. Overridable in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "TOLUOL_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "TOLUOL_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation wires the custom "host" validation.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("host", validHost)
}

// Load parses environment variables and returns an AppConfig instance,
// applying defaults and running validation.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidation(validate); err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &cfg, nil
}
