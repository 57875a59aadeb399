// Package config loads ironflow settings from an optional YAML file, a .env
// file and IRONFLOW_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "ironflow.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "IRONFLOW_"

// Config is the full application configuration.
type Config struct {
	LogLevel   string      `yaml:"log_level" mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat  string      `yaml:"log_format" mapstructure:"log_format" validate:"omitempty,oneof=text json"`
	Store      StoreConfig `yaml:"store" mapstructure:"store"`
	HTTP       HTTPConfig  `yaml:"http" mapstructure:"http"`
	MCP        MCPConfig   `yaml:"mcp" mapstructure:"mcp"`
	NodeDirs   []string    `yaml:"node_dirs" mapstructure:"node_dirs" validate:"dive,required"`
	Ontologies []string    `yaml:"ontologies" mapstructure:"ontologies" validate:"dive,required"`
	// EncryptionKey is a hex-encoded AES-256 key sealing stored sessions.
	EncryptionKey string `yaml:"encryption_key" mapstructure:"encryption_key" validate:"omitempty,len=64,hexadecimal"`
	// Redact lists input labels and state keys masked before saving.
	Redact []string `yaml:"redact" mapstructure:"redact"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Kind        string        `yaml:"kind" mapstructure:"kind" validate:"oneof=memory file redis sqlite"`
	Dir         string        `yaml:"dir" mapstructure:"dir" validate:"required_if=Kind file"`
	RedisAddr   string        `yaml:"redis_addr" mapstructure:"redis_addr" validate:"required_if=Kind redis"`
	RedisDB     int           `yaml:"redis_db" mapstructure:"redis_db" validate:"min=0"`
	SQLitePath  string        `yaml:"sqlite_path" mapstructure:"sqlite_path" validate:"required_if=Kind sqlite"`
	TTL         time.Duration `yaml:"ttl" mapstructure:"ttl" validate:"min=0"`
	Codec       string        `yaml:"codec" mapstructure:"codec" validate:"oneof=json msgpack"`
	Compression string        `yaml:"compression" mapstructure:"compression" validate:"omitempty,oneof=none gzip zstd"`
}

// HTTPConfig configures the REST API.
type HTTPConfig struct {
	Port int `yaml:"port" mapstructure:"port" validate:"min=1,max=65535"`
}

// MCPConfig configures the MCP server. Port 0 serves over stdio.
type MCPConfig struct {
	Port int `yaml:"port" mapstructure:"port" validate:"min=0,max=65535"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Store: StoreConfig{
			Kind:  "file",
			Dir:   ".ironflow/sessions",
			Codec: "json",
		},
		HTTP: HTTPConfig{Port: 8080},
	}
}

// envKeys maps environment variables, without EnvPrefix, to config keys.
var envKeys = map[string]string{
	"LOG_LEVEL":         "log_level",
	"LOG_FORMAT":        "log_format",
	"STORE_KIND":        "store.kind",
	"STORE_DIR":         "store.dir",
	"REDIS_ADDR":        "store.redis_addr",
	"REDIS_DB":          "store.redis_db",
	"SQLITE_PATH":       "store.sqlite_path",
	"STORE_TTL":         "store.ttl",
	"STORE_CODEC":       "store.codec",
	"STORE_COMPRESSION": "store.compression",
	"HTTP_PORT":         "http.port",
	"MCP_PORT":          "mcp.port",
	"NODE_DIRS":         "node_dirs",
	"ONTOLOGIES":        "ontologies",
	"ENCRYPTION_KEY":    "encryption_key",
	"REDACT":            "redact",
}

// listKeys are split on commas when read from the environment.
var listKeys = map[string]bool{"node_dirs": true, "ontologies": true, "redact": true}

// Load reads path (or DefaultFile when path is empty and the file exists),
// then .env, then the environment, and validates the result.
func Load(path string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	raw := map[string]any{}
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	applyEnv(raw, os.LookupEnv)

	cfg := Default()
	if err := decode(raw, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(raw map[string]any, lookup func(string) (string, bool)) {
	for env, key := range envKeys {
		v, ok := lookup(EnvPrefix + env)
		if !ok {
			continue
		}
		var val any = v
		if listKeys[key] {
			val = splitList(v)
		}
		set(raw, strings.Split(key, "."), val)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func set(m map[string]any, path []string, v any) {
	if len(path) == 1 {
		m[path[0]] = v
		return
	}
	sub, ok := m[path[0]].(map[string]any)
	if !ok {
		sub = map[string]any{}
		m[path[0]] = sub
	}
	set(sub, path[1:], v)
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	return nil
}

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}()

// Validate checks every field and reports all failures at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fmt.Errorf("%s: %s", strings.TrimPrefix(fe.Namespace(), "Config."), message(fe)))
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "field is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "min":
		return fmt.Sprintf("minimum value is %s", fe.Param())
	case "max":
		return fmt.Sprintf("maximum value is %s", fe.Param())
	case "len":
		return fmt.Sprintf("length must be exactly %s", fe.Param())
	}
	return fmt.Sprintf("validation failed: %s", fe.Tag())
}
