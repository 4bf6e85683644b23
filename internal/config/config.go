package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultBlueprintName and DefaultURLPrefix describe the mount used when the
// configuration lists no blueprints.
const (
	DefaultBlueprintName = "orders"
	DefaultURLPrefix     = "/app"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig      `koanf:"server"`
	Blueprints []BlueprintConfig `koanf:"blueprints" validate:"dive"`
	Log        LogConfig         `koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host          string              `koanf:"host" validate:"required"`
	Port          int                 `koanf:"port" validate:"min=1,max=65535"`
	Mode          string              `koanf:"mode" validate:"oneof=debug release test"`
	CORS          CORSConfig          `koanf:"cors"`
	SecureHeaders SecureHeadersConfig `koanf:"secure_headers"`

	// TrustRequestID keeps a UUID X-Request-ID sent by a fronting proxy
	// instead of generating one.
	TrustRequestID bool `koanf:"trust_request_id"`
}

// CORSConfig holds CORS middleware settings.
type CORSConfig struct {
	AllowOrigins []string `koanf:"allow_origins"`
}

// SecureHeadersConfig holds the optional security-header middleware settings.
// It is disabled unless explicitly enabled.
type SecureHeadersConfig struct {
	Enabled            bool   `koanf:"enabled"`
	FrameDeny          bool   `koanf:"frame_deny"`
	ContentTypeNosniff bool   `koanf:"content_type_nosniff"`
	ReferrerPolicy     string `koanf:"referrer_policy"`
}

// BlueprintConfig mounts a named route group under a URL prefix.
type BlueprintConfig struct {
	Name      string `koanf:"name" validate:"required"`
	URLPrefix string `koanf:"url_prefix" validate:"required,startswith=/"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level" validate:"oneof=debug info warn error"`
	Format          string `koanf:"format" validate:"oneof=text json"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb" validate:"gte=0"`
	RetentionDays   int    `koanf:"retention_days" validate:"gte=0"`
	MaxBackups      int    `koanf:"max_backups" validate:"gte=0"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from a YAML file and overlays environment variables.
// Environment variables use the prefix "APP__" and double-underscore as the
// hierarchy separator. Single underscores are preserved as part of the key name.
// For example, APP__SERVER__PORT=9090 overrides server.port and
// APP__SERVER__SECURE_HEADERS__ENABLED=true overrides server.secure_headers.enabled.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	if err := k.Load(env.Provider("APP__", ".", func(s string) string {
		key := strings.TrimPrefix(s, "APP__")
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, "__", ".")
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate normalizes string fields, applies defaults and checks supported
// values. Struct-tag rules are enforced by validator; prefix uniqueness is
// checked here because it depends on normalization.
func (c *Config) Validate() error {
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	c.Server.Mode = strings.TrimSpace(c.Server.Mode)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Server.SecureHeaders.ReferrerPolicy = strings.TrimSpace(c.Server.SecureHeaders.ReferrerPolicy)

	if len(c.Blueprints) == 0 {
		c.Blueprints = []BlueprintConfig{{Name: DefaultBlueprintName, URLPrefix: DefaultURLPrefix}}
	}
	for i := range c.Blueprints {
		c.Blueprints[i].Name = strings.TrimSpace(c.Blueprints[i].Name)
		c.Blueprints[i].URLPrefix = strings.TrimSpace(c.Blueprints[i].URLPrefix)
	}

	if err := validate.Struct(c); err != nil {
		return describeValidationError(err)
	}

	seen := make(map[string]int, len(c.Blueprints))
	for i, bp := range c.Blueprints {
		prefix := NormalizePrefix(bp.URLPrefix)
		if prev, ok := seen[prefix]; ok {
			return fmt.Errorf("blueprints[%d] url_prefix %q collides with blueprints[%d]", i, bp.URLPrefix, prev)
		}
		seen[prefix] = i
		c.Blueprints[i].URLPrefix = prefix
	}

	return nil
}

// NormalizePrefix trims surrounding whitespace and trailing slashes so that
// "/app" and "/app/" name the same route group. The root prefix normalizes to "/".
func NormalizePrefix(prefix string) string {
	p := strings.TrimRight(strings.TrimSpace(prefix), "/")
	if p == "" {
		return "/"
	}
	return p
}

// describeValidationError converts validator errors into a single error that
// names the offending config key.
func describeValidationError(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validate config: %w", err)
	}

	fe := ve[0]
	key := configKey(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", key)
	case "oneof":
		return fmt.Errorf("invalid %s %q: must be one of %s", key, fmt.Sprint(fe.Value()), strings.Join(strings.Fields(fe.Param()), ", "))
	case "min", "max":
		if strings.HasSuffix(key, "port") {
			return fmt.Errorf("invalid %s %v: must be between 1 and 65535", key, fe.Value())
		}
		return fmt.Errorf("invalid %s %v: %s=%s", key, fe.Value(), fe.Tag(), fe.Param())
	case "startswith":
		return fmt.Errorf("invalid %s %q: must start with %q", key, fmt.Sprint(fe.Value()), fe.Param())
	default:
		return fmt.Errorf("invalid %s %v: %s", key, fe.Value(), fe.Tag())
	}
}

var namespaceKeys = map[string]string{
	"Server":         "server",
	"Host":           "host",
	"Port":           "port",
	"Mode":           "mode",
	"Blueprints":     "blueprints",
	"Name":           "name",
	"URLPrefix":      "url_prefix",
	"Log":            "log",
	"Level":          "level",
	"Format":         "format",
	"MaxSizeMB":      "max_size_mb",
	"RetentionDays":  "retention_days",
	"MaxBackups":     "max_backups",
	"SecureHeaders":  "secure_headers",
	"ReferrerPolicy": "referrer_policy",
}

// configKey maps a validator namespace such as "Config.Server.Port" to the
// YAML key "server.port".
func configKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 0 && parts[0] == "Config" {
		parts = parts[1:]
	}
	for i, p := range parts {
		name, index, _ := strings.Cut(p, "[")
		if mapped, ok := namespaceKeys[name]; ok {
			name = mapped
		}
		if index != "" {
			name += "[" + index
		}
		parts[i] = name
	}
	return strings.Join(parts, ".")
}

// IsDebug reports whether the server runs in gin debug mode.
func (c *ServerConfig) IsDebug() bool {
	return c.Mode == gin.DebugMode
}
