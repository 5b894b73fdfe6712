// Package config loads the daemon configuration: defaults, an optional yaml
// file, and FLEETMAN_* environment overrides, in that order of precedence
// (flags on top are applied by the daemon entry point).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultHTTPPort is the default API listen port.
var DefaultHTTPPort = 8080

type Server struct {
	HTTPAddr string `yaml:"http_address" mapstructure:"http_address"`

	// AccessCode guards the API; empty leaves it open.
	AccessCode string `yaml:"access_code" mapstructure:"access_code"`
}

type Client struct {
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type GitHub struct {
	// Token raises the source host's rate limits; optional.
	Token string `yaml:"token" mapstructure:"token"`
}

type Scheduler struct {
	// CronSpec is how often the orchestrator pass fires; the policy's own
	// interval gates the actual work.
	CronSpec string `yaml:"cron_spec" mapstructure:"cron_spec"`
}

type Log struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type Config struct {
	Server    Server    `yaml:"server" mapstructure:"server"`
	DataDir   string    `yaml:"data_dir" mapstructure:"data_dir"`
	Client    Client    `yaml:"client" mapstructure:"client"`
	GitHub    GitHub    `yaml:"github" mapstructure:"github"`
	Scheduler Scheduler `yaml:"scheduler" mapstructure:"scheduler"`
	Log       Log       `yaml:"log" mapstructure:"log"`

	// TemplateFile optionally replaces the built-in template set.
	TemplateFile string `yaml:"template_file" mapstructure:"template_file"`
}

func Default() *Config {
	return &Config{
		Server:    Server{HTTPAddr: fmt.Sprintf(":%d", DefaultHTTPPort)},
		DataDir:   defaultDataDir(),
		Client:    Client{Timeout: 30 * time.Second},
		Scheduler: Scheduler{CronSpec: "@every 1m"},
		Log:       Log{Level: "info", Format: "text"},
	}
}

func defaultDataDir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		return "./data"
	}
	if st, err := os.Stat("/var/lib"); err == nil && st.IsDir() {
		return "/var/lib/fleetman"
	}
	return filepath.Join(home, ".fleetman")
}

// Load reads the config file at path (or the default search locations when
// path is empty) over the defaults, then applies FLEETMAN_* env overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fleetman")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")              // Local development override
		v.AddConfigPath("/etc/fleetman/") // System-wide production config
	}

	v.SetEnvPrefix("FLEETMAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	if err := v.ReadInConfig(); err == nil {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if path != "" {
		// An explicitly named file must exist.
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg, v)
	return cfg, nil
}

// applyEnvOverrides maps the flat FLEETMAN_* variables onto nested fields.
// AutomaticEnv only covers keys viper already knows about, so the common ones
// are bound explicitly.
func applyEnvOverrides(cfg *Config, v *viper.Viper) {
	if addr := v.GetString("http_addr"); addr != "" {
		cfg.Server.HTTPAddr = addr
	}
	if code := v.GetString("access_code"); code != "" {
		cfg.Server.AccessCode = code
	}
	if token := v.GetString("github_token"); token != "" {
		cfg.GitHub.Token = token
	}
	if dir := v.GetString("data_dir"); dir != "" {
		cfg.DataDir = dir
	}
	if level := v.GetString("log_level"); level != "" {
		cfg.Log.Level = level
	}
}
