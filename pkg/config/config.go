// Package config loads tabherd configuration.
//
// Precedence, highest to lowest: environment variables (TABHERD_*),
// the YAML config file, hardcoded defaults. A missing config file is
// not an error; everything has a usable default, and an empty NATS URL
// simply leaves the messaging capability unconfigured.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Config is the full tabherd configuration tree.
type Config struct {
	NATS     NATSConfig     `koanf:"nats"`
	Resolver ResolverConfig `koanf:"resolver"`
	Sort     SortConfig     `koanf:"sort"`
	Badge    BadgeConfig    `koanf:"badge"`
	Journal  JournalConfig  `koanf:"journal"`
	Host     HostConfig     `koanf:"host"`
}

// NATSConfig addresses the messaging channel. An empty URL disables
// messaging entirely: no host bridge, no date endpoint, no badge
// publishing.
type NATSConfig struct {
	URL  string `koanf:"url"`
	Name string `koanf:"name"`
}

// ResolverConfig tunes the date resolver.
type ResolverConfig struct {
	ReadyTimeout   time.Duration `koanf:"ready_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// Subject overrides platform endpoint detection when set.
	Subject string `koanf:"subject"`
}

// SortConfig tunes the comparators.
type SortConfig struct {
	// Locale is a BCP 47 tag for URL collation.
	Locale string `koanf:"locale"`
}

// BadgeConfig tunes the status indicator.
type BadgeConfig struct {
	Subject    string        `koanf:"subject"`
	ClearAfter time.Duration `koanf:"clear_after"`
}

// JournalConfig locates the operation journal. An empty path falls
// back to the default directory next to the working directory.
type JournalConfig struct {
	Path string `koanf:"path"`
}

// HostConfig addresses the browser-side endpoint.
type HostConfig struct {
	SubjectPrefix  string        `koanf:"subject_prefix"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// defaultYAML carries every default in the same shape as the user's
// config file, so the file and env overlays merge cleanly on top.
const defaultYAML = `
nats:
  url: ""
  name: tabherd
resolver:
  ready_timeout: 15s
  request_timeout: 10s
  subject: ""
sort:
  locale: ""
badge:
  subject: tabherd.badge
  clear_after: 1s
journal:
  path: ""
host:
  subject_prefix: tabherd.host
  request_timeout: 5s
`

// envKeys maps recognized environment variables to config keys.
// Unlisted TABHERD_* variables are ignored rather than guessed at.
var envKeys = map[string]string{
	"TABHERD_NATS_URL":                 "nats.url",
	"TABHERD_NATS_NAME":                "nats.name",
	"TABHERD_RESOLVER_READY_TIMEOUT":   "resolver.ready_timeout",
	"TABHERD_RESOLVER_REQUEST_TIMEOUT": "resolver.request_timeout",
	"TABHERD_RESOLVER_SUBJECT":         "resolver.subject",
	"TABHERD_SORT_LOCALE":              "sort.locale",
	"TABHERD_BADGE_SUBJECT":            "badge.subject",
	"TABHERD_BADGE_CLEAR_AFTER":        "badge.clear_after",
	"TABHERD_JOURNAL_PATH":             "journal.path",
	"TABHERD_HOST_SUBJECT_PREFIX":      "host.subject_prefix",
	"TABHERD_HOST_REQUEST_TIMEOUT":     "host.request_timeout",
}

// Load reads configuration from configPath (optional) with env
// overrides on top of defaults.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaultYAML)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if content, err := os.ReadFile(configPath); err == nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %q: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file %q: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("TABHERD_", ".", func(s string) string {
		return envKeys[s] // "" drops unrecognized variables
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// DefaultYAML returns the default configuration as YAML, used by the
// init command to seed a config file.
func DefaultYAML() []byte {
	return []byte(defaultYAML)
}
