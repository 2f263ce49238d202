// Package config loads lattesdoc settings with viper.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"lattesdoc/renderer"
	"lattesdoc/store"
)

// ConfigOption is one configuration key with its default.
type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns every configuration key, its default and meaning.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "host", Default: "localhost", Comment: "Host the HTTP server binds to"},
		{Key: "port", Default: 0, Comment: "Port the HTTP server binds to (0 picks a free port from 8080)"},
		{Key: "livereload", Default: true, Comment: "Push reloads to open pages when documents change (dir store only)"},

		{Key: "store.backend", Default: "dir", Comment: "Document store: dir or bolt"},
		{Key: "store.dir", Default: defaultDataDir(), Comment: "Root directory of the dir store"},
		{Key: "store.bolt_path", Default: filepath.Join(defaultDataDir(), "lattesdoc.db"), Comment: "Database file of the bolt store"},

		{Key: "render.engine", Default: renderer.EngineSubset, Comment: "Markdown engine: subset or goldmark"},
		{Key: "render.ordered_lists", Default: true, Comment: `Render "1. item" lines as ordered lists`},
		{Key: "render.horizontal_rules", Default: true, Comment: `Render "---" lines as dividers`},
		{Key: "render.link_text", Default: "label", Comment: "Visible link text: label or url"},
		{Key: "render.table_class", Default: "", Comment: "Class attribute added to rendered tables"},

		{Key: "export.summary_prefix", Default: "resumo", Comment: "File name prefix of raw summary downloads"},
		{Key: "export.analysis_prefix", Default: "analise", Comment: "File name prefix of raw analysis downloads"},
	}
}

func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
func Load(ctx context.Context, v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "lattesdoc"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "lattesdoc"))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	// LATTESDOC_STORE_BACKEND etc.
	v.SetEnvPrefix("lattesdoc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return CheckConfigValidity(v)
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "lattesdoc")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "lattesdoc")
}

// CheckConfigValidity reports every invalid setting in one error.
func CheckConfigValidity(v *viper.Viper) error {
	var errs []error
	if p := v.GetInt("port"); p < 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 0 and 65535"))
	}
	switch v.GetString("store.backend") {
	case "dir":
		if strings.TrimSpace(v.GetString("store.dir")) == "" {
			errs = append(errs, fmt.Errorf("store.dir is required"))
		}
	case "bolt":
		if strings.TrimSpace(v.GetString("store.bolt_path")) == "" {
			errs = append(errs, fmt.Errorf("store.bolt_path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be dir or bolt"))
	}
	switch v.GetString("render.engine") {
	case renderer.EngineSubset, renderer.EngineGoldmark:
	default:
		errs = append(errs, fmt.Errorf("render.engine must be %s or %s", renderer.EngineSubset, renderer.EngineGoldmark))
	}
	if _, err := renderer.ParseLinkTextMode(v.GetString("render.link_text")); err != nil {
		errs = append(errs, fmt.Errorf("render.link_text: %w", err))
	}
	return errors.Join(errs...)
}

// Settings is a typed snapshot of a loaded configuration.
type Settings struct {
	Host       string
	Port       int
	LiveReload bool

	StoreBackend string
	StoreDir     string
	BoltPath     string

	Engine string
	Render renderer.Options

	// ExportPrefixes maps a document kind to its download file name prefix.
	ExportPrefixes map[store.Kind]string
}

// FromViper builds Settings from v. v should have passed
// CheckConfigValidity.
func FromViper(v *viper.Viper) (Settings, error) {
	linkText, err := renderer.ParseLinkTextMode(v.GetString("render.link_text"))
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		Host:         v.GetString("host"),
		Port:         v.GetInt("port"),
		LiveReload:   v.GetBool("livereload"),
		StoreBackend: v.GetString("store.backend"),
		StoreDir:     v.GetString("store.dir"),
		BoltPath:     v.GetString("store.bolt_path"),
		Engine:       v.GetString("render.engine"),
		Render: renderer.Options{
			OrderedLists:    v.GetBool("render.ordered_lists"),
			HorizontalRules: v.GetBool("render.horizontal_rules"),
			LinkText:        linkText,
			TableClass:      v.GetString("render.table_class"),
		},
		ExportPrefixes: map[store.Kind]string{
			store.KindSummary:  v.GetString("export.summary_prefix"),
			store.KindAnalysis: v.GetString("export.analysis_prefix"),
		},
	}, nil
}

// StorePath returns the location used by the configured store backend.
func (s Settings) StorePath() string {
	if s.StoreBackend == "bolt" {
		return s.BoltPath
	}
	return s.StoreDir
}
