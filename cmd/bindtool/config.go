package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Comcast/binder/compiler"
	"github.com/Comcast/binder/dictionary"
	"github.com/Comcast/binder/dictionary/bolt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"
)

// Config is bindtool's configuration.  Flags override the config
// file.
type Config struct {
	// ContextName is the name of the binding context in generated
	// code.
	ContextName string `yaml:"contextName"`

	// Dictionary is a translation file: YAML, or a BoltDB file if
	// the name ends with ".db".
	Dictionary string `yaml:"dictionary"`

	// Language selects the translations in the Dictionary.
	Language string `yaml:"language"`

	Debug bool `yaml:"debug"`

	// MaxUpdateDepth overrides the Store's default.
	MaxUpdateDepth int `yaml:"maxUpdateDepth"`
}

// DefaultConfig is used when there's no config file.
var DefaultConfig = Config{
	Language: "en",
}

// ReadConfig reads a YAML config file on top of DefaultConfig.
func ReadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig
	if filename == "" {
		return &cfg, nil
	}
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(bs, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &cfg, nil
}

// Logger builds the logger for the config.
func (c *Config) Logger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	if c.Debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

// Translator opens the configured dictionary.  The returned func
// closes whatever was opened.  No dictionary gives a nil Translator.
func (c *Config) Translator(ctx context.Context, logger *zap.Logger) (compiler.Translator, func() error, error) {
	noop := func() error { return nil }
	if c.Dictionary == "" {
		return nil, noop, nil
	}

	if filepath.Ext(c.Dictionary) == ".db" {
		s := bolt.NewStore(c.Dictionary, logger)
		if err := s.Open(ctx); err != nil {
			return nil, noop, err
		}
		return dictionary.NewTranslator(logger, s.Dictionary(c.Language)), s.Close, nil
	}

	ls, err := dictionary.ReadYAML(c.Dictionary)
	if err != nil {
		return nil, noop, err
	}
	d, have := ls[c.Language]
	if !have {
		return nil, noop, fmt.Errorf("no %s translations in %s", c.Language, c.Dictionary)
	}
	return dictionary.NewTranslator(logger, d), noop, nil
}
