package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidRecognizerNames lists the recognizer names that ship with audioscribe.
// Used by [Validate] to warn about unrecognised names, which may be typos or
// third-party registrations.
var ValidRecognizerNames = []string{"whisper", "whisper-native", "openai"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Recognizer — the pipeline cannot run without one.
	name := cfg.Recognizer.Name
	if name == "" {
		errs = append(errs, errors.New("recognizer.name is required"))
	} else if !slices.Contains(ValidRecognizerNames, name) {
		slog.Warn("unknown recognizer name — may be a typo or third-party recognizer",
			"name", name,
			"known", ValidRecognizerNames,
		)
	}

	// Backend-specific requirements.
	switch name {
	case "whisper":
		if cfg.Recognizer.BaseURL == "" {
			errs = append(errs, errors.New("recognizer.base_url is required for the whisper server backend"))
		}
	case "whisper-native":
		if cfg.Recognizer.Model == "" {
			errs = append(errs, errors.New("recognizer.model (ggml model path) is required for the whisper-native backend"))
		}
	case "openai":
		if cfg.Recognizer.APIKey == "" {
			errs = append(errs, errors.New("recognizer.api_key is required for the openai backend"))
		}
	}

	// Acquisition — only sanity-check that an explicit work dir exists;
	// missing tools surface through the readiness probe instead.
	if dir := cfg.Acquire.WorkDir; dir != "" {
		if info, err := os.Stat(dir); err != nil {
			errs = append(errs, fmt.Errorf("acquire.work_dir %q: %w", dir, err))
		} else if !info.IsDir() {
			errs = append(errs, fmt.Errorf("acquire.work_dir %q is not a directory", dir))
		}
	}

	return errors.Join(errs...)
}
