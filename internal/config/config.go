// Package config loads abiscan settings from a TOML file and the environment.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strconv"
	"unicode"

	"github.com/naoina/toml"

	"abiscan/internal/analysis"
)

const (
	DefaultCacheSize = 256
)

// Config holds every tunable of the tool. Keys in the TOML file are the
// field names, e.g. `Workers = 8`.
type Config struct {
	Debug          bool   `json:"debug" jsonschema:"title=Debug,description=Enable debug logging"`
	Workers        int    `json:"workers" jsonschema:"title=Workers,description=Inputs analyzed concurrently by run,minimum=1"`
	CacheSize      int    `json:"cacheSize" jsonschema:"title=Cache Size,description=Analysis results kept by code hash,minimum=1"`
	SignaturesFile string `json:"signaturesFile,omitempty" jsonschema:"title=Signatures File,description=Extra text signatures used to name selectors and topics"`
	NoColor        bool   `json:"noColor" jsonschema:"title=No Color,description=Disable listing highlighting"`
	HistorySize    int    `json:"historySize" jsonschema:"title=History Size,description=Scanner lookback window in instructions,minimum=5"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Workers:     runtime.GOMAXPROCS(0),
		CacheSize:   DefaultCacheSize,
		HistorySize: analysis.HistorySize,
	}
}

// These settings are used to define how the config file maps to Config.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		id := fmt.Sprintf("%s.%s", rt.String(), field)
		if unicode.IsUpper(rune(rt.Name()[0])) {
			return fmt.Errorf("field '%s' is not defined in %s", field, id)
		}
		return fmt.Errorf("field '%s' is not defined", field)
	},
}

// Load returns the defaults, overlaid with the file at path (if path is not
// empty), overlaid with ABISCAN_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	var lineErr *toml.LineError
	if errors.As(err, &lineErr) {
		err = errors.New(path + ", " + err.Error())
	}
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("ABISCAN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ABISCAN_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("ABISCAN_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ABISCAN_CACHE_SIZE: %w", err)
		}
		cfg.CacheSize = n
	}
	if v := os.Getenv("ABISCAN_SIGNATURES"); v != "" {
		cfg.SignaturesFile = v
	}
	if os.Getenv("ABISCAN_NO_COLOR") != "" {
		cfg.NoColor = true
	}
	return nil
}

// Normalize replaces out-of-range values with usable ones.
func (c *Config) Normalize() {
	if c.Workers < 1 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.CacheSize < 1 {
		c.CacheSize = DefaultCacheSize
	}
	if c.HistorySize < analysis.HistorySize {
		c.HistorySize = analysis.HistorySize
	}
}

// Signatures returns the built-in signature database extended with
// SignaturesFile, if set.
func (c *Config) Signatures() (*analysis.SignatureDB, error) {
	db := analysis.BuiltinSignatures()
	if c.SignaturesFile == "" {
		return db, nil
	}
	if err := db.LoadFile(c.SignaturesFile); err != nil {
		return nil, err
	}
	return db, nil
}
