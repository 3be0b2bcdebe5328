// Package config loads the command-line client settings from an optional
// JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// FileName is the name of the configuration file in the home directory.
const FileName = ".ftpc.json"

// Config holds the settings the client needs before it can dial.
type Config struct {
	Port        int      `json:"port"`
	User        string   `json:"user"`
	Password    string   `json:"password"`
	Passive     bool     `json:"passive"`
	Timeout     Duration `json:"timeout"`
	DataTimeout Duration `json:"data_timeout"`
	DownloadDir string   `json:"download_dir"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:        21,
		User:        "anonymous",
		Password:    "anonymous@",
		Passive:     true,
		Timeout:     Duration(60 * time.Second),
		DataTimeout: Duration(15 * time.Second),
		DownloadDir: ".",
	}
}

// DefaultPath returns ~/.ftpc.json, or "" if the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, FileName)
}

// Load reads path over the defaults. A missing file is not an error.
// Keys absent from the file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Timeout < 0 || c.DataTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}

// Duration is a time.Duration that decodes from either a Go duration
// string ("90s", "2m") or a number of seconds.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}

	secs, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid duration %s", b)
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
