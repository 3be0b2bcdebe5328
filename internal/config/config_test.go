package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func writeConfig(c *qt.C, content string) string {
	path := filepath.Join(c.TempDir(), FileName)
	c.Assert(os.WriteFile(path, []byte(content), 0o600), qt.IsNil)
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c := qt.New(t)

	cfg, err := Load(filepath.Join(c.TempDir(), "absent.json"))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, Default())

	cfg, err = Load("")
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Port, qt.Equals, 21)
	c.Assert(cfg.User, qt.Equals, "anonymous")
	c.Assert(cfg.Timeout.Std(), qt.Equals, 60*time.Second)
	c.Assert(cfg.DataTimeout.Std(), qt.Equals, 15*time.Second)
	c.Assert(cfg.DownloadDir, qt.Equals, ".")
}

func TestLoadOverridesDefaults(t *testing.T) {
	c := qt.New(t)

	path := writeConfig(c, `{
		"port": 2121,
		"user": "bob",
		"passive": false,
		"timeout": "90s",
		"data_timeout": 5
	}`)

	cfg, err := Load(path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Port, qt.Equals, 2121)
	c.Assert(cfg.User, qt.Equals, "bob")
	c.Assert(cfg.Password, qt.Equals, "anonymous@")
	c.Assert(cfg.Passive, qt.IsFalse)
	c.Assert(cfg.Timeout.Std(), qt.Equals, 90*time.Second)
	c.Assert(cfg.DataTimeout.Std(), qt.Equals, 5*time.Second)
	c.Assert(cfg.DownloadDir, qt.Equals, ".")
}

func TestLoadRejectsBadInput(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{"syntax", `{"port":`, `parse config .*`},
		{"port range", `{"port": 70000}`, `config .*: port 70000 out of range`},
		{"duration", `{"timeout": "soon"}`, `parse config .*`},
		{"negative", `{"data_timeout": -1}`, `config .*: timeouts must not be negative`},
	}
	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			_, err := Load(writeConfig(c, tt.content))
			c.Assert(err, qt.ErrorMatches, tt.msg)
		})
	}
}

func TestDurationRoundTrip(t *testing.T) {
	c := qt.New(t)

	b, err := Duration(1500 * time.Millisecond).MarshalJSON()
	c.Assert(err, qt.IsNil)
	c.Assert(string(b), qt.Equals, `"1.5s"`)

	var d Duration
	c.Assert(d.UnmarshalJSON(b), qt.IsNil)
	c.Assert(d.Std(), qt.Equals, 1500*time.Millisecond)
}
