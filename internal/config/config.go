// Package config resolves a node's startup configuration from, in
// increasing priority, built-in defaults, an optional TOML file and the
// command-line flags.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/teris-io/shortid"
	"gopkg.in/alecthomas/kingpin.v2"
)

const defaultLogFile = "/tmp/netchat.log"

// Config is the fully resolved, validated startup configuration for a node.
type Config struct {
	Input      string
	Output     string
	Name       string
	LogFile    string
	ConfigFile string
}

// fileConfig is the shape of an optional TOML profile layered beneath the
// CLI flags.
type fileConfig struct {
	Input   string `toml:"input"`
	Output  string `toml:"output"`
	Name    string `toml:"name"`
	LogFile string `toml:"logfile"`
}

// Parse builds a Config from args (typically os.Args[1:]), applying the
// precedence documented on the package and generating a random node id when none
// is given.
func Parse(args []string) (*Config, error) {
	app := kingpin.New("netchat", "A fully decentralized peer-to-peer chat node.")

	input := app.Flag("input", "Path to the FIFO this node reads from.").Short('i').String()
	output := app.Flag("output", "Path to the FIFO this node writes to.").Short('o').String()
	name := app.Flag("name", "Node id. A random 8-character id is generated if absent.").Short('n').String()
	logfile := app.Flag("logfile", "Log file path.").Short('l').String()
	configFile := app.Flag("config", "Optional TOML configuration file.").Short('c').String()

	if _, err := app.Parse(args); err != nil {
		return nil, errors.Wrap(err, "netchat: parsing command line")
	}

	cfg := Config{
		Input:      *input,
		Output:     *output,
		Name:       *name,
		LogFile:    *logfile,
		ConfigFile: *configFile,
	}

	if cfg.ConfigFile != "" {
		var fromFile fileConfig
		if _, err := toml.DecodeFile(cfg.ConfigFile, &fromFile); err != nil {
			return nil, errors.Wrapf(err, "netchat: reading config file %s", cfg.ConfigFile)
		}
		if cfg.Input == "" {
			cfg.Input = fromFile.Input
		}
		if cfg.Output == "" {
			cfg.Output = fromFile.Output
		}
		if cfg.Name == "" {
			cfg.Name = fromFile.Name
		}
		if cfg.LogFile == "" {
			cfg.LogFile = fromFile.LogFile
		}
	}

	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}
	if cfg.Name == "" {
		id, err := generateNodeID()
		if err != nil {
			return nil, errors.Wrap(err, "netchat: generating node id")
		}
		cfg.Name = id
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate enforces the startup preconditions: both pipe
// paths are required, and a node cannot read and write the same path.
func (c Config) validate() error {
	if c.Input == "" {
		return errors.New("netchat: -i/--input is required")
	}
	if c.Output == "" {
		return errors.New("netchat: -o/--output is required")
	}
	if c.Input == c.Output {
		return errors.New("netchat: -i/--input and -o/--output must be different paths")
	}
	if _, err := os.Stat(c.Input); err != nil {
		return errors.Wrapf(err, "netchat: input pipe %s", c.Input)
	}
	return nil
}

// generateNodeID produces an 8-character alphanumeric node id.
// Characters other than letters and digits in shortid's output are skipped.
func generateNodeID() (string, error) {
	id := make([]byte, 0, 8)
	for len(id) < 8 {
		raw, err := shortid.Generate()
		if err != nil {
			return "", err
		}
		for i := 0; i < len(raw) && len(id) < 8; i++ {
			if c := raw[i]; ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
				id = append(id, c)
			}
		}
	}
	return string(id), nil
}
