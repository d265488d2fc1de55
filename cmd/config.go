package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// stringList is a YAML value which may be given as
// either a single string or a sequence of strings.
type stringList []string

func (l *stringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*l = stringList{s}
		return nil
	case yaml.SequenceNode:
		var ss []string
		if err := value.Decode(&ss); err != nil {
			return err
		}
		*l = ss
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}

// Config is a codegen config file.
type Config struct {
	Schema                  stringList               `yaml:"schema"`
	Documents               stringList               `yaml:"documents"`
	SkipDocumentsValidation bool                     `yaml:"skipDocumentsValidation"`
	Headers                 map[string]string        `yaml:"headers"`
	Config                  map[string]interface{}   `yaml:"config"`
	Generates               map[string]*OutputConfig `yaml:"generates"`
}

// OutputConfig configures a single generated file.
type OutputConfig struct {
	Plugins stringList             `yaml:"plugins"`
	Config  map[string]interface{} `yaml:"config"`
}

var (
	errNoOutputs = errors.New("gqlc: config must declare at least one output under generates")
	errNoPlugins = errors.New("gqlc: output must list at least one plugin")
)

// loadConfig reads and validates the config file at path.
func loadConfig(fs afero.Fs, path string) (*Config, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	cfg := new(Config)
	if err = yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("gqlc: invalid config %s: %w", path, err)
	}

	if len(cfg.Generates) == 0 {
		return nil, errNoOutputs
	}
	for out, oc := range cfg.Generates {
		if oc == nil || len(oc.Plugins) == 0 {
			return nil, fmt.Errorf("%w: %s", errNoPlugins, out)
		}
	}

	return cfg, nil
}

// header returns the configured headers as an http.Header.
func (c *Config) header() http.Header {
	if len(c.Headers) == 0 {
		return nil
	}

	h := make(http.Header, len(c.Headers))
	for k, v := range c.Headers {
		h.Set(k, v)
	}
	return h
}

// target is a single generator run: one plugin writing one output file.
type target struct {
	plugin string
	dir    string
	opts   map[string]interface{}
}

// targets flattens the outputs into generator runs, ordered by output path
// and then by plugin order.
func (c *Config) targets() []target {
	outs := make([]string, 0, len(c.Generates))
	for out := range c.Generates {
		outs = append(outs, out)
	}
	sort.Strings(outs)

	var ts []target
	for _, out := range outs {
		oc := c.Generates[out]

		opts := make(map[string]interface{}, len(c.Config)+len(oc.Config)+1)
		for k, v := range c.Config {
			opts[k] = v
		}
		for k, v := range oc.Config {
			opts[k] = v
		}
		opts["filename"] = filepath.Base(out)

		for _, p := range oc.Plugins {
			ts = append(ts, target{plugin: p, dir: filepath.Dir(out), opts: opts})
		}
	}
	return ts
}
