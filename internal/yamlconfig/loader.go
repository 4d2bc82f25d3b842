// Package yamlconfig is the YAML implementation of config.Loader. It accepts
// the same keys as the HCL format:
//
//	script: scripts/bank.talk
//	error_policy: report
//	variables:
//	  balance: 100
//	server:
//	  address: ":3000"
package yamlconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/specialistvlad/talkbot/internal/config"
	"github.com/specialistvlad/talkbot/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// Loader is the YAML-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

type document struct {
	Script      string         `yaml:"script"`
	Entry       string         `yaml:"entry"`
	ErrorPolicy string         `yaml:"error_policy"`
	SpinLimit   int            `yaml:"spin_limit"`
	LogLevel    string         `yaml:"log_level"`
	LogFormat   string         `yaml:"log_format"`
	Prompt      string         `yaml:"prompt"`
	Variables   map[string]any `yaml:"variables"`
	Server      *struct {
		Address         string `yaml:"address"`
		Path            string `yaml:"path"`
		HealthcheckPort int    `yaml:"healthcheck_port"`
	} `yaml:"server"`
}

// Load reads and decodes a single YAML run configuration file.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding YAML config file.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML file %s: %w", path, err)
	}
	return l.LoadBytes(ctx, data, path)
}

// LoadBytes decodes YAML source held in memory; filename is used in errors
// only.
func (l *Loader) LoadBytes(ctx context.Context, src []byte, filename string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", filename, err)
	}

	variables, err := stringVariables(doc.Variables)
	if err != nil {
		return nil, fmt.Errorf("failed to decode variables in %s: %w", filename, err)
	}

	model := &config.Model{
		Script:      doc.Script,
		Entry:       doc.Entry,
		ErrorPolicy: doc.ErrorPolicy,
		SpinLimit:   doc.SpinLimit,
		LogLevel:    doc.LogLevel,
		LogFormat:   doc.LogFormat,
		Prompt:      doc.Prompt,
		Variables:   variables,
	}
	if doc.Server != nil {
		model.Server = &config.ServerSettings{
			Address:         doc.Server.Address,
			Path:            doc.Server.Path,
			HealthcheckPort: doc.Server.HealthcheckPort,
		}
	}

	logger.Debug("Successfully decoded YAML config file.", "path", filename, "variables", len(variables), "server", model.Server != nil)
	return model, nil
}

func stringVariables(in map[string]any) (map[string]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(in))
	for name, v := range in {
		switch v := v.(type) {
		case string:
			out[name] = v
		case int:
			out[name] = strconv.Itoa(v)
		case float64:
			out[name] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[name] = strconv.FormatBool(v)
		case nil:
			return nil, fmt.Errorf("variable %q: must not be null", name)
		default:
			return nil, fmt.Errorf("variable %q: must be a string, number or bool, got %T", name, v)
		}
	}
	return out, nil
}
