package hclconfig

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/talkbot/internal/config"
	"github.com/specialistvlad/talkbot/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot mirrors the top level of a run configuration file.
type fileRoot struct {
	Script      string         `hcl:"script,optional"`
	Entry       string         `hcl:"entry,optional"`
	ErrorPolicy string         `hcl:"error_policy,optional"`
	SpinLimit   int            `hcl:"spin_limit,optional"`
	LogLevel    string         `hcl:"log_level,optional"`
	LogFormat   string         `hcl:"log_format,optional"`
	Prompt      string         `hcl:"prompt,optional"`
	Variables   hcl.Expression `hcl:"variables,optional"`
	Server      *serverBlock   `hcl:"server,block"`
	Remain      hcl.Body       `hcl:",remain"`
}

type serverBlock struct {
	Address         string `hcl:"address,optional"`
	Path            string `hcl:"path,optional"`
	HealthcheckPort int    `hcl:"healthcheck_port,optional"`
}

// Load parses and decodes a single HCL run configuration file.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding HCL config file.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	return l.decode(ctx, file.Body, path)
}

// LoadBytes decodes HCL source held in memory; filename is used in
// diagnostics only.
func (l *Loader) LoadBytes(ctx context.Context, src []byte, filename string) (*config.Model, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return l.decode(ctx, file.Body, filename)
}

func (l *Loader) decode(ctx context.Context, body hcl.Body, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	if root.Remain != nil {
		if attrs, _ := root.Remain.JustAttributes(); len(attrs) > 0 {
			for name := range attrs {
				logger.Warn("Unknown attribute in config file, ignoring.", "path", path, "attribute", name)
			}
		}
	}

	variables, err := decodeVariables(ctx, root.Variables)
	if err != nil {
		return nil, fmt.Errorf("failed to decode variables in %s: %w", path, err)
	}

	model := &config.Model{
		Script:      root.Script,
		Entry:       root.Entry,
		ErrorPolicy: root.ErrorPolicy,
		SpinLimit:   root.SpinLimit,
		LogLevel:    root.LogLevel,
		LogFormat:   root.LogFormat,
		Prompt:      root.Prompt,
		Variables:   variables,
	}
	if root.Server != nil {
		model.Server = &config.ServerSettings{
			Address:         root.Server.Address,
			Path:            root.Server.Path,
			HealthcheckPort: root.Server.HealthcheckPort,
		}
	}

	logger.Debug("Successfully decoded HCL config file.", "path", path, "variables", len(variables), "server", model.Server != nil)
	return model, nil
}
