package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	model *Model
}

func (s stubLoader) Load(context.Context, string) (*Model, error) {
	m := *s.model
	return &m, nil
}

func TestLoaders_For(t *testing.T) {
	hcl := stubLoader{model: &Model{}}
	loaders := Loaders{".hcl": hcl, ".yaml": stubLoader{model: &Model{}}}

	l, err := loaders.For("/etc/talkbot/run.HCL")
	require.NoError(t, err)
	assert.Equal(t, hcl, l)

	_, err = loaders.For("run.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".hcl, .yaml")
}

func TestLoaders_LoadResolvesScriptPath(t *testing.T) {
	loaders := Loaders{".hcl": stubLoader{model: &Model{Script: "scripts/bank.talk"}}}

	model, err := loaders.Load(context.Background(), filepath.Join("/srv", "bot", "run.hcl"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv", "bot", "scripts", "bank.talk"), model.Script)
}

func TestModel_ResolvePaths(t *testing.T) {
	abs := filepath.Join(string(filepath.Separator), "abs", "main.talk")
	m := &Model{Script: abs}
	m.ResolvePaths("/other")
	assert.Equal(t, abs, m.Script)

	empty := &Model{}
	empty.ResolvePaths("/other")
	assert.Equal(t, "", empty.Script)
}
