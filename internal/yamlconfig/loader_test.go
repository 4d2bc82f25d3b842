package yamlconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/talkbot/internal/config"
	"github.com/specialistvlad/talkbot/internal/ctxlog"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadBytes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		src           string
		expectErr     string
		expectedModel *config.Model
	}{
		{
			name: "full config",
			src: `
script: scripts/bank.talk
entry: start
error_policy: report
spin_limit: 250
log_level: debug
log_format: json
prompt: "you> "
variables:
  balance: 100
  name: guest
  vip: false
  rate: 1.5
server:
  address: ":3000"
  path: /chat/
  healthcheck_port: 8081
`,
			expectedModel: &config.Model{
				Script:      "scripts/bank.talk",
				Entry:       "start",
				ErrorPolicy: "report",
				SpinLimit:   250,
				LogLevel:    "debug",
				LogFormat:   "json",
				Prompt:      "you> ",
				Variables: map[string]string{
					"balance": "100",
					"name":    "guest",
					"vip":     "false",
					"rate":    "1.5",
				},
				Server: &config.ServerSettings{
					Address:         ":3000",
					Path:            "/chat/",
					HealthcheckPort: 8081,
				},
			},
		},
		{
			name:          "empty document",
			src:           "",
			expectedModel: &config.Model{},
		},
		{
			name:      "unknown key",
			src:       "scrpt: typo.talk\n",
			expectErr: "failed to decode YAML file",
		},
		{
			name:      "nested variable",
			src:       "variables:\n  a:\n    b: 1\n",
			expectErr: `variable "a"`,
		},
		{
			name:      "null variable",
			src:       "variables:\n  a: ~\n",
			expectErr: "must not be null",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := ctxlog.Discard(context.Background())
			model, err := NewLoader().LoadBytes(ctx, []byte(tc.src), "test.yaml")

			if tc.expectErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.expectErr)
				return
			}

			require.NoError(t, err)
			if diff := cmp.Diff(tc.expectedModel, model); diff != "" {
				t.Errorf("config model mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoader_LoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("script: bot.talk\n"), 0600))

	model, err := NewLoader().Load(ctxlog.Discard(context.Background()), path)
	require.NoError(t, err)
	require.Equal(t, "bot.talk", model.Script)
}
