package app

import (
	"path/filepath"
	"testing"

	"github.com/specialistvlad/talkbot/internal/script"
	"github.com/specialistvlad/talkbot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScript(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		files       map[string]string
		path        string // relative to the temp dir, "" loads the dir
		wantModules []string
		wantErr     string
		wantLog     string
	}{
		{
			name:        "single file with any extension",
			files:       map[string]string{"bot.txt": "main {\n    exit\n}\n"},
			path:        "bot.txt",
			wantModules: []string{"main"},
		},
		{
			name: "directory is searched recursively",
			files: map[string]string{
				"main.talk":        "main {\n    goto help\n}\n",
				"nested/help.talk": "help {\n    exit\n}\n",
			},
			wantModules: []string{"help", "main"},
		},
		{
			name:    "redefinition across files is reported",
			files:   map[string]string{"a.talk": "main {\n    exit\n}\n", "b.talk": "main {\n    exit\n}\n"},
			wantLog: "Module redefined, later definition wins.",
		},
		{
			name:    "undefined target is reported",
			files:   map[string]string{"a.talk": "main {\n    for /x/ goto missing\n}\n"},
			wantLog: "Transition target is not defined.",
		},
		{
			name:    "empty directory",
			files:   map[string]string{"readme.md": "nothing"},
			wantErr: "no .talk files found",
		},
		{
			name:    "missing path",
			files:   map[string]string{},
			path:    "missing.talk",
			wantErr: "failed to access script path",
		},
		{
			name:    "parse error names the file",
			files:   map[string]string{"bad.talk": "output \"x\"\n"},
			path:    "bad.talk",
			wantErr: "bad.talk: line 1: no module definition found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			// --- Arrange ---
			ctx, logs := testutil.LoggerContext(t)
			dir := testutil.WriteFiles(t, tc.files)
			path := dir
			if tc.path != "" {
				path = filepath.Join(dir, tc.path)
			}

			// --- Act ---
			sc, err := LoadScript(ctx, path)

			// --- Assert ---
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.IsType(t, &script.Script{}, sc)
			if tc.wantModules != nil {
				assert.Equal(t, tc.wantModules, sc.Names())
			}
			if tc.wantLog != "" {
				assert.Contains(t, logs.String(), tc.wantLog)
			}
		})
	}
}
