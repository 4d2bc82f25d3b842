package app

import (
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/talkbot/internal/ctxlog"
	"github.com/specialistvlad/talkbot/internal/fsutil"
	"github.com/specialistvlad/talkbot/internal/script"
)

// ScriptExtension marks script files when a directory is loaded.
const ScriptExtension = ".talk"

// LoadScript parses the script at path. A directory is searched recursively
// for ScriptExtension files, which are merged in lexical order so a later
// module definition replaces an earlier one.
func LoadScript(ctx context.Context, path string) (*script.Script, error) {
	logger := ctxlog.FromContext(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access script path: %w", err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = fsutil.FindFilesByExtension(path, ScriptExtension)
		if err != nil {
			return nil, fmt.Errorf("failed to list scripts in %s: %w", path, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no %s files found in %s", ScriptExtension, path)
		}
	}
	logger.Debug("Script files found.", "path", path, "count", len(files))

	merged := script.New()
	for _, file := range files {
		sc, err := parseFile(file)
		if err != nil {
			return nil, err
		}
		for _, name := range sc.Names() {
			if _, exists := merged.Module(name); exists {
				logger.Warn("Module redefined, later definition wins.", "module", name, "file", file)
			}
		}
		merged.Merge(sc)
	}

	warnUndefinedTargets(ctx, merged)
	logger.Info("Script loaded successfully.", "modules", len(merged.Modules))
	return merged, nil
}

func parseFile(path string) (*script.Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	sc, err := script.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return sc, nil
}

// warnUndefinedTargets reports transitions that will fail if they are taken.
func warnUndefinedTargets(ctx context.Context, sc *script.Script) {
	logger := ctxlog.FromContext(ctx)
	for _, name := range sc.Names() {
		module, _ := sc.Module(name)
		for _, ins := range module.Instructions {
			var target string
			switch ins := ins.(type) {
			case script.Goto:
				target = ins.Target
			case script.DefaultGoto:
				target = ins.Target
			case *script.For:
				target = ins.Target
			default:
				continue
			}
			if _, ok := sc.Module(target); !ok {
				logger.Warn("Transition target is not defined.", "module", name, "target", target)
			}
		}
	}
}
