package config

import "path/filepath"

// Model is the unified, format-agnostic representation of a run
// configuration file.
type Model struct {
	Script      string
	Entry       string
	ErrorPolicy string
	SpinLimit   int
	LogLevel    string
	LogFormat   string
	Prompt      string
	Variables   map[string]string
	Server      *ServerSettings
}

// ServerSettings configures the socket.io dialogue server.
type ServerSettings struct {
	Address         string
	Path            string
	HealthcheckPort int
}

// ResolvePaths makes a relative script path relative to baseDir.
func (m *Model) ResolvePaths(baseDir string) {
	if m.Script != "" && !filepath.IsAbs(m.Script) {
		m.Script = filepath.Join(baseDir, m.Script)
	}
}
