package app

import (
	"github.com/specialistvlad/talkbot/internal/config"
	"github.com/specialistvlad/talkbot/internal/hclconfig"
	"github.com/specialistvlad/talkbot/internal/yamlconfig"
)

// ConfigLoaders returns the run-config loaders compiled into the binary,
// keyed by file extension.
func ConfigLoaders() config.Loaders {
	yamlLoader := yamlconfig.NewLoader()
	return config.Loaders{
		".hcl":  hclconfig.NewLoader(),
		".yaml": yamlLoader,
		".yml":  yamlLoader,
	}
}
