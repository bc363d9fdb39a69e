package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/clera-dev/clera-gateway/internal/pkg/logger"
)

// Watch logs a warning whenever the config file changes on disk. The route
// rule table and all loaded settings stay fixed for the process lifetime; a
// restart is required to apply changes.
func Watch() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		logger.Warn("Config file changed on disk; restart required to apply",
			"file", e.Name, "op", e.Op.String())
	})
	viper.WatchConfig()
}
