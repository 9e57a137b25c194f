package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// WatchThreshold calls fn with the effective novelty.threshold every time
// config.toml is written. It is a no-op when no config file was read.
func WatchThreshold(v *viper.Viper, fn func(threshold float64)) {
	if v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		fn(v.GetFloat64("novelty.threshold"))
	})
	v.WatchConfig()
}
