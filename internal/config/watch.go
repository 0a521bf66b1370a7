package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Watch calls onChange with the re-parsed config every time the config file
// is written. Invalid edits are logged and skipped.
func Watch(v *viper.Viper, logger zerolog.Logger, onChange func(Config)) {
	logger = logger.With().Str("component", "config").Logger()

	v.OnConfigChange(func(event fsnotify.Event) {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return
		}

		cfg, err := FromViper(v)
		if err != nil {
			logger.Warn().Err(err).Str("file", event.Name).Msg("ignoring invalid config change")
			return
		}

		logger.Info().Str("file", event.Name).Msg("config reloaded")
		onChange(cfg)
	})
	v.WatchConfig()
}
