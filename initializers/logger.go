package initializers

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// InitLogger configures the global logrus logger: JSON in production, text
// while developing.
func InitLogger() {
	if Cfg.IsDevelopment() {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&log.JSONFormatter{})
	}
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(Cfg.LogLevel)
	if err != nil {
		log.WithField("level", Cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
