package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is usable before InitLogger with logrus defaults.
var Log = logrus.New()

func InitLogger(level string) {
	Log = logrus.New()

	// Output to stdout instead of the default stderr
	Log.Out = os.Stdout

	Log.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		Log.WithField("level", level).Warn("unknown log level, falling back to info")
	}
	Log.SetLevel(lvl)
}
