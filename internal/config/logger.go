package config

import (
    "os"

    "github.com/sirupsen/logrus"
)

// NewLogger builds the process-wide structured logger.  Output is JSON on
// stdout so log aggregators can index the per-message fields (reservation
// uuid, error detail) without parsing free text.
func NewLogger(level string) *logrus.Logger {
    logg := logrus.New()
    logg.SetFormatter(&logrus.JSONFormatter{})
    logg.SetOutput(os.Stdout)
    lvl, err := logrus.ParseLevel(level)
    if err != nil {
        lvl = logrus.InfoLevel
    }
    logg.SetLevel(lvl)
    return logg
}
