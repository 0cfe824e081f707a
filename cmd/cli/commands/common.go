package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func newLogger() *logrus.Logger {
	logger := logrus.New()
	if viper.GetBool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
