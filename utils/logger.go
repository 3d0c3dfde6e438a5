package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  = logrus.New()
	ErrorLogger = logrus.New()
)

// InitLogger configures the process loggers. format "json" switches both to JSON output.
func InitLogger(format ...string) {
	InfoLogger = logrus.New()
	ErrorLogger = logrus.New()

	InfoLogger.SetOutput(os.Stdout)
	ErrorLogger.SetOutput(os.Stderr)

	var formatter logrus.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if len(format) > 0 && format[0] == "json" {
		formatter = &logrus.JSONFormatter{}
	}
	InfoLogger.SetFormatter(formatter)
	ErrorLogger.SetFormatter(formatter)

	InfoLogger.SetLevel(logrus.InfoLevel)
	ErrorLogger.SetLevel(logrus.ErrorLevel)
}
