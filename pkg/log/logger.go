package log

import (
	"os"

	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"
)

var logger *logrus.Logger

// nolint:gochecknoinits
func init() {
	logger = &logrus.Logger{
		Out:   os.Stderr,
		Level: logrus.InfoLevel,
		Formatter: &easy.Formatter{
			TimestampFormat: "01-02 15:04:05.000",
			LogFormat:       "[%lvl%]   [%time%]   -   %msg%\r\n",
		},
	}
}

// SetLevel
// Set log level:
// DebugLevel = 0
// InfoLevel = 1
// WarnLevel = 2
// ErrorLevel = 3
func SetLevel(lvl int) {
	switch lvl {
	case 0:
		Info("log level set to DEBUG.")
		logger.Level = logrus.DebugLevel
	case 1:
		Info("log level set to INFO.")
		logger.Level = logrus.InfoLevel
	case 2:
		Info("log level set to WARN.")
		logger.Level = logrus.WarnLevel
	case 3:
		Info("log level set to ERROR.")
		logger.Level = logrus.ErrorLevel
	default:
		Info("log level set to INFO.")
		logger.Level = logrus.InfoLevel
	}
}

func Debug(content interface{}) {
	logger.Debug(content)
}

func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

func Info(content interface{}) {
	logger.Info(content)
}

func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

func Warn(content interface{}) {
	logger.Warn(content)
}

func Warnf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

func Error(content interface{}) {
	logger.Error(content)
}

func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

func Fatal(content interface{}) {
	logger.Fatal(content)
}

func Fatalf(format string, args ...interface{}) {
	logger.Fatalf(format, args...)
}
