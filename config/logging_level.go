package config

import (
	"go.viam.com/chardev/logging"
)

// InitLoggingSettings sets logger's level and per-logger patterns from conf, and adds a file
// appender when conf names a log file. The command line debug flag wins over the configured
// level.
func InitLoggingSettings(logger logging.Logger, cmdLineDebugFlag bool, conf *Config) error {
	if conf.LogFile != "" {
		logger.AddAppender(logging.NewFileAppender(conf.LogFile))
	}
	if cmdLineDebugFlag {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(conf.Level())
	}
	if err := logging.ApplyPatterns(conf.LogConfig, logger); err != nil {
		return err
	}
	logger.Debugw("log level initialized", "level", logger.GetLevel().String())
	return nil
}
