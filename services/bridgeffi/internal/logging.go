package internal

import "github.com/bifrost-finance/bifrost-eos-relay/libraries/logger"

var LogCategories = []string{"startup", "decode", "submit", "nonce", "ledger", "pending", "enforce", "debug-nonce"}

// ApplyLogging configures the process-wide logger. Inside a host process the
// log goes to log-file only unless log-stdout is set.
func (c *Config) ApplyLogging() error {
	logger.RegisterCategories(LogCategories...)
	if c.Debug {
		logger.SetCategoryFilter(nil)
		logger.SetMinLevel(logger.LevelDebug)
	} else {
		logger.SetMinLevel(logger.LevelInfo)
		logger.SetCategoryFilter(c.LogFilter)
	}

	if c.LogFile == "" {
		return nil
	}
	logger.SetStdout(c.LogStdout)
	return logger.SetLogFile(c.LogFile)
}
