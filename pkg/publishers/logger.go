package publishers

import "github.com/Adda-Baaj/blog-articles/internal/logger"

// Logger defines the logging surface publishers rely on.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger {
	return logger.Ensure(log)
}
