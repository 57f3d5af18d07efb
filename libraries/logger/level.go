package logger

import "strings"

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warning", "warn":
		return LevelWarning, true
	case "error":
		return LevelError, true
	}
	return LevelInfo, false
}

// Categories are lower-case; "debug" and "debug-*" log at LevelDebug.
func levelForCategory(category string) Level {
	switch category {
	case "error":
		return LevelError
	case "warning":
		return LevelWarning
	default:
		if strings.HasPrefix(category, "debug") {
			return LevelDebug
		}
		return LevelInfo
	}
}

func validCategory(category string) bool {
	if category == "" {
		return false
	}
	for _, r := range category {
		if r >= 'A' && r <= 'Z' {
			return false
		}
	}
	return true
}
