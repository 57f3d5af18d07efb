package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	output         io.Writer
	minLevel       Level
	categoryWidth  int
	categoryFilter map[string]bool
}

// Rotation controls the size-based rotation of the file opened by SetLogFile.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var DefaultRotation = Rotation{
	MaxSizeMB:  100,
	MaxBackups: 5,
	MaxAgeDays: 30,
	Compress:   true,
}

var (
	defaultLogger *Logger
	mu            sync.Mutex
	logFile       *lumberjack.Logger
	stdout        io.Writer = os.Stdout
)

func init() {
	defaultLogger = &Logger{
		output:   os.Stdout,
		minLevel: LevelInfo,
	}
}

func RegisterCategories(categories ...string) {
	defaultLogger.RegisterCategories(categories...)
}

func (l *Logger) RegisterCategories(categories ...string) {
	mu.Lock()
	defer mu.Unlock()

	maxLen := 0
	for _, cat := range categories {
		if len(cat) > maxLen {
			maxLen = len(cat)
		}
	}
	l.categoryWidth = maxLen + 1
}

func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = stdout
	}
	defaultLogger.output = w
}

// SetStdout selects whether file logging is mirrored to stdout. A library
// loaded into another process usually wants its own file only.
func SetStdout(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	if enabled {
		stdout = os.Stdout
	} else {
		stdout = io.Discard
	}
	if logFile != nil {
		defaultLogger.output = io.MultiWriter(stdout, logFile)
	} else {
		defaultLogger.output = stdout
	}
}

func SetLogFile(path string) error {
	return SetRotatingLogFile(path, DefaultRotation)
}

func SetRotatingLogFile(path string, rot Rotation) error {
	// lumberjack opens lazily; probe the path so a bad location fails here.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	f.Close()

	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
	}
	logFile = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		MaxAge:     rot.MaxAgeDays,
		Compress:   rot.Compress,
	}
	defaultLogger.output = io.MultiWriter(stdout, logFile)
	return nil
}

func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
		defaultLogger.output = stdout
	}
}

func SetMinLevel(level Level) {
	defaultLogger.SetMinLevel(level)
}

func (l *Logger) SetMinLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	l.minLevel = level
}

func Printf(category string, format string, v ...interface{}) {
	defaultLogger.Printf(category, format, v...)
}

func Println(category string, v ...interface{}) {
	defaultLogger.Println(category, v...)
}

func Error(format string, v ...interface{}) {
	defaultLogger.Printf("error", format, v...)
}

func Warning(format string, v ...interface{}) {
	defaultLogger.Printf("warning", format, v...)
}

func Fatal(format string, v ...interface{}) {
	defaultLogger.Fatal(format, v...)
}

func (l *Logger) shouldLog(category string) (bool, string) {
	mu.Lock()
	explicit := l.categoryFilter != nil && l.categoryFilter[category]
	filtered := l.categoryFilter != nil && !explicit
	minLevel := l.minLevel
	mu.Unlock()

	if !explicit && levelForCategory(category) < minLevel {
		return false, ""
	}
	if filtered && category != "error" && category != "warning" {
		return false, ""
	}
	if !validCategory(category) {
		category = "invalid_category"
	}
	return true, category
}

func (l *Logger) writePrefix(buf *bytes.Buffer, category string) {
	buf.WriteString(time.Now().Format("2006-01-02 15:04:05"))
	buf.WriteByte(' ')
	buf.WriteString(category)
	for i := len(category); i < l.categoryWidth; i++ {
		buf.WriteByte(' ')
	}
	buf.WriteByte(' ')
}

func (l *Logger) write(buf *bytes.Buffer) {
	mu.Lock()
	l.output.Write(buf.Bytes())
	mu.Unlock()
}

func (l *Logger) Printf(category string, format string, v ...interface{}) {
	ok, category := l.shouldLog(category)
	if !ok {
		return
	}

	buf := getBuffer()
	defer putBuffer(buf)

	l.writePrefix(buf, category)
	fmt.Fprintf(buf, format, v...)
	if b := buf.Bytes(); len(b) > 0 && b[len(b)-1] != '\n' {
		buf.WriteByte('\n')
	}
	l.write(buf)
}

func (l *Logger) Println(category string, v ...interface{}) {
	ok, category := l.shouldLog(category)
	if !ok {
		return
	}

	buf := getBuffer()
	defer putBuffer(buf)

	l.writePrefix(buf, category)
	fmt.Fprintln(buf, v...)
	l.write(buf)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.Printf("error", format, v...)
}

func (l *Logger) Warning(format string, v ...interface{}) {
	l.Printf("warning", format, v...)
}

func (l *Logger) Fatal(format string, v ...interface{}) {
	l.Printf("error", format, v...)
	os.Exit(1)
}

func SetCategoryFilter(categories []string) {
	defaultLogger.SetCategoryFilter(categories)
}

func (l *Logger) SetCategoryFilter(categories []string) {
	mu.Lock()
	defer mu.Unlock()

	if len(categories) == 0 {
		l.categoryFilter = nil
		return
	}
	l.categoryFilter = make(map[string]bool, len(categories))
	for _, cat := range categories {
		l.categoryFilter[cat] = true
	}
}

func IsCategoryEnabled(category string) bool {
	mu.Lock()
	defer mu.Unlock()
	return defaultLogger.categoryFilter == nil || defaultLogger.categoryFilter[category]
}
