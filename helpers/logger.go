package helpers

import (
	"fmt"
	"os"
	"sync"
	"time"

	"sjsage522/recruitcrawler/logger"
)

// ErrorRecorder records record-local failures
type ErrorRecorder interface {
	LogError(source string, err error)
}

// Logger appends record-local failures to a plain text file, one line each,
// so a long detail run can be audited after the fact.
type Logger struct {
	mu        sync.Mutex
	errorFile string
}

// NewLogger creates a new logger instance
func NewLogger(errorFile string) *Logger {
	return &Logger{
		errorFile: errorFile,
	}
}

// LogError logs an error to the file with the source name and timestamp
func (l *Logger) LogError(source string, err error) {
	if l == nil || l.errorFile == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		logger.LogError("error-log", fileErr, "파일 열기 오류: %s", l.errorFile)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, source, err.Error())
}
