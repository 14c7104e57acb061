package helpers

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "test_error.log")

	logger := NewLogger(tmpFile)
	logger.LogError("Jumpit", errors.New("detail 123: unexpected status code: 500"))
	logger.LogError("Wanted", errors.New("rate limited"))

	data, err := os.ReadFile(tmpFile)
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[Jumpit] detail 123: unexpected status code: 500")
	assert.Contains(t, lines[1], "[Wanted] rate limited")
}

func TestLoggerDisabled(t *testing.T) {
	var nilLogger *Logger
	nilLogger.LogError("Jumpit", errors.New("ignored"))
	NewLogger("").LogError("Jumpit", errors.New("ignored"))
}
