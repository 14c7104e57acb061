package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "모바일 RPG", CleanText("  모바일\n\t RPG "))
	assert.Equal(t, "", CleanText(" \n "))
}
