package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLanguage(t *testing.T) {
	code, name, ok := ResolveLanguage("gez")
	assert.True(t, ok)
	assert.Equal(t, "gez", code)
	assert.Equal(t, "Geez", name)

	code, _, ok = ResolveLanguage("  AM ")
	assert.True(t, ok)
	assert.Equal(t, "am", code)

	_, _, ok = ResolveLanguage("xx")
	assert.False(t, ok)

	_, _, ok = ResolveLanguage("")
	assert.False(t, ok)
}
