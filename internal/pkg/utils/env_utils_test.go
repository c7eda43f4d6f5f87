package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("WC_TEST_STRING", "  value ")
	t.Setenv("WC_TEST_INT", "42")
	t.Setenv("WC_TEST_BAD_INT", "forty")
	t.Setenv("WC_TEST_BOOL", "true")
	t.Setenv("WC_TEST_DURATION", "1500ms")
	t.Setenv("WC_TEST_SLICE", "a, b,,c")
	t.Setenv("WC_TEST_EMPTY_SLICE", " , ")

	assert.Equal(t, "value", GetEnv("WC_TEST_STRING", "x"))
	assert.Equal(t, "x", GetEnv("WC_TEST_MISSING", "x"))
	assert.Equal(t, 42, GetEnvInt("WC_TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("WC_TEST_BAD_INT", 1))
	assert.True(t, GetEnvBool("WC_TEST_BOOL", false))
	assert.Equal(t, 1500*time.Millisecond, GetEnvDuration("WC_TEST_DURATION", time.Second))
	assert.Equal(t, []string{"a", "b", "c"}, GetEnvStringSlice("WC_TEST_SLICE", nil))
	assert.Equal(t, []string{"*"}, GetEnvStringSlice("WC_TEST_EMPTY_SLICE", []string{"*"}))
}
