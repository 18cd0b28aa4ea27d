package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseElement(t *testing.T) {
	assert.Equal(t, "hello", parseElement("hello"))
	assert.Equal(t, "hello", parseElement(`"hello"`))
	assert.Equal(t, 42.0, parseElement("42"))
	assert.Equal(t, true, parseElement("true"))
	assert.Equal(t, map[string]any{"a": 1.0}, parseElement(`{"a":1}`))
	assert.Equal(t, "{broken", parseElement("{broken"))
}

func TestFormatElement(t *testing.T) {
	assert.Equal(t, `"hello"`, formatElement("hello"))
	assert.Equal(t, `[1,2]`, formatElement([]any{1.0, 2.0}))
	assert.Equal(t, "<invalid>", formatElement(func() {}))
}

func TestPerfResultOpsPerSec(t *testing.T) {
	assert.Zero(t, perfResult{}.opsPerSec())
}
