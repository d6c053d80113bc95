package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskIPString(t *testing.T) {
	assert.Equal(t, "192.168.***.***", MaskIPString("192.168.1.20"))
}

func TestMaskKeyString(t *testing.T) {
	assert.Equal(t, "4fl6******", MaskKeyString("4fl6DT4Bi+"))
	assert.Equal(t, "***", MaskKeyString("abc"))
}

func TestJoinSlice(t *testing.T) {
	assert.Equal(t, "a, b, c", JoinSlice(", ", false, "a", "b", "c"))
	assert.Equal(t, "\ta\n\tb", JoinSlice("\n", true, "a", "b"))
}
