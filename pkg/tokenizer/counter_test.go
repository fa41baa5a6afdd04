package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount_EmptyIsZero(t *testing.T) {
	c := NewCounter()
	assert.Equal(t, 0, c.Count(""))
}

func TestCount_NonEmptyIsPositive(t *testing.T) {
	c := NewCounter()
	assert.Greater(t, c.Count("hello"), 0)
	assert.Greater(t, c.Count("xin chào, bạn khỏe không?"), 0)
}

func TestCount_Deterministic(t *testing.T) {
	c := NewCounter()
	text := "The quick brown fox jumps over the lazy dog."
	assert.Equal(t, c.Count(text), c.Count(text))
}

func TestCount_GrowsWithText(t *testing.T) {
	c := NewCounter()
	short := "one two three"
	long := strings.Repeat(short+" ", 50)
	assert.Greater(t, c.Count(long), c.Count(short))
}

func TestCount_HeuristicFallback(t *testing.T) {
	c := &Counter{} // no encoding loaded
	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 1, c.Count("ab"), "tiny text still costs at least one token")
	assert.Equal(t, 3, c.Count(strings.Repeat("a", 12)))
}
