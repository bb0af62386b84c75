package statehooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCell(t *testing.T) {
	c := NewCell(1)
	var seen []int
	cancel := c.Subscribe(func(v int) { seen = append(seen, v) })

	c.Set(2)
	got := c.Update(func(v int) int { return v * 10 })
	assert.Equal(t, 20, got)
	assert.Equal(t, 20, c.Get())
	assert.Equal(t, uint64(2), c.Version())

	cancel()
	c.Set(3)
	assert.Equal(t, []int{2, 20}, seen)
}

func TestCell_CommitDefersNotification(t *testing.T) {
	c := NewCell("a")
	var seen []string
	c.Subscribe(func(v string) { seen = append(seen, v) })

	notify := c.Commit(func(string) string { return "b" })
	assert.Equal(t, "b", c.Get())
	assert.Empty(t, seen)

	assert.Equal(t, "b", notify())
	assert.Equal(t, []string{"b"}, seen)
}
