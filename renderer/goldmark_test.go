package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGoldmark(t *testing.T) {
	g := NewGoldmark()

	assert.Equal(t, "", g.Render(""))
	assert.Contains(t, g.Render("# Title"), `<h1 id="title">Title</h1>`)
	assert.Contains(t, g.Render("| a |\n|---|\n| 1 |"), "<table>")
	assert.NotContains(t, g.Render("<script>alert(1)</script>"), "<script>")
}
