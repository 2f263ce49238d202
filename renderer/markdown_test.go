package renderer

import (
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \n\t\n", ""},
		{"h2", "# Title", "<h2>Title</h2>"},
		{"h4", "### Sub", "<h4>Sub</h4>"},
		{"emphasis", "**bold** and *italic*", "<p><strong>bold</strong> and <em>italic</em></p>"},
		{"unterminated bold", "**unterminated", "<p>**unterminated</p>"},
		{"bold does not cross lines", "**a\nb**", "<p>**a</p>\n<p>b**</p>"},
		{
			"table",
			"| A | B |\n|---|---|\n| 1 | 2 |",
			"<table><tr><td>A</td><td>B</td></tr><tr><td>1</td><td>2</td></tr></table>",
		},
		{
			"mixed document",
			"# T\n\nIntro\n- a\n- b\n---\n1. x",
			"<h2>T</h2>\n<p>Intro</p>\n<ul><li>a</li><li>b</li></ul>\n<hr />\n<ol><li>x</li></ol>",
		},
		{"escaped heading", "## a < b", "<h3>a &lt; b</h3>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Render(tc.in))
		})
	}
}

func TestRender_TableRows(t *testing.T) {
	doc := parse(t, Render("| A | B |\n|---|---|\n| 1 | 2 |"))

	require.Equal(t, 1, doc.Find("table").Length())
	rows := doc.Find("table tr")
	require.Equal(t, 2, rows.Length())

	var cells [][]string
	rows.Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			row = append(row, td.Text())
		})
		cells = append(cells, row)
	})
	assert.Equal(t, [][]string{{"A", "B"}, {"1", "2"}}, cells)
	assert.NotContains(t, doc.Text(), "---")
}

func TestRender_ListGrouping(t *testing.T) {
	doc := parse(t, Render(strings.Repeat("- item\n", 5)))
	assert.Equal(t, 1, doc.Find("ul").Length())
	assert.Equal(t, 5, doc.Find("ul > li").Length())
}

func TestRender_TableClass(t *testing.T) {
	r := New(Options{TableClass: "summary-table"})
	assert.Equal(t, `<table class="summary-table"><tr><td>a</td></tr></table>`, r.Render("|a|"))
}

func TestRender_LinkText(t *testing.T) {
	in := "[docs](https://example.com/docs)"

	label := parse(t, New(DefaultOptions()).Render(in)).Find("a")
	assert.Equal(t, "docs", label.Text())
	assert.Equal(t, "_blank", label.AttrOr("target", ""))

	opts := DefaultOptions()
	opts.LinkText = LinkURL
	url := parse(t, New(opts).Render(in)).Find("a")
	assert.Equal(t, "https://example.com/docs", url.Text())
	assert.Equal(t, "https://example.com/docs", url.AttrOr("href", ""))
}

var (
	allowedTags  = regexp.MustCompile(`^</?(h2|h3|h4|hr|table|tr|td|ul|ol|li|p|strong|em|a)[\s/>]`)
	hostileInput = []string{
		"<script>alert(1)</script>",
		"# <img src=x onerror=alert(1)>",
		"| <b>x</b> | **<i>y</i>** |",
		"- [click](https://x.y/<script>)",
		"1. *<svg onload=alert(1)>*",
		`[a](https://x.y/"><script>alert(1)</script>)`,
		"**<<>>**&lt;script&gt;",
		"<!-- comment -->\n---\n<iframe>",
	}
)

func TestRender_NoInjectedMarkup(t *testing.T) {
	for _, in := range hostileInput {
		out := Render(in)
		for i := strings.IndexByte(out, '<'); i >= 0; {
			assert.Regexp(t, allowedTags, out[i:], "input %q produced %q", in, out)
			next := strings.IndexByte(out[i+1:], '<')
			if next < 0 {
				break
			}
			i += next + 1
		}
		parse(t, out).Find("body *").Each(func(_ int, s *goquery.Selection) {
			name := goquery.NodeName(s)
			assert.Regexp(t, `^(h2|h3|h4|hr|table|tbody|tr|td|ul|ol|li|p|strong|em|a)$`, name,
				"input %q produced element %s", in, name)
		})
	}
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine("", DefaultOptions())
	require.NoError(t, err)
	assert.IsType(t, &Renderer{}, e)

	e, err = NewEngine(EngineGoldmark, DefaultOptions())
	require.NoError(t, err)
	assert.IsType(t, &Goldmark{}, e)

	_, err = NewEngine("pandoc", DefaultOptions())
	assert.Error(t, err)
}

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestRenderer_Concurrent(t *testing.T) {
	opts := DefaultOptions()
	opts.TableClass = "summary-table"
	r := New(opts)
	in := "# T\n| a | b |\n|---|---|\n| 1 | 2 |\n- **x**\n1. [y](https://y.z)"
	want := r.Render(in)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				results[i] = r.Render(in)
			}
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
