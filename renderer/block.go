package renderer

import (
	"regexp"
	"strings"
)

// Block is one structural unit of a document. The concrete types are
// Heading, Rule, Table, List and Paragraph.
type Block interface {
	block()
}

// Heading is a heading of level 2, 3 or 4.
type Heading struct {
	Level int
	Text  string
}

// Rule is a horizontal divider.
type Rule struct{}

// TableRow is one non-separator row of a pipe table.
type TableRow struct {
	Cells []string
}

// Table is a run of consecutive table rows.
type Table struct {
	Rows []TableRow
}

// List is a run of consecutive list items of the same kind.
type List struct {
	Ordered bool
	Items   []string
}

// Paragraph is a single line of running text.
type Paragraph struct {
	Text string
}

func (Heading) block()   {}
func (Rule) block()      {}
func (Table) block()     {}
func (List) block()      {}
func (Paragraph) block() {}

var (
	separatorCellRegexp = regexp.MustCompile(`^[-:]+$`)
	orderedItemRegexp   = regexp.MustCompile(`^\d+\.\s`)
)

// Heading prefixes, longest first so that "### " is never taken for "## ".
var headingPrefixes = []struct {
	prefix string
	level  int
}{
	{"### ", 4},
	{"## ", 3},
	{"# ", 2},
}

// Scan splits text into blocks. Consecutive table rows are merged into one
// Table and consecutive list items of the same kind into one List; blank
// lines end the current table or list and produce nothing.
func Scan(text string, opts Options) []Block {
	s := scanner{opts: opts}
	for _, line := range strings.Split(text, "\n") {
		s.line(strings.TrimSuffix(line, "\r"))
	}
	s.flush()
	return s.blocks
}

type scanner struct {
	opts   Options
	blocks []Block

	// At most one of table and list is non-nil.
	table *Table
	list  *List
}

func (s *scanner) line(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		s.flush()
		return
	}

	if s.opts.HorizontalRules && trimmed == "---" {
		s.emit(Rule{})
		return
	}

	for _, h := range headingPrefixes {
		if strings.HasPrefix(line, h.prefix) {
			if text := strings.TrimSpace(line[len(h.prefix):]); text != "" {
				s.emit(Heading{Level: h.level, Text: text})
				return
			}
			break
		}
	}

	if cells, ok := tableCells(trimmed); ok {
		if s.table == nil {
			s.flush()
			s.table = &Table{}
		}
		if !isSeparatorRow(cells) {
			s.table.Rows = append(s.table.Rows, TableRow{Cells: cells})
		}
		return
	}

	if text, ok := strings.CutPrefix(line, "- "); ok {
		if text = strings.TrimSpace(text); text != "" {
			s.item(false, text)
			return
		}
	}
	if s.opts.OrderedLists {
		if m := orderedItemRegexp.FindString(line); m != "" {
			if text := strings.TrimSpace(line[len(m):]); text != "" {
				s.item(true, text)
				return
			}
		}
	}

	s.emit(Paragraph{Text: trimmed})
}

func (s *scanner) item(ordered bool, text string) {
	if s.list == nil || s.list.Ordered != ordered {
		s.flush()
		s.list = &List{Ordered: ordered}
	}
	s.list.Items = append(s.list.Items, text)
}

// emit closes any open group and appends a standalone block.
func (s *scanner) emit(b Block) {
	s.flush()
	s.blocks = append(s.blocks, b)
}

func (s *scanner) flush() {
	if s.table != nil {
		// A table made only of separator rows has nothing to show.
		if len(s.table.Rows) > 0 {
			s.blocks = append(s.blocks, *s.table)
		}
		s.table = nil
	}
	if s.list != nil {
		s.blocks = append(s.blocks, *s.list)
		s.list = nil
	}
}

// tableCells returns the trimmed cells of a line of the form "|a|b|".
func tableCells(line string) ([]string, bool) {
	if len(line) < 3 || line[0] != '|' || line[len(line)-1] != '|' {
		return nil, false
	}
	cells := strings.Split(line[1:len(line)-1], "|")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells, true
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if !separatorCellRegexp.MatchString(c) {
			return false
		}
	}
	return true
}
