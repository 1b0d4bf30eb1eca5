package cli

import (
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
)

func TestRenderTableRightAlignsCounts(t *testing.T) {
	out := renderTable(
		table.Row{"Pipeline", "Stages"},
		[]table.Row{{"p1", 2}, {"release", 12}},
		2,
	)

	var p1Line string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "p1") {
			p1Line = line
		}
	}
	if p1Line == "" {
		t.Fatalf("row p1 missing:\n%s", out)
	}
	// "2" is padded on the left to the width of "12"
	if !strings.Contains(p1Line, "  2 ") {
		t.Errorf("expected right-aligned count in %q", p1Line)
	}
}

func TestRenderTableEmptyHeader(t *testing.T) {
	if out := renderTable(nil, []table.Row{{"x"}}); out != "" {
		t.Errorf("renderTable with no header = %q, want empty", out)
	}
}
