// kestrel_registry prints the populated executor registry: per operation kind,
// the registered implementations in priority order, plus the backend
// capability tables. A quick way to see which kernel would win a selection and
// which backend is missing an operation.
package main

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/kestrel-ml/kestrel/backends/reference"
	"github.com/kestrel-ml/kestrel/executors"
)

var flagCapabilities = flag.Bool("capabilities", false,
	"Also print per-backend capability tables (operations and dtypes).")

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)

	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)

	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

func newPlainTable(withHeader bool) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if withHeader && row == 1 {
				s = headerRowStyle
				return
			}
			if row%2 == 0 {
				s = oddRowStyle
			} else {
				s = evenRowStyle
			}
			if col == 0 {
				s = s.Align(lipgloss.Right)
			} else {
				s = s.Align(lipgloss.Left)
			}
			return
		})
}

func main() {
	flag.Parse()

	registry := executors.NewRegistry()
	reference.Register(registry)

	fmt.Println(titleStyle.Render("Executor Registry"))
	table := newPlainTable(true)
	table.Row("Priority", "Operation", "Name", "Type", "Shape Tolerance")
	total := 0
	for _, op := range registry.Operations() {
		priority := 0
		for impl := range registry.CandidatesFor(op) {
			table.Row(strconv.Itoa(priority), op.String(), impl.Name(),
				impl.Type().String(), impl.ShapeTolerance().String())
			priority++
			total++
		}
	}
	fmt.Println(table.Render())
	fmt.Printf("%s registered implementations across %s operations\n",
		humanize.Comma(int64(total)), humanize.Comma(int64(len(registry.Operations()))))

	if *flagCapabilities {
		printCapabilities(reference.BackendName, reference.Capabilities)
	}
}

func printCapabilities(backend string, capabilities executors.Capabilities) {
	fmt.Println(titleStyle.Render("Capabilities: " + backend))
	table := newPlainTable(true)
	table.Row("Kind", "Supported")
	for op, ok := range capabilities.Operations {
		if ok {
			table.Row("operation", op.String())
		}
	}
	for dtype, ok := range capabilities.DTypes {
		if ok {
			table.Row("dtype", dtype.String())
		}
	}
	fmt.Println(table.Render())
}
