package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/inodb/vcfnp/internal/schema"
)

// WriteSchema prints one line per column descriptor, aligned for a terminal.
func WriteSchema(w io.Writer, columns []schema.Descriptor) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tARITY\tDECLARED\tMISSING\tDESCRIPTION")
	for _, d := range columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Name, d.Type, d.Arity, d.Declared, d.Missing, d.Description)
	}
	return tw.Flush()
}
