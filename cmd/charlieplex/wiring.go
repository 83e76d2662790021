package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-charlieplex/internal/wiring"
)

func newWiringCmd() *cobra.Command {
	var grid bool
	cmd := &cobra.Command{
		Use:   "wiring",
		Short: "Print the LED wiring table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := wiring.Table()
			if err := wiring.Validate(t[:]); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if grid {
				for y := 0; y < wiring.Rows; y++ {
					for x := 0; x < wiring.Cols; x++ {
						if x > 0 {
							fmt.Fprint(out, " ")
						}
						fmt.Fprintf(out, "%5s", t[wiring.Index(x, y)])
					}
					fmt.Fprintln(out)
				}
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LED\tX\tY\tANODE\tCATHODE")
			for i, e := range t {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\n", i, i%wiring.Cols, i/wiring.Cols, e.Anode, e.Cathode)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&grid, "grid", false, "print anode->cathode pairs laid out as the matrix")
	return cmd
}
