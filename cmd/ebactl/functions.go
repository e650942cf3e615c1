package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/heng-zhai/MSc-project/internal/optimization/benchmarks"
)

func newFunctionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the benchmark functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDIMENSIONS\tLOWER\tUPPER\tMINIMUM")
			for _, info := range benchmarks.Available() {
				dims := "any"
				n := 2
				if info.FixedDimensions > 0 {
					dims = fmt.Sprint(info.FixedDimensions)
					n = info.FixedDimensions
				}

				lower, upper := "-", "-"
				if lo, hi, err := a.catalog.SuggestedBounds(info.Name, n); err == nil {
					lower, upper = fmt.Sprint(lo[0]), fmt.Sprint(hi[0])
				}

				minimum := "-"
				if fn, err := benchmarks.New(info.Name, n); err == nil {
					if opt, err := a.catalog.Minimum(fn, false); err == nil {
						minimum = fmt.Sprintf("%.6g", opt.Value)
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", info.Name, dims, lower, upper, minimum)
			}
			return w.Flush()
		},
	}
}
