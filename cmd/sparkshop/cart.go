package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect the cart",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print cart lines and the total",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, a.close()) }()

			lines, err := a.cart.Lines(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tPRICE\tQTY\tSTOCK\tSUBTOTAL")
			for _, l := range lines {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n",
					l.ID, l.Title, l.Price.StringFixed(2), l.Quantity, l.Stock, l.Subtotal().StringFixed(2))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			s, err := a.cart.Summary(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d lines, total %s\n", s.Count, s.Total.StringFixed(2))
			return nil
		},
	})

	return cmd
}
