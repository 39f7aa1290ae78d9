package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the local catalog cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Fetch the remote catalog if the cache is empty",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, a.close()) }()

			for items, ferr := range a.catalog.FetchCatalog(ctx) {
				if ferr != nil {
					return ferr
				}
				if len(items) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "cache already has %d products\n", len(items))
					return nil
				}
			}

			categories, err := a.catalog.Categories(ctx)
			if err != nil {
				return err
			}
			all, err := a.catalog.ListProducts(ctx, "")
			if err != nil {
				return err
			}
			//先頭の"All"は数えない
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d products in %d categories\n", len(all), len(categories)-1)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Clear the local catalog cache",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, a.close()) }()

			if err := a.catalog.ResetCatalog(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "catalog cache cleared")
			return nil
		},
	})

	return cmd
}
