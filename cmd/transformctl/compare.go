package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <version-a> <version-b>",
	Short: "Show the dot-path differences between two config versions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		facade, err := buildFacade(ctx)
		if err != nil {
			return err
		}

		cs, err := facade.CompareVersions(ctx, args[0], args[1])
		if err != nil {
			return err
		}

		for _, p := range cs.Added {
			fmt.Printf("added\t%s\n", p)
		}
		for _, p := range cs.Removed {
			fmt.Printf("removed\t%s\n", p)
		}
		for _, p := range cs.Modified {
			fmt.Printf("modified\t%s\n", p)
		}
		fmt.Printf("%d added, %d removed, %d modified, %d unchanged\n",
			len(cs.Added), len(cs.Removed), len(cs.Modified), len(cs.Unchanged))
		return nil
	},
}
