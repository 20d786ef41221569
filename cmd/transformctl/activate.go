package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var activateCmd = &cobra.Command{
	Use:   "activate <version-id>",
	Short: "Activate a stored config version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		facade, err := buildFacade(ctx)
		if err != nil {
			return err
		}
		if err := facade.ActivateVersion(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("activated %s\n", args[0])
		return nil
	},
}
