package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listVersionsLimit int

var listVersionsCmd = &cobra.Command{
	Use:   "list-versions",
	Short: "List stored config versions, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		facade, err := buildFacade(ctx)
		if err != nil {
			return err
		}

		versions, _, _, err := facade.ListVersions(ctx, listVersionsLimit, "")
		if err != nil {
			return err
		}
		for _, v := range versions {
			fmt.Printf("%s\t%s\t%s\t%s\n", v.ID, v.Timestamp.Format("2006-01-02T15:04:05Z07:00"), v.Author, v.Comment)
		}
		return nil
	},
}

func init() {
	listVersionsCmd.Flags().IntVar(&listVersionsLimit, "limit", 20, "Maximum number of versions to print")
}
