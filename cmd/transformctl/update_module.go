package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	updateModuleComment string
	updateModuleAuthor  string
)

var updateModuleCmd = &cobra.Command{
	Use:   "update-module <name> <config-file>",
	Short: "Replace one module's config from a YAML or JSON file, storing a new version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		facade, err := buildFacade(ctx)
		if err != nil {
			return err
		}

		cfg, err := readConfigFile(args[1])
		if err != nil {
			return err
		}

		meta, err := facade.UpdateModule(ctx, args[0], cfg, updateModuleComment, updateModuleAuthor)
		if err != nil {
			return err
		}
		fmt.Printf("stored %s (hash %s)\n", meta.ID, meta.Hash)
		for _, c := range meta.Changes {
			fmt.Printf("changed\t%s\n", c)
		}
		return nil
	},
}

func init() {
	updateModuleCmd.Flags().StringVar(&updateModuleComment, "comment", "", "Change comment (required)")
	updateModuleCmd.Flags().StringVar(&updateModuleAuthor, "author", "", "Change author (defaults to \"api\")")
	_ = updateModuleCmd.MarkFlagRequired("comment")
}

// readConfigFile loads a module config tree from a YAML or JSON file,
// normalized through JSON so leaf types match what a KV read produces.
func readConfigFile(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var tree map[string]any
	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(b, &tree); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return tree, nil
	}

	if err := yaml.Unmarshal(b, &tree); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	jsonBytes, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}
	var normalized map[string]any
	if err := json.Unmarshal(jsonBytes, &normalized); err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}
	return normalized, nil
}
