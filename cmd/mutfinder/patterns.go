// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/mutfinder/internal/extract"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Print the finder templates as YAML",
	Long: `Patterns prints the templates the finder would use, in the YAML layout
accepted by --patterns. With no --patterns file the built-in defaults are
printed, which makes a convenient starting point for a custom file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		templates := extract.DefaultTemplates()
		if path := loadConfig(cmd).Batch.Finder.PatternsFile; path != "" {
			loaded, err := extract.LoadTemplates(path)
			if err != nil {
				return err
			}
			// Compile to surface template errors before printing.
			if _, err := extract.NewFinder(loaded); err != nil {
				return err
			}
			templates = loaded
		}

		data, err := extract.MarshalTemplates(templates)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(os.Stdout, string(data))
		return err
	},
}

func init() {
	patternsCmd.Flags().String("patterns", "", "YAML template file to validate and print")

	rootCmd.AddCommand(patternsCmd)
}
