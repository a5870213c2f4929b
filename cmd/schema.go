package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "List the collection domains and their fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := initRegistry()
		if err != nil {
			return err
		}

		for _, domain := range registry.Domains() {
			fmt.Printf("%s:\n", domain)
			for _, key := range registry.Keys(domain) {
				fmt.Printf("  %s", key)
				if desc, ok := registry.Describe(domain, key); ok && desc != "" {
					fmt.Printf(": %s", desc)
				}
				fmt.Println()
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
