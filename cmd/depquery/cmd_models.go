package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/depbench/depquery/internal/llm"
)

func newModelsCommand() *cobra.Command {
	var modelsFile string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models available to 'run'",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := llm.BuiltinRegistry()
			if modelsFile != "" {
				var err error
				registry, err = llm.LoadRegistryFile(modelsFile)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-20s %-10s %s\n", "NAME", "PROVIDER", "MODEL ID")
			for _, name := range registry.Names() {
				spec := registry[name]
				fmt.Fprintf(out, "%-20s %-10s %s\n", name, spec.Provider, spec.ModelID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modelsFile, "models-file", "", "YAML file overriding the builtin model registry")

	return cmd
}
