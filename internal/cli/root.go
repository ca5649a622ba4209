package cli

import "github.com/spf13/cobra"

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "schemaforge",
		Short:   "schemaforge - generate models and API interfaces from OpenAPI schemas",
		Version: "1.0.0",

		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(GenerateCommand())

	return root
}
