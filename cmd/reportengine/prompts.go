package main

import "github.com/spf13/cobra"

func promptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Manage prompt styles",
	}
	cmd.AddCommand(promptsListCmd())
	cmd.AddCommand(promptsAddCmd())
	cmd.AddCommand(promptsDeleteCmd())
	cmd.AddCommand(promptsSyncCmd())
	return cmd
}
