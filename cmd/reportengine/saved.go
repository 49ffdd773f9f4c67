package main

import "github.com/spf13/cobra"

func savedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Manage saved scenarios",
	}
	cmd.AddCommand(savedListCmd())
	cmd.AddCommand(savedDeleteCmd())
	return cmd
}
