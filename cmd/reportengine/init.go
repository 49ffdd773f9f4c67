package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reportengine/internal/catalog"
	"reportengine/internal/config"
)

func initCmd() *cobra.Command {
	var projectName string
	var dsn string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file and the default prompt styles",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(cmd, projectName, dsn, force)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Database DSN (sqlite:// or postgres://)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}

func runInit(cmd *cobra.Command, projectName, dsn string, force bool) error {
	cfg := config.Default()
	cfg.Project = projectName
	if dsn != "" {
		cfg.Database.DSN = dsn
	}

	path := configPath
	if path == "" {
		path = config.FileName
	}
	if err := config.Write(path, cfg, force); err != nil {
		return err
	}
	written, err := catalog.WriteDefaults(cfg.Prompts.Dir, force)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n", path)
	for _, file := range written {
		fmt.Fprintf(out, "Wrote %s\n", file)
	}
	return nil
}
