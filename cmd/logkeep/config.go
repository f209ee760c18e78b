package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/modoterra/logkeep/pkg/config"
	"github.com/modoterra/logkeep/pkg/config/presets"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage logkeep.yaml",
}

var (
	configInitRoot   string
	configInitOutput string
	configInitForce  bool
)

var configInitCmd = &cobra.Command{
	Use:   "init [preset]",
	Short: "Generate a logkeep.yaml configuration",
	Long:  "Available presets: default, laravel",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		preset := "default"
		if len(args) > 0 {
			preset = args[0]
		}

		var c *config.Config
		switch preset {
		case "default":
			c = config.Default()
		case "laravel":
			var err error
			if c, err = presets.GenerateLaravel(configInitRoot); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown preset: %s (available: default, laravel)", preset)
		}

		path := configInitOutput
		if !configInitForce {
			if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}
		if err := config.Save(c, path); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		entries := c.Registry().All()
		fmt.Fprintf(out, "Generated %s with %d logs\n", path, len(entries))
		for _, e := range entries {
			fmt.Fprintf(out, "  %s (%s)\n", e.Name, e.Path)
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitRoot, "root", ".", "project root directory")
	configInitCmd.Flags().StringVar(&configInitOutput, "output", config.DefaultFile, "output file path")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a logkeep.yaml configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) > 0 {
			path = args[0]
		}

		c, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := config.ApplyEnv(c); err != nil {
			return err
		}

		errs := config.Validate(c)
		if len(errs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d logs)\n", path, c.Registry().Len())
			return nil
		}

		stderr := cmd.ErrOrStderr()
		for _, e := range errs {
			fmt.Fprintf(stderr, "  • %s\n", e)
		}
		return fmt.Errorf("%s: %d error(s)", path, len(errs))
	},
}
