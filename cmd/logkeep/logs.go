package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/modoterra/logkeep/pkg/core"
	"github.com/modoterra/logkeep/pkg/maintenance"
	"github.com/modoterra/logkeep/pkg/transport/uds"
)

const opTimeout = 30 * time.Second

// withBackend opens a backend, runs fn and closes it.
func withBackend(fn func(ctx context.Context, b backend) error) error {
	b, err := openBackend()
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return fn(ctx, b)
}

// --- List ---

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured logs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackend(func(ctx context.Context, b backend) error {
			logs, err := b.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if listJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(logs)
			}

			if len(logs) == 0 {
				fmt.Fprintln(out, "no logs configured")
				return nil
			}

			fmt.Fprintf(out, "%-20s %-7s %10s %s\n", "NAME", "EXISTS", "SIZE", "PATH")
			for _, lf := range logs {
				exists := "no"
				if lf.Exists {
					exists = "yes"
				}
				fmt.Fprintf(out, "%-20s %-7s %10d %s\n", lf.Name, exists, lf.SizeBytes, lf.Path)
			}
			return nil
		})
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}

// --- View ---

var viewEscape bool

var viewCmd = &cobra.Command{
	Use:   "view <name>",
	Short: "Print a log's contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(func(ctx context.Context, b backend) error {
			v, err := b.View(ctx, args[0])
			if err != nil {
				return err
			}
			if !v.Found || v.Message != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), v.Message)
				return nil
			}
			content := v.Content
			if viewEscape {
				content = maintenance.Escape(content)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), content)
			return err
		})
	},
}

func init() {
	viewCmd.Flags().BoolVar(&viewEscape, "escape", false, "HTML-escape the output")
}

// --- Trim / Clear ---

var (
	trimAll  bool
	clearAll bool
)

var trimCmd = &cobra.Command{
	Use:   "trim [name]",
	Short: "Keep only the last lines of a log (or of every log with --all)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMaintenance(cmd, args, trimAll, backend.Trim, backend.TrimAll)
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear [name]",
	Short: "Empty a log (or every log with --all)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMaintenance(cmd, args, clearAll, backend.Clear, backend.ClearAll)
	},
}

func init() {
	trimCmd.Flags().BoolVar(&trimAll, "all", false, "trim every configured log")
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "clear every configured log")
}

func runMaintenance(
	cmd *cobra.Command,
	args []string,
	all bool,
	one func(backend, context.Context, string) (core.Outcome, error),
	bulk func(backend, context.Context) (core.Report, error),
) error {
	switch {
	case all && len(args) > 0:
		return errors.New("give a log name or --all, not both")
	case !all && len(args) == 0:
		return errors.New("a log name or --all is required")
	}

	return withBackend(func(ctx context.Context, b backend) error {
		out := cmd.OutOrStdout()
		if !all {
			o, err := one(b, ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, o.Summary)
			if !o.OK && !o.Skipped {
				return fmt.Errorf("%s failed", o.Name)
			}
			return nil
		}

		rep, err := bulk(b, ctx)
		if err != nil {
			return err
		}
		for _, o := range rep.Outcomes {
			fmt.Fprintln(out, o.Summary)
		}
		if failed := rep.Failed(); len(failed) > 0 {
			return fmt.Errorf("%d of %d logs failed (run %s)", len(failed), len(rep.Outcomes), rep.RunID)
		}
		return nil
	})
}

// --- Test ---

var testCmd = &cobra.Command{
	Use:   "test <name>",
	Short: "Write diagnostic messages to a diagnostic log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(func(ctx context.Context, b backend) error {
			if err := b.Test(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test messages sent for %s\n", args[0])
			return nil
		})
	},
}

// --- Reload ---

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Make the daemon re-read its configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if directFlag {
			return errors.New("reload applies to the daemon; --direct always reads the current config")
		}
		client, err := dialDaemon()
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var resp uds.ReloadConfigResponse
		if err := client.Call(ctx, uds.MethodReloadConfig, nil, &resp); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config reloaded (%d logs)\n", resp.Logs)
		for _, w := range resp.Warnings {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}
		return nil
	},
}
