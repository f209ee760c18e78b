package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/modoterra/logkeep/internal/buildinfo"
	"github.com/modoterra/logkeep/pkg/config"
	"github.com/modoterra/logkeep/pkg/daemon/service"
	"github.com/modoterra/logkeep/pkg/transport/uds"
	tuimodel "github.com/modoterra/logkeep/pkg/tui/model"
)

var (
	socketPath string
	configPath string
	directFlag bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "logkeep",
	Short:        "View, trim and clear application log files",
	Long:         "logkeep is a TUI + daemon that keeps configured log files short: view them, trim them to their last lines, or clear them.",
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "daemon socket path (default from config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFile, "path to logkeep.yaml")
	rootCmd.PersistentFlags().BoolVar(&directFlag, "direct", false, "run operations in-process instead of through the daemon")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(serviceCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(trimCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(reloadCmd)
}

func loadConfig() (*config.Config, error) {
	return config.LoadWithEnv(configPath)
}

// resolveSocket picks --socket, then the configured socket, then the default.
func resolveSocket() string {
	if socketPath != "" {
		return socketPath
	}
	if cfg, err := loadConfig(); err == nil {
		return cfg.Socket
	}
	return config.Default().Socket
}

// --- Root: TUI ---

func runTUI(_ *cobra.Command, _ []string) error {
	sock := resolveSocket()
	ensureDaemon(sock)
	app := tuimodel.New(sock)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func daemonArgs() []string {
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return []string{"--config", configPath}
}

func ensureDaemon(sock string) {
	if _, err := os.Stat(sock); err == nil {
		return
	}
	cmd := exec.Command("logkeepd", daemonArgs()...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Start()
	for i := 0; i < 30; i++ {
		if _, err := os.Stat(sock); err == nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	fmt.Fprintln(os.Stderr, "warning: could not start daemon, continuing anyway")
}

func dialDaemon() (*uds.Client, error) {
	sock := resolveSocket()
	client, err := uds.Dial(sock)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to daemon at %s (use --direct to run without it): %w", sock, err)
	}
	return client, nil
}

// --- Ping ---

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check if daemon is running",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := dialDaemon()
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		var pong uds.PingResponse
		if err := client.Call(ctx, uds.MethodPing, nil, &pong); err != nil {
			return err
		}
		if pong.Pong {
			fmt.Fprintln(cmd.OutOrStdout(), "pong ✓")
		}
		return nil
	},
}

// --- Version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String("logkeep"))
	},
}

// --- Daemon ---

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start daemon in foreground (for debugging)",
	Long:  "Normally the TUI auto-spawns the daemon. Use this to run it manually.",
	RunE: func(_ *cobra.Command, _ []string) error {
		cmd := exec.Command("logkeepd", daemonArgs()...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd.Run()
	},
}

// --- Service ---

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the logkeepd systemd user service",
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and start the systemd user service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var cfgArg string
		if len(daemonArgs()) > 0 {
			cfgArg = configPath
		}
		if err := service.Install(cfgArg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "logkeepd service installed")
		return nil
	},
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the systemd user service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := service.Uninstall(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "logkeepd service removed")
		return nil
	},
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon socket and service state",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), service.Status(resolveSocket()))
	},
}

func init() {
	serviceCmd.AddCommand(serviceInstallCmd)
	serviceCmd.AddCommand(serviceUninstallCmd)
	serviceCmd.AddCommand(serviceStatusCmd)
}
