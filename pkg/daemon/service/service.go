// Package service manages the logkeepd systemd user service unit.
package service

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"
)

const unitName = "logkeepd.service"

// Options returns the unit options for running binaryPath with configPath.
// An empty configPath leaves the daemon on its default lookup.
func Options(binaryPath, configPath string) []*unit.UnitOption {
	execStart := binaryPath
	if configPath != "" {
		execStart += " --config " + configPath
	}
	return []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", "logkeep daemon: log view, trim and clear over a local socket"),
		unit.NewUnitOption("Unit", "Documentation", "https://github.com/modoterra/logkeep"),
		unit.NewUnitOption("Service", "Type", "simple"),
		unit.NewUnitOption("Service", "ExecStart", execStart),
		unit.NewUnitOption("Service", "Restart", "on-failure"),
		unit.NewUnitOption("Service", "RestartSec", "5"),
		unit.NewUnitOption("Install", "WantedBy", "default.target"),
	}
}

// UnitContents returns the systemd unit file contents.
func UnitContents(binaryPath, configPath string) (string, error) {
	data, err := io.ReadAll(unit.Serialize(Options(binaryPath, configPath)))
	if err != nil {
		return "", fmt.Errorf("serialize unit: %w", err)
	}
	return string(data), nil
}

// ParseUnit reads back the options of a unit file.
func ParseUnit(r io.Reader) ([]*unit.UnitOption, error) {
	opts, err := unit.Deserialize(r)
	if err != nil {
		return nil, fmt.Errorf("parse unit: %w", err)
	}
	return opts, nil
}

// UnitPath returns the path to the systemd user unit file.
func UnitPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	return filepath.Join(configDir, "systemd", "user", unitName), nil
}

// Install writes the unit file, reloads systemd, and enables+starts the service.
func Install(configPath string) error {
	binaryPath, err := exec.LookPath("logkeepd")
	if err != nil {
		return fmt.Errorf("logkeepd not found in PATH: %w", err)
	}
	binaryPath, err = filepath.Abs(binaryPath)
	if err != nil {
		return fmt.Errorf("cannot resolve logkeepd path: %w", err)
	}
	if configPath != "" {
		if configPath, err = filepath.Abs(configPath); err != nil {
			return fmt.Errorf("cannot resolve config path: %w", err)
		}
	}

	unitPath, err := UnitPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(unitPath), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	contents, err := UnitContents(binaryPath, configPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(unitPath, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("cannot write unit file: %w", err)
	}

	if err := systemctl("daemon-reload"); err != nil {
		return err
	}
	return systemctl("enable", "--now", unitName)
}

// Uninstall stops+disables the service, removes the unit file, and reloads systemd.
func Uninstall() error {
	// Best-effort stop and disable; ignore errors if not running.
	_ = systemctl("stop", unitName)
	_ = systemctl("disable", unitName)

	unitPath, err := UnitPath()
	if err != nil {
		return err
	}

	if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove unit file: %w", err)
	}

	return systemctl("daemon-reload")
}

// Status returns a human-readable status string.
func Status(socketPath string) string {
	var lines []string

	if _, err := os.Stat(socketPath); err == nil {
		lines = append(lines, "socket: active ("+socketPath+")")
	} else {
		lines = append(lines, "socket: inactive ("+socketPath+")")
	}

	unitPath, err := UnitPath()
	if err == nil {
		if f, openErr := os.Open(unitPath); openErr == nil {
			out, runErr := exec.Command("systemctl", "--user", "is-active", unitName).Output()
			state := strings.TrimSpace(string(out))
			if runErr != nil && state == "" {
				state = "unknown"
			}
			lines = append(lines, "systemd user service: "+state)
			if opts, perr := ParseUnit(f); perr == nil {
				for _, o := range opts {
					if o.Section == "Service" && o.Name == "ExecStart" {
						lines = append(lines, "exec: "+o.Value)
					}
				}
			}
			f.Close()
		} else {
			lines = append(lines, "systemd user service: not installed")
		}
	}

	return strings.Join(lines, "\n")
}

func systemctl(args ...string) error {
	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("systemctl --user %s: %w", strings.Join(args, " "), err)
	}
	return nil
}
