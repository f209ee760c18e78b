// Package presets generates logkeep.yaml configurations for known project layouts.
package presets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modoterra/logkeep/pkg/config"
	"github.com/modoterra/logkeep/pkg/registry"
)

// GenerateLaravel creates a configuration for a Laravel project at the given root.
func GenerateLaravel(root string) (*config.Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	// Verify it's a Laravel project
	if _, err := os.Stat(filepath.Join(absRoot, "artisan")); err != nil {
		return nil, fmt.Errorf("%s does not appear to be a Laravel project (no artisan file)", absRoot)
	}

	entries := []registry.Entry{{Name: "laravel", Path: "${root}/storage/logs/laravel.log"}}

	// Other application logs (daily channels, custom channels)
	matches, _ := filepath.Glob(filepath.Join(absRoot, "storage", "logs", "*.log"))
	sort.Strings(matches)
	for _, m := range matches {
		base := filepath.Base(m)
		if base == "laravel.log" {
			continue
		}
		entries = append(entries, registry.Entry{
			Name: strings.TrimSuffix(base, ".log"),
			Path: "${root}/storage/logs/" + base,
		})
	}

	// Web server error logs
	for _, ws := range []struct{ name, path string }{
		{"nginx-error", "/var/log/nginx/error.log"},
		{"apache-error", "/var/log/apache2/error.log"},
	} {
		if fileExists(ws.path) {
			entries = append(entries, registry.Entry{Name: ws.name, Path: ws.path})
		}
	}

	// PHP-FPM, newest version first
	for _, ver := range []string{"8.4", "8.3", "8.2", "8.1", "8.0", "7.4"} {
		p := fmt.Sprintf("/var/log/php%s-fpm.log", ver)
		if fileExists(p) {
			entries = append(entries, registry.Entry{Name: "php-fpm", Path: p})
			break
		}
	}

	logPaths, err := json.Marshal(registry.New(entries...))
	if err != nil {
		return nil, fmt.Errorf("encode log paths: %w", err)
	}

	c := config.Default()
	c.Root = absRoot
	c.Socket = filepath.Join(os.TempDir(), "logkeep-"+filepath.Base(absRoot)+".sock")
	c.LogPaths = string(logPaths)
	c.Diagnostics.HostLog = "laravel"
	c.Diagnostics.SystemLog = ""
	for _, e := range entries {
		if strings.HasSuffix(e.Name, "-error") {
			c.Diagnostics.SystemLog = e.Name
			break
		}
	}
	return c, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
