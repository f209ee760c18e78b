package maintenance

import (
	"os"

	"github.com/modoterra/logkeep/pkg/core"
	"github.com/modoterra/logkeep/pkg/registry"
)

// Status stats every configured log, in configuration order.
func (s *Service) Status() []core.LogFile {
	return Stat(s.reg)
}

// Stat returns a status snapshot for each entry of reg.
func Stat(reg *registry.Registry) []core.LogFile {
	entries := reg.All()
	files := make([]core.LogFile, 0, len(entries))
	for _, e := range entries {
		lf := core.LogFile{Name: e.Name, Path: e.Path}
		if e.Path != "" {
			info, err := os.Stat(e.Path)
			switch {
			case err == nil:
				lf.Exists = true
				lf.SizeBytes = info.Size()
				lf.ModUnixMs = info.ModTime().UnixMilli()
			case !os.IsNotExist(err):
				lf.Error = err.Error()
			}
		}
		files = append(files, lf)
	}
	return files
}
