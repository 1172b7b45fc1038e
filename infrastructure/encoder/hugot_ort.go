//go:build ORT

package encoder

import (
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
)

func newHugotSession(libDir string) (*hugot.Session, error) {
	opts := []options.WithOption{}
	if dir := resolveORTLibDir(libDir); dir != "" {
		opts = append(opts, options.WithOnnxLibraryPath(dir))
	}
	return hugot.NewORTSession(opts...)
}

// resolveORTLibDir prefers the configured directory, then lib/ next to the
// executable, then lib/ under the working directory. Empty lets hugot use
// platform defaults.
func resolveORTLibDir(configured string) string {
	if configured != "" {
		return configured
	}

	candidates := []string{}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "lib"))
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, "lib"))
	}

	for _, candidate := range candidates {
		if info, statErr := os.Stat(candidate); statErr == nil && info.IsDir() {
			return candidate
		}
	}
	return ""
}
