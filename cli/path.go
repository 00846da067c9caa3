package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ardnew/recomp/pkg"
)

// baseConfig is the base name of the configuration files.
const baseConfig = "config"

// defaultDirMode is the permission mode for created directories.
var defaultDirMode os.FileMode = 0o700

// prefixRule rewrites an executable base name.
type prefixRule struct {
	match   *regexp.Regexp
	replace string
}

var prefixRules = []prefixRule{
	{regexp.MustCompile(`^__debug_bin\d*$`), pkg.Name}, // dlv default output
	{regexp.MustCompile(`^\.+`), ""},
}

// basePrefix returns the directory name used under the user configuration
// and cache directories: the executable's base name without extension,
// rewritten by [prefixRules].
var basePrefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		if exe, err := os.Executable(); err == nil {
			id = exe
		}

		id = filepath.Base(id)
		id = strings.TrimSuffix(id, filepath.Ext(id))

		for _, rule := range prefixRules {
			id = rule.match.ReplaceAllString(id, rule.replace)
		}

		if id == "" {
			return pkg.Name
		}

		return id
	},
)

// userDir returns a function reporting the per-user directory found by
// base, joined with [basePrefix]. If base fails, fallback is taken relative
// to the home directory, and then the working directory.
func userDir(base func() (string, error), fallback string) func() string {
	return sync.OnceValue(
		func() string {
			dir, err := base()
			if err != nil {
				if home, err := os.UserHomeDir(); err == nil {
					dir = filepath.Join(home, fallback)
				} else if dir, err = os.Getwd(); err != nil {
					dir = "."
				}
			}

			return filepath.Join(dir, basePrefix())
		},
	)
}

var (
	// configDir returns the configuration directory path.
	configDir = userDir(os.UserConfigDir, ".config")

	// cacheDir returns the directory path used for transient files such as
	// profiles.
	cacheDir = userDir(os.UserCacheDir, ".cache")
)

// configPath joins the configuration directory with elem.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
