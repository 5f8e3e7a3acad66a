package protocol

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DesktopEntry renders an XDG desktop entry that routes scheme URIs to
// "<executable> run <uri>".
func DesktopEntry(opts Options, executable string) string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	fmt.Fprintf(&b, "Name=%s\n", opts.EffectiveDescription())
	fmt.Fprintf(&b, "Exec=%s run %%u\n", quoteExec(executable))
	b.WriteString("NoDisplay=true\n")
	b.WriteString("Terminal=false\n")
	fmt.Fprintf(&b, "MimeType=x-scheme-handler/%s;\n", opts.Name)
	return b.String()
}

// DesktopFileName returns the desktop entry file name for opts.
func DesktopFileName(opts Options) string {
	return opts.Name + "-handler.desktop"
}

// quoteExec quotes an Exec key argument per the freedesktop desktop entry rules when it
// contains reserved characters.
func quoteExec(arg string) string {
	if !strings.ContainsAny(arg, " \t\n\"'\\><~|&;$*?#()`") {
		return arg
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return `"` + r.Replace(arg) + `"`
}

// DesktopRegistrar writes desktop entries under Dir.
type DesktopRegistrar struct {
	// Dir is the applications directory, usually $XDG_DATA_HOME/applications.
	Dir string
}

// Register writes the desktop entry. Updating the MIME database is left to
// the desktop environment, which rescans the directory.
func (r DesktopRegistrar) Register(opts Options, executable string) error {
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create applications directory: %w", err)
	}

	path := filepath.Join(r.Dir, DesktopFileName(opts))
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(DesktopEntry(opts, executable)), 0644); err != nil {
		return fmt.Errorf("failed to write desktop entry: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to install desktop entry: %w", err)
	}
	return nil
}
