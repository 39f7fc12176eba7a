package shortcut

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
)

const desktopEntryTemplate = `[Desktop Entry]
Name=%s
Type=Application
Path=%s
Comment=%s
Terminal=true
Icon=
Exec=%s
`

// FreeDesktop writes .desktop entries on the user's desktop and in the
// applications menu.
type FreeDesktop struct {
	// HomeDir overrides the home directory lookup when set.
	HomeDir string
}

func (f *FreeDesktop) Create(s Shortcut) ([]string, error) {
	home, err := f.home()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	content := fmt.Sprintf(desktopEntryTemplate, s.Title, s.WorkingDir, s.Description, quoteExec(s.Target))
	name := s.Name + ".desktop"

	var created []string
	for _, dir := range []string{DesktopDir(home), filepath.Join(home, ".local", "share", "applications")} {
		path := filepath.Join(dir, name)
		if err := writeDesktopEntry(path, content); err != nil {
			return created, err
		}
		log.Infof("shortcut created in %s", path)
		created = append(created, path)
	}
	return created, nil
}

// quoteExec quotes an Exec argument per the Desktop Entry specification.
// Reserved characters are backslash-escaped inside the quotes and '%' is
// doubled so it is not read as a field code. Backslashes are then doubled
// once more because Exec is itself a string value.
func quoteExec(arg string) string {
	var b strings.Builder
	for _, r := range arg {
		switch r {
		case '"', '`', '$', '\\':
			b.WriteRune('\\')
		case '%':
			b.WriteRune('%')
		}
		b.WriteRune(r)
	}
	return `"` + strings.ReplaceAll(b.String(), `\`, `\\`) + `"`
}

func (f *FreeDesktop) home() (string, error) {
	if f.HomeDir != "" {
		return f.HomeDir, nil
	}
	return HomeDir()
}

func writeDesktopEntry(path, content string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove existing shortcut %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return fmt.Errorf("write shortcut %s: %w", path, err)
	}
	return os.Chmod(path, 0o755)
}

// HomeDir returns the home directory of the invoking user, which is the
// SUDO_USER one when the installer runs under sudo.
func HomeDir() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil && u.HomeDir != "" {
			return filepath.Clean(u.HomeDir), nil
		}
		log.Debugf("failed to resolve home directory of sudo user %s", sudoUser)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Clean(home), nil
}

// DesktopDir returns the XDG desktop directory of home, defaulting to
// home/Desktop when user-dirs.dirs does not define one.
func DesktopDir(home string) string {
	desktop := filepath.Join(home, "Desktop")

	f, err := os.Open(filepath.Join(home, ".config", "user-dirs.dirs"))
	if err != nil {
		return desktop
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) != "XDG_DESKTOP_DIR" {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		value = strings.Replace(value, "$HOME", home, 1)
		if value != "" {
			desktop = filepath.Clean(value)
		}
	}
	return desktop
}
