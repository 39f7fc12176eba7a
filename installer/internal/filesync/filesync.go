package filesync

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/installerr"
	"github.com/antaressimulatorteam/antares-web-installer/util"
)

// Outcome is what happened to one top-level entry of the source directory.
type Outcome int

const (
	Copied Outcome = iota
	Excluded
	// SkippedSelf marks the installer's own running executable.
	SkippedSelf
)

func (o Outcome) String() string {
	switch o {
	case Copied:
		return "copied"
	case Excluded:
		return "excluded"
	case SkippedSelf:
		return "skipped (running installer)"
	default:
		return "unknown"
	}
}

// Result describes one top-level entry processed by CopyTree.
type Result struct {
	Name    string
	Outcome Outcome
}

// ProgressFunc receives the percentage of top-level entries processed.
type ProgressFunc func(percent float64)

// Syncer copies distribution files into an installation directory.
type Syncer struct {
	// self is the path of the running installer executable, resolved once.
	self string
}

// New returns a syncer that refuses to overwrite the running executable.
func New() *Syncer {
	self, err := os.Executable()
	if err != nil {
		log.Debugf("failed to resolve installer executable: %v", err)
		return &Syncer{}
	}
	if resolved, err := filepath.EvalSymlinks(self); err == nil {
		self = resolved
	}
	return &Syncer{self: self}
}

// CopyTree merges the immediate children of src into dst, skipping the names
// in excluded. Files are overwritten; files already present in dst and absent
// from src are kept. The first failure aborts the copy without rolling back
// the entries already copied.
func (s *Syncer) CopyTree(ctx context.Context, src, dst string, excluded Set, progress ProgressFunc) ([]Result, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, installerr.New(installerr.KindCopy, err, "cannot read source directory %s", src)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, copyError(".", dst, err)
	}

	results := make([]Result, 0, len(entries))
	for index, entry := range entries {
		if err := ctx.Err(); err != nil {
			return results, installerr.Interrupted(err)
		}

		name := entry.Name()
		result := Result{Name: name, Outcome: Copied}

		switch {
		case excluded.Contains(name):
			result.Outcome = Excluded
			log.Debugf("skipping excluded entry '%s'", name)
		default:
			log.Infof("copying '%s'", filepath.Join(src, name))
			outcome, err := s.copyEntry(ctx, filepath.Join(src, name), filepath.Join(dst, name))
			if err != nil {
				return results, copyFailure(ctx, name, dst, err)
			}
			result.Outcome = outcome
		}

		results = append(results, result)
		if progress != nil {
			progress(float64(index+1) * 100 / float64(len(entries)))
		}
	}
	return results, nil
}

// CopyAll copies the whole src tree into dst verbatim, exclusions ignored.
func (s *Syncer) CopyAll(ctx context.Context, src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return copyError(".", dst, err)
	}
	if _, err := s.copyDir(ctx, src, dst); err != nil {
		rel := "."
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			if r, relErr := filepath.Rel(src, pathErr.Path); relErr == nil && !filepath.IsAbs(r) {
				rel = r
			}
		}
		return copyFailure(ctx, rel, dst, err)
	}
	return nil
}

func (s *Syncer) copyEntry(ctx context.Context, src, dst string) (Outcome, error) {
	info, err := os.Lstat(src)
	if err != nil {
		return Copied, err
	}

	switch {
	case info.IsDir():
		return s.copyDir(ctx, src, dst)
	case info.Mode()&fs.ModeSymlink != 0:
		return Copied, copySymlink(src, dst)
	default:
		return s.copyFile(src, dst)
	}
}

func (s *Syncer) copyDir(ctx context.Context, src, dst string) (Outcome, error) {
	info, err := os.Stat(src)
	if err != nil {
		return Copied, err
	}
	if err := os.MkdirAll(dst, info.Mode().Perm()|0o700); err != nil {
		return Copied, err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return Copied, err
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return Copied, err
		}
		if _, err := s.copyEntry(ctx, filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
			return Copied, err
		}
	}
	return Copied, nil
}

func (s *Syncer) copyFile(src, dst string) (Outcome, error) {
	if s.isSelf(src, dst) {
		log.Infof("'%s' is the running installer, skipping", dst)
		return SkippedSelf, nil
	}
	return Copied, util.CopyFile(src, dst)
}

// isSelf reports whether dst is the running installer or the same file as src.
func (s *Syncer) isSelf(src, dst string) bool {
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return false
	}
	if srcInfo, err := os.Stat(src); err == nil && os.SameFile(srcInfo, dstInfo) {
		return true
	}
	if s.self == "" {
		return false
	}
	selfInfo, err := os.Stat(s.self)
	return err == nil && os.SameFile(selfInfo, dstInfo)
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Symlink(target, dst)
}

// copyFailure reports an interrupt as such, whatever depth it was caught at.
func copyFailure(ctx context.Context, rel, dst string, err error) error {
	if cause := ctx.Err(); cause != nil {
		return installerr.Interrupted(cause)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return installerr.Interrupted(err)
	}
	return copyError(rel, dst, err)
}

func copyError(rel, dst string, err error) error {
	rel = filepath.ToSlash(rel)
	if errors.Is(err, fs.ErrPermission) {
		return installerr.New(installerr.KindCopy, err, "cannot write '%s' in %s: permission denied", rel, dst)
	}
	return installerr.New(installerr.KindCopy, err, "cannot write '%s' in %s: %v", rel, dst, err)
}
