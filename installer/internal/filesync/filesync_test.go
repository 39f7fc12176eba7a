package filesync

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antaressimulatorteam/antares-web-installer/installer/internal/installerr"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func outcomes(results []Result) map[string]Outcome {
	m := make(map[string]Outcome, len(results))
	for _, r := range results {
		m[r.Name] = r.Outcome
	}
	return m
}

func TestCopyTreeRoundTrip(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "target")

	writeFile(t, filepath.Join(src, "a.txt"), "a")
	writeFile(t, filepath.Join(src, "b", "c.txt"), "c")

	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(src, "a.txt"), mtime, mtime))

	var progress []float64
	results, err := New().CopyTree(context.Background(), src, dst, NewSet(), func(p float64) {
		progress = append(progress, p)
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]Outcome{"a.txt": Copied, "b": Copied}, outcomes(results))
	assert.Equal(t, "a", readFile(t, filepath.Join(dst, "a.txt")))
	assert.Equal(t, "c", readFile(t, filepath.Join(dst, "b", "c.txt")))
	assert.Equal(t, []float64{50, 100}, progress)

	info, err := os.Stat(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(mtime), "modification time should be preserved")
}

func TestCopyTreeOverwritesAndKeepsExtraFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeFile(t, filepath.Join(src, "a.txt"), "new")
	writeFile(t, filepath.Join(src, "b", "c.txt"), "c")
	writeFile(t, filepath.Join(dst, "a.txt"), "old")
	writeFile(t, filepath.Join(dst, "b", "extra.txt"), "extra")
	writeFile(t, filepath.Join(dst, "local.txt"), "local")

	_, err := New().CopyTree(context.Background(), src, dst, NewSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, "new", readFile(t, filepath.Join(dst, "a.txt")))
	assert.Equal(t, "c", readFile(t, filepath.Join(dst, "b", "c.txt")))
	assert.Equal(t, "extra", readFile(t, filepath.Join(dst, "b", "extra.txt")))
	assert.Equal(t, "local", readFile(t, filepath.Join(dst, "local.txt")))
}

func TestCopyTreeExclusions(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeFile(t, filepath.Join(src, "config.yaml"), "new config")
	writeFile(t, filepath.Join(src, "logs", "server.log"), "new log")
	writeFile(t, filepath.Join(src, "AntaresWeb", "AntaresWebServer"), "server")
	writeFile(t, filepath.Join(src, "AntaresWeb", "config.yaml"), "nested")
	writeFile(t, filepath.Join(dst, "config.yaml"), "user config")

	results, err := New().CopyTree(context.Background(), src, dst, DefaultExcluded("linux"), nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]Outcome{
		"AntaresWeb":  Copied,
		"config.yaml": Excluded,
		"logs":        Excluded,
	}, outcomes(results))

	assert.Equal(t, "user config", readFile(t, filepath.Join(dst, "config.yaml")))
	assert.NoDirExists(t, filepath.Join(dst, "logs"), "excluded entries missing in the target stay missing")
	assert.Equal(t, "server", readFile(t, filepath.Join(dst, "AntaresWeb", "AntaresWebServer")))
	assert.Equal(t, "nested", readFile(t, filepath.Join(dst, "AntaresWeb", "config.yaml")), "only top-level names are excluded")
}

func TestCopyAllIgnoresExclusions(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "fresh")

	writeFile(t, filepath.Join(src, "config.yaml"), "shipped config")
	writeFile(t, filepath.Join(src, "examples", "study", "study.antares"), "study")

	require.NoError(t, New().CopyAll(context.Background(), src, dst))

	assert.Equal(t, "shipped config", readFile(t, filepath.Join(dst, "config.yaml")))
	assert.Equal(t, "study", readFile(t, filepath.Join(dst, "examples", "study", "study.antares")))
}

func TestCopyTreeSkipsSameFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")

	results, err := New().CopyTree(context.Background(), dir, dir, NewSet(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]Outcome{"a.txt": SkippedSelf}, outcomes(results))
	assert.Equal(t, "a", readFile(t, filepath.Join(dir, "a.txt")))
}

func TestCopyTreeSkipsRunningInstaller(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "AntaresWebInstaller"), "new installer")
	writeFile(t, filepath.Join(dst, "AntaresWebInstaller"), "running installer")

	s := &Syncer{self: filepath.Join(dst, "AntaresWebInstaller")}
	results, err := s.CopyTree(context.Background(), src, dst, NewSet(), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]Outcome{"AntaresWebInstaller": SkippedSelf}, outcomes(results))
	assert.Equal(t, "running installer", readFile(t, filepath.Join(dst, "AntaresWebInstaller")))
}

func TestCopyTreePermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "AntaresWeb", "AntaresWebServer"), "server")
	require.NoError(t, os.MkdirAll(filepath.Join(dst, "AntaresWeb"), 0o755))
	require.NoError(t, os.Chmod(filepath.Join(dst, "AntaresWeb"), 0o500))
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(dst, "AntaresWeb"), 0o755) })

	_, err := New().CopyTree(context.Background(), src, dst, NewSet(), nil)
	require.Error(t, err)
	assert.Equal(t, installerr.KindCopy, installerr.KindOf(err))
	assert.Contains(t, err.Error(), "'AntaresWeb'")
	assert.Contains(t, err.Error(), dst)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestCopyTreeInterrupted(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().CopyTree(ctx, src, t.TempDir(), NewSet(), nil)
	require.Error(t, err)
	assert.Equal(t, installerr.KindInterrupted, installerr.KindOf(err))
}

// cancelAfterFirstCheck lets the first cancellation check pass and reports
// context.Canceled on every later one.
type cancelAfterFirstCheck struct {
	context.Context
	checks int
}

func (c *cancelAfterFirstCheck) Err() error {
	c.checks++
	if c.checks > 1 {
		return context.Canceled
	}
	return nil
}

func writeNestedServer(t *testing.T, src string) {
	t.Helper()
	writeFile(t, filepath.Join(src, "AntaresWeb", "lib", "libpython.so"), "lib")
	writeFile(t, filepath.Join(src, "AntaresWeb", "lib", "libssl.so"), "ssl")
}

func TestCopyInterruptedInNestedDirectory(t *testing.T) {
	tests := []struct {
		name string
		copy func(ctx context.Context, s *Syncer, src, dst string) error
	}{
		{
			name: "update",
			copy: func(ctx context.Context, s *Syncer, src, dst string) error {
				_, err := s.CopyTree(ctx, src, dst, NewSet(), nil)
				return err
			},
		},
		{
			name: "fresh install",
			copy: func(ctx context.Context, s *Syncer, src, dst string) error {
				return s.CopyAll(ctx, src, dst)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := t.TempDir()
			dst := t.TempDir()
			writeNestedServer(t, src)

			ctx := &cancelAfterFirstCheck{Context: context.Background()}
			err := tt.copy(ctx, New(), src, dst)
			require.Error(t, err)
			assert.Equal(t, installerr.KindInterrupted, installerr.KindOf(err))
			assert.ErrorIs(t, err, context.Canceled)
			assert.NotContains(t, err.Error(), "cannot write")
			assert.Greater(t, ctx.checks, 1, "cancellation must be caught below the top level")
		})
	}
}

func TestDefaultExcluded(t *testing.T) {
	posix := DefaultExcluded("linux")
	assert.True(t, posix.Contains("AntaresWebWorker"))
	assert.True(t, posix.Contains("AntaresWebInstaller"))
	assert.False(t, posix.Contains("AntaresWebWorker.exe"))
	assert.Len(t, posix, 8)

	windows := DefaultExcluded("windows")
	assert.True(t, windows.Contains("AntaresWebInstaller.exe"))
	assert.False(t, windows.Contains("AntaresWebInstaller"))
	for _, name := range []string{"config.prod.yaml", "config.yaml", "examples", "logs", "matrices", "tmp"} {
		assert.True(t, windows.Contains(name), name)
		assert.True(t, posix.Contains(name), name)
	}
}
