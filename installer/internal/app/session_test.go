package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSteps(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		expected int
	}{
		{name: "install only", req: Request{}, expected: 2},
		{name: "shortcut", req: Request{CreateShortcut: true}, expected: 3},
		{name: "launch", req: Request{Launch: true}, expected: 4},
		{name: "everything", req: Request{CreateShortcut: true, Launch: true, OpenBrowser: true}, expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.req.Steps())
		})
	}
}

func TestRequestNormalize(t *testing.T) {
	home, err := homedir.Dir()
	require.NoError(t, err)
	wd, err := os.Getwd()
	require.NoError(t, err)

	req, err := Request{SourceDir: "dist", TargetDir: "~/antares-web"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "dist"), req.SourceDir)
	assert.Equal(t, filepath.Join(home, "antares-web"), req.TargetDir)
}

func TestServerExecutable(t *testing.T) {
	assert.Equal(t, "AntaresWebServer.exe", serverExecutable("windows"))
	assert.Equal(t, "AntaresWebServer", serverExecutable("linux"))

	req := Request{TargetDir: filepath.FromSlash("/opt/antares-web")}
	assert.Equal(t, "AntaresWeb", filepath.Base(filepath.Dir(req.ServerPath())))
}

func TestSessionProgress(t *testing.T) {
	var reported []float64
	s := newSession(4, func(p float64) { reported = append(reported, p) }, nil)

	s.update(50)
	s.completeStep()
	s.subProgress(50, 75)(50)
	s.update(10)
	s.completeStep()

	assert.Equal(t, []float64{12.5, 25, 40.625, 40.625, 50}, reported)
	assert.Equal(t, 2, s.step)
}

func TestSessionProgressIsClamped(t *testing.T) {
	s := newSession(2, nil, nil)
	s.step = 1
	s.update(250)
	assert.Equal(t, float64(100), s.progress)
}

func TestLockPath(t *testing.T) {
	a := lockPath(filepath.FromSlash("/opt/antares-web"))
	b := lockPath(filepath.FromSlash("/opt/antares-web/"))
	c := lockPath(filepath.FromSlash("/opt/other"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, os.TempDir(), filepath.Dir(a))
}
