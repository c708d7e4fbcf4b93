package scratch_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice_conversion/pkg/scratch"
)

func TestDir_WriteAndRelease(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	d, err := scratch.New(root, "input-")
	require.NoError(t, err)

	p, err := d.Write("clip.wav", []byte("RIFF"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(d.Root(), "clip.wav"), p)

	body, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), body)

	require.NoError(t, d.Release())

	_, err = os.Stat(d.Root())
	assert.True(t, os.IsNotExist(err))
}

func TestDir_UniquePerCall(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	a, err := scratch.New(root, "model-")
	require.NoError(t, err)
	b, err := scratch.New(root, "model-")
	require.NoError(t, err)

	assert.NotEqual(t, a.Root(), b.Root())
	assert.NotEqual(t, a.Path("model.pth"), b.Path("model.pth"))
}

func TestDir_PathStaysInside(t *testing.T) {
	t.Parallel()

	d, err := scratch.New(t.TempDir(), "x-")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Release() })

	assert.Equal(t, filepath.Join(d.Root(), "passwd"), d.Path("../../etc/passwd"))
}
