package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice_conversion/config"
	"voice_conversion/pkg/logger"
	"voice_conversion/pkg/rvc"
)

func TestNewArchive_None(t *testing.T) {
	repo, closeFn, err := newArchive(config.Archive{Backend: "none"})
	require.NoError(t, err)
	assert.Nil(t, repo)
	closeFn()
}

func TestNewArchive_Unknown(t *testing.T) {
	_, _, err := newArchive(config.Archive{Backend: "ftp"})
	assert.ErrorContains(t, err, `unknown archive backend "ftp"`)
}

func TestNewArchive_S3(t *testing.T) {
	repo, _, err := newArchive(config.Archive{
		Backend: "s3",
		S3:      config.S3{Endpoint: "http://127.0.0.1:9000", Region: "us-east-1", AccessKey: "k", SecretKey: "s"},
	})
	require.NoError(t, err)
	assert.NotNil(t, repo)
}

func TestNewEngineFactory(t *testing.T) {
	stub, err := newEngineFactory(config.Engine{Binary: stubBinary}, logger.Nop())("cpu")
	require.NoError(t, err)
	assert.IsType(t, &rvc.StubEngine{}, stub)

	cmd, err := newEngineFactory(config.Engine{Binary: "python", WorkDir: t.TempDir()}, logger.Nop())("cpu")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cmd.Close() })
	assert.IsType(t, &rvc.CommandEngine{}, cmd)
}
