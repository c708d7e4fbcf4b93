package audio_converter

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func TestOutputArgs(t *testing.T) {
	assert.Equal(t, ffmpeg.KwArgs{"f": "wav", "acodec": "pcm_s16le"}, NewAudioConverter(0).outputArgs())
	assert.Equal(t, ffmpeg.KwArgs{"f": "wav", "acodec": "pcm_s16le", "ar": 40000}, NewAudioConverter(40000).outputArgs())
}

func TestConvertToWav_BadInput(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	dir := t.TempDir()
	err := NewAudioConverter(0).ConvertToWav(context.Background(), ".mp3",
		filepath.Join(dir, "missing.mp3"), filepath.Join(dir, "out.wav"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ffmpeg .mp3 to wav")
}

func TestConvertToWav_StopsOnContextDone(t *testing.T) {
	if _, err := exec.LookPath(ffmpegBinary); err != nil {
		t.Skip("ffmpeg not installed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	err := NewAudioConverter(0).ConvertToWav(ctx, ".mp3",
		filepath.Join(dir, "in.mp3"), filepath.Join(dir, "out.wav"))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvertToWav_Args(t *testing.T) {
	args := ffmpeg.Input("in.mp3", ffmpeg.KwArgs{"f": "mp3"}).
		Output("out.wav", NewAudioConverter(16000).outputArgs()).
		OverWriteOutput().
		GetArgs()

	assert.Contains(t, args, "-y")
	assert.Contains(t, args, "pcm_s16le")
	assert.Contains(t, args, "out.wav")
}
