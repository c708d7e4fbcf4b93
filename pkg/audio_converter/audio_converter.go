package audio_converter

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"voice_conversion/entity"
)

const (
	traceName    = "audio-converter"
	ffmpegBinary = "ffmpeg"
)

// AudioConverter rewrites uploaded audio into WAV with the ffmpeg binary.
type AudioConverter struct {
	sampleRate int
}

var _ entity.Transcoder = (*AudioConverter)(nil)

// NewAudioConverter returns a converter; a zero sampleRate keeps the source rate.
func NewAudioConverter(sampleRate int) *AudioConverter {
	return &AudioConverter{sampleRate: sampleRate}
}

// ConvertToWav decodes input (container format such as "mp3") into a PCM WAV
// file at output. ffmpeg is killed when ctx is done.
func (ac *AudioConverter) ConvertToWav(ctx context.Context, format, input, output string) error {
	ctx, span := otel.Tracer(traceName).Start(ctx, "ConvertToWav")
	defer span.End()

	span.SetAttributes(attribute.String("format", format))

	args := ffmpeg.Input(input, ffmpeg.KwArgs{"f": strings.TrimPrefix(format, ".")}).
		Output(output, ac.outputArgs()).
		OverWriteOutput().
		GetArgs()

	var stderr bytes.Buffer
	// #nosec G204 -- arguments are built from scratch paths
	cmd := exec.CommandContext(ctx, ffmpegBinary, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return fmt.Errorf("ffmpeg %s to wav: %w: %s", format, err, strings.TrimSpace(stderr.String()))
	}

	return nil
}

func (ac *AudioConverter) outputArgs() ffmpeg.KwArgs {
	args := ffmpeg.KwArgs{"f": "wav", "acodec": "pcm_s16le"}
	if ac.sampleRate > 0 {
		args["ar"] = ac.sampleRate
	}
	return args
}
