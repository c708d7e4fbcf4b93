package entity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// Method is a pitch extraction algorithm supported by the engine.
type Method string

const (
	MethodHarvest Method = "harvest"
	MethodCrepe   Method = "crepe"
	MethodRMVPE   Method = "rmvpe"
	MethodPM      Method = "pm"
)

// Methods lists the selectable pitch extraction methods in display order.
var Methods = []Method{MethodHarvest, MethodCrepe, MethodRMVPE, MethodPM}

// ParseMethod returns the Method named by s.
func ParseMethod(s string) (Method, bool) {
	for _, m := range Methods {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

const (
	MinPitchShift   = -12
	MaxPitchShift   = 12
	MinFilterRadius = 0
	MaxFilterRadius = 7
)

// ConversionParameters -.
type ConversionParameters struct {
	PitchShift   int     `json:"pitch_shift"`
	Protect      float64 `json:"protect"`
	IndexRate    float64 `json:"index_rate"`
	FilterRadius int     `json:"filter_radius"`
	RMSMixRate   float64 `json:"rms_mix_rate"`
	Method       Method  `json:"f0_method"`
}

// DefaultParameters returns the values the UI widgets start from.
func DefaultParameters() ConversionParameters {
	return ConversionParameters{
		PitchShift:   0,
		Protect:      0.33,
		IndexRate:    0.5,
		FilterRadius: 3,
		RMSMixRate:   0.25,
		Method:       MethodHarvest,
	}
}

// Artifact is an uploaded file held in memory.
type Artifact struct {
	Filename string
	Body     []byte
}

// Ext returns the lowercased extension of the artifact filename.
func (a Artifact) Ext() string {
	return strings.ToLower(filepath.Ext(a.Filename))
}

// ModelArtifact -.
type ModelArtifact struct {
	Artifact
}

// Identity is the hex SHA-256 of the model bytes.
func (m ModelArtifact) Identity() string {
	sum := sha256.Sum256(m.Body)
	return hex.EncodeToString(sum[:])
}

// AudioArtifact -.
type AudioArtifact struct {
	Artifact
}

// ModelExt is the only model file extension accepted by the upload widget.
const ModelExt = ".pth"

// AudioExts lists the audio extensions accepted by the upload widget.
var AudioExts = []string{".wav", ".mp3"}

// LoadOutcome reports what LoadModel did. The zero value is LoadFailed.
type LoadOutcome int

const (
	LoadFailed LoadOutcome = iota
	LoadApplied
	LoadUnchanged
)

func (o LoadOutcome) String() string {
	switch o {
	case LoadApplied:
		return "loaded"
	case LoadUnchanged:
		return "unchanged"
	default:
		return "failed"
	}
}

// Engine is a stateful voice conversion handle.
type Engine interface {
	LoadModel(ctx context.Context, path string) error
	SetParameters(p ConversionParameters)
	ConvertFile(ctx context.Context, inputPath, outputPath string) error
	Close() error
}

// EngineFactory builds an engine bound to a compute device.
type EngineFactory func(device string) (Engine, error)

// Transcoder rewrites audio of the given container format into WAV.
type Transcoder interface {
	ConvertToWav(ctx context.Context, format string, input string, output string) error
}
