// Package rvc drives an external retrieval-based voice conversion CLI.
//
// The CLI is invoked once per conversion with the model, device and tuning
// flags; the engine itself only keeps the loaded model file and the last
// parameters applied.
package rvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"voice_conversion/entity"
	"voice_conversion/pkg/logger"
)

const (
	modelFileName   = "model.pth"
	maxOutputInErr  = 2048
	dirPermissions  = 0o750
	filePermissions = 0o600
)

var errNoModel = errors.New("rvc: no model loaded")

// Config describes how to run the conversion CLI.
type Config struct {
	// Binary is the executable, e.g. "python".
	Binary string
	// Args are prepended before the per-call flags, e.g. ["-m", "rvc_python", "cli"].
	Args []string
	// WorkDir is where each engine keeps its copy of the loaded model.
	WorkDir string
	// LoadCheckArgs, when set, run as "Binary LoadCheckArgs... <model>"
	// on every LoadModel; a non-zero exit rejects the model.
	LoadCheckArgs []string
}

// CommandEngine implements entity.Engine on top of an external process.
type CommandEngine struct {
	cfg       Config
	device    string
	dir       string
	modelPath string
	params    entity.ConversionParameters
	l         logger.Interface
}

var _ entity.Engine = (*CommandEngine)(nil)

// NewFactory returns an entity.EngineFactory building CommandEngines.
func NewFactory(cfg Config, l logger.Interface) entity.EngineFactory {
	return func(device string) (entity.Engine, error) {
		return New(cfg, device, l)
	}
}

// New creates an engine with its own working directory.
func New(cfg Config, device string, l logger.Interface) (*CommandEngine, error) {
	if cfg.Binary == "" {
		return nil, errors.New("rvc: binary is not configured")
	}

	root := cfg.WorkDir
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, dirPermissions); err != nil {
		return nil, fmt.Errorf("rvc: create work dir: %w", err)
	}

	dir, err := os.MkdirTemp(root, "engine-")
	if err != nil {
		return nil, fmt.Errorf("rvc: create engine dir: %w", err)
	}

	l.Debug("rvc engine created on device " + device)
	if len(cfg.LoadCheckArgs) == 0 {
		l.Warn("rvc: no load check configured, models are accepted unverified")
	}

	return &CommandEngine{
		cfg:    cfg,
		device: device,
		dir:    dir,
		params: entity.DefaultParameters(),
		l:      l,
	}, nil
}

// Device returns the compute backend the engine was built for.
func (e *CommandEngine) Device() string {
	return e.device
}

// LoadModel copies the model at path into the engine directory and has the
// CLI load it. The previously loaded model stays active if either step fails.
func (e *CommandEngine) LoadModel(ctx context.Context, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("rvc: open model: %w", err)
	}
	defer src.Close()

	tmp := filepath.Join(e.dir, modelFileName+".tmp")
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePermissions)
	if err != nil {
		return fmt.Errorf("rvc: create model copy: %w", err)
	}

	n, err := io.Copy(dst, src)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n == 0 {
		err = errors.New("model file is empty")
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rvc: copy model: %w", err)
	}

	if err := e.checkModel(ctx, tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	target := filepath.Join(e.dir, modelFileName)
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("rvc: install model: %w", err)
	}

	e.modelPath = target
	return nil
}

func (e *CommandEngine) checkModel(ctx context.Context, path string) error {
	if len(e.cfg.LoadCheckArgs) == 0 {
		return nil
	}

	args := append(append([]string{}, e.cfg.LoadCheckArgs...), path)

	// #nosec G204 -- binary and check args come from service configuration
	cmd := exec.CommandContext(ctx, e.cfg.Binary, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("rvc: model rejected: %w - output: %s", err, tail(output))
	}

	return nil
}

// SetParameters stores p for the next ConvertFile call.
func (e *CommandEngine) SetParameters(p entity.ConversionParameters) {
	e.params = p
}

// ConvertFile runs the CLI on inputPath and writes the result to outputPath.
func (e *CommandEngine) ConvertFile(ctx context.Context, inputPath, outputPath string) error {
	if e.modelPath == "" {
		return errNoModel
	}

	args := append(append([]string{}, e.cfg.Args...), e.flags(inputPath, outputPath)...)

	// #nosec G204 -- binary and prefix args come from service configuration
	cmd := exec.CommandContext(ctx, e.cfg.Binary, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("rvc: %s failed: %w - output: %s", e.cfg.Binary, err, tail(output))
	}

	return nil
}

// Close removes the engine directory.
func (e *CommandEngine) Close() error {
	e.modelPath = ""
	return os.RemoveAll(e.dir)
}

func (e *CommandEngine) flags(inputPath, outputPath string) []string {
	p := e.params
	return []string{
		"-i", inputPath,
		"-o", outputPath,
		"-mp", e.modelPath,
		"-de", e.device,
		"-me", string(p.Method),
		"-pi", strconv.Itoa(p.PitchShift),
		"-ir", formatFloat(p.IndexRate),
		"-fr", strconv.Itoa(p.FilterRadius),
		"-rmr", formatFloat(p.RMSMixRate),
		"-pr", formatFloat(p.Protect),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func tail(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxOutputInErr {
		s = "..." + s[len(s)-maxOutputInErr:]
	}
	return s
}
