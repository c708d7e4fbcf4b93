package rvc

import (
	"context"
	"fmt"
	"os"
	"sync"

	"voice_conversion/entity"
)

// StubEngine is an in-process engine that echoes its input (or a fixed
// Output) instead of running inference. It records every call.
type StubEngine struct {
	mu sync.Mutex

	device       string
	LoadErr      error
	ConvertErr   error
	Output       []byte
	loadedModels [][]byte
	params       []entity.ConversionParameters
	converts     int
	closed       bool
}

var _ entity.Engine = (*StubEngine)(nil)

// NewStubEngine -.
func NewStubEngine(device string) *StubEngine {
	return &StubEngine{device: device}
}

func (e *StubEngine) LoadModel(_ context.Context, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.LoadErr != nil {
		return e.LoadErr
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("stub: read model: %w", err)
	}
	e.loadedModels = append(e.loadedModels, b)
	return nil
}

func (e *StubEngine) SetParameters(p entity.ConversionParameters) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.params = append(e.params, p)
}

func (e *StubEngine) ConvertFile(_ context.Context, inputPath, outputPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.converts++
	if e.ConvertErr != nil {
		return e.ConvertErr
	}
	if len(e.loadedModels) == 0 {
		return errNoModel
	}

	out := e.Output
	if out == nil {
		b, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("stub: read input: %w", err)
		}
		out = b
	}
	return os.WriteFile(outputPath, out, filePermissions)
}

func (e *StubEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	return nil
}

func (e *StubEngine) Device() string {
	return e.device
}

// LoadedModels returns the contents of every model file loaded so far.
func (e *StubEngine) LoadedModels() [][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([][]byte(nil), e.loadedModels...)
}

// Params returns every parameter set applied, in order.
func (e *StubEngine) Params() []entity.ConversionParameters {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]entity.ConversionParameters(nil), e.params...)
}

func (e *StubEngine) Converts() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.converts
}

func (e *StubEngine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.closed
}

// StubFactory builds StubEngines and keeps them for inspection.
type StubFactory struct {
	mu sync.Mutex

	// Err makes every construction fail.
	Err error
	// Setup, when set, configures each engine before it is handed out.
	Setup func(*StubEngine)

	engines []*StubEngine
}

// New satisfies entity.EngineFactory.
func (f *StubFactory) New(device string) (entity.Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	e := NewStubEngine(device)
	if f.Setup != nil {
		f.Setup(e)
	}
	f.engines = append(f.engines, e)
	return e, nil
}

// Engines returns every engine built so far.
func (f *StubFactory) Engines() []*StubEngine {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*StubEngine(nil), f.engines...)
}
