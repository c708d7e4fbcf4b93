package server

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"voice_conversion/config"
	"voice_conversion/entity"
	"voice_conversion/internal/storage/natsstore"
	"voice_conversion/internal/storage/s3repo"
	"voice_conversion/pkg/logger"
	"voice_conversion/pkg/rvc"
)

// stubBinary selects the in-process echo engine instead of a real CLI.
const stubBinary = "stub"

func newEngineFactory(cfg config.Engine, l logger.Interface) entity.EngineFactory {
	if cfg.Binary == stubBinary {
		l.Warn("engine binary is %q, conversions echo their input", stubBinary)
		return (&rvc.StubFactory{}).New
	}

	return rvc.NewFactory(rvc.Config{
		Binary:        cfg.Binary,
		Args:          cfg.Args,
		WorkDir:       cfg.WorkDir,
		LoadCheckArgs: cfg.LoadCheckArgs,
	}, l)
}

// newArchive returns the configured result archive, or nil for "none".
// The returned func releases the backend connection.
func newArchive(cfg config.Archive) (entity.StorageRepository, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case "", "none":
		return nil, noop, nil
	case "s3":
		repo, err := s3repo.NewS3Repository(cfg.S3)
		if err != nil {
			return nil, noop, err
		}
		return repo, noop, nil
	case "nats":
		nc, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, noop, fmt.Errorf("nats connect: %w", err)
		}
		js, err := nc.JetStream()
		if err != nil {
			nc.Close()
			return nil, noop, fmt.Errorf("nats jetstream: %w", err)
		}
		return natsstore.New(js), func() { _ = nc.Drain() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}
