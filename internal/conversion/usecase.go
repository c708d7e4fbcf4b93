// Package conversion is the session controller: it loads uploaded models into
// a session's engine and runs conversions against them.
package conversion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"voice_conversion/entity"
	"voice_conversion/internal/session"
	"voice_conversion/internal/telemetry/metric"
	"voice_conversion/pkg/logger"
	"voice_conversion/pkg/scratch"
)

const (
	traceName      = "conversion-usecase"
	wavExt         = ".wav"
	outputFileName = "output.wav"
)

// Options wires the optional collaborators of the usecase.
type Options struct {
	// ScratchDir is the parent of per-request working directories.
	ScratchDir string
	// EngineTimeout bounds a single engine call; zero means unbounded.
	EngineTimeout time.Duration
	// Transcoder converts non-WAV uploads before inference; nil disables it.
	Transcoder entity.Transcoder
	// Archive receives a copy of every converted clip; nil disables it.
	Archive       entity.StorageRepository
	ArchiveBucket string
	// Events receives a record of every load and conversion; nil disables it.
	Events entity.EventPublisher
}

// Usecase -.
type Usecase struct {
	opts Options
	m    *metric.Metrics
	l    logger.Interface
	now  func() time.Time
}

// New -.
func New(opts Options, m *metric.Metrics, l logger.Interface) *Usecase {
	return &Usecase{opts: opts, m: m, l: l, now: time.Now}
}

// LoadModel loads art into the session's engine unless the same model is
// already loaded. Failures are returned as *entity.ModelLoadError and leave
// the session's model identity untouched.
func (u *Usecase) LoadModel(ctx context.Context, s *session.Session, art entity.ModelArtifact) (entity.LoadOutcome, error) {
	ctx, span := otel.Tracer(traceName).Start(ctx, "LoadModel")
	defer span.End()

	span.SetAttributes(
		attribute.String("session", s.ID),
		attribute.String("model.filename", art.Filename),
		attribute.Int("model.bytes", len(art.Body)),
	)

	s.Lock()
	defer s.Unlock()

	start := u.now()

	if len(art.Body) == 0 {
		return entity.LoadFailed, u.loadFailed(ctx, span, s, "", start, entity.ErrEmptyArtifact)
	}

	identity := art.Identity()
	span.SetAttributes(attribute.String("model.identity", identity))

	if identity == s.ModelIdentity() {
		span.AddEvent("model already loaded")
		u.m.ModelLoads.WithLabelValues(metric.ResultUnchanged).Inc()
		return entity.LoadUnchanged, nil
	}

	engine, err := s.Engine()
	if err != nil {
		return entity.LoadFailed, u.loadFailed(ctx, span, s, identity, start, fmt.Errorf("engine unavailable: %w", err))
	}

	dir, err := scratch.New(u.opts.ScratchDir, "model-")
	if err != nil {
		return entity.LoadFailed, u.loadFailed(ctx, span, s, identity, start, err)
	}
	defer u.release(dir)

	path, err := dir.Write("model"+entity.ModelExt, art.Body)
	if err != nil {
		return entity.LoadFailed, u.loadFailed(ctx, span, s, identity, start, err)
	}

	engineCtx, cancel := u.engineContext(ctx)
	defer cancel()

	if err := engine.LoadModel(engineCtx, path); err != nil {
		return entity.LoadFailed, u.loadFailed(ctx, span, s, identity, start, err)
	}

	s.SetModel(identity, art.Filename)

	u.m.ModelLoads.WithLabelValues(metric.ResultLoaded).Inc()
	u.l.Info("session %s: model %s loaded (%s)", s.ID, art.Filename, identity[:12])
	u.publish(ctx, entity.ConversionEvent{
		Type:          entity.EventModelLoaded,
		SessionID:     s.ID,
		ModelIdentity: identity,
		Status:        entity.StatusSucceeded,
		Duration:      u.now().Sub(start),
	})

	return entity.LoadApplied, nil
}

// Convert runs the session's engine on audio with params and returns the
// produced bytes unmodified. On success they also become the session's last
// output; on failure (*entity.ConversionError) the last output is kept.
func (u *Usecase) Convert(ctx context.Context, s *session.Session, audio entity.AudioArtifact, params entity.ConversionParameters) ([]byte, error) {
	ctx, span := otel.Tracer(traceName).Start(ctx, "Convert")
	defer span.End()

	span.SetAttributes(
		attribute.String("session", s.ID),
		attribute.String("audio.filename", audio.Filename),
		attribute.Int("audio.bytes", len(audio.Body)),
		attribute.String("f0.method", string(params.Method)),
	)

	s.Lock()
	defer s.Unlock()

	start := u.now()
	fail := func(err error) ([]byte, error) {
		return nil, u.convertFailed(ctx, span, s, params, start, err)
	}

	if s.ModelIdentity() == "" {
		return fail(entity.ErrNoModelLoaded)
	}
	if len(audio.Body) == 0 {
		return fail(entity.ErrEmptyArtifact)
	}

	engine, err := s.Engine()
	if err != nil {
		return fail(fmt.Errorf("engine unavailable: %w", err))
	}

	dir, err := scratch.New(u.opts.ScratchDir, "convert-")
	if err != nil {
		return fail(err)
	}
	defer u.release(dir)

	ext := audio.Ext()
	if ext == "" {
		ext = wavExt
	}

	input, err := dir.Write("input"+ext, audio.Body)
	if err != nil {
		return fail(err)
	}

	engineCtx, cancel := u.engineContext(ctx)
	defer cancel()

	if u.opts.Transcoder != nil && ext != wavExt {
		wav := dir.Path("input-transcoded" + wavExt)
		if err := u.opts.Transcoder.ConvertToWav(engineCtx, ext, input, wav); err != nil {
			return fail(err)
		}
		input = wav
	}

	output := dir.Path(outputFileName)

	engine.SetParameters(params)

	span.AddEvent("engine convert started")
	if err := engine.ConvertFile(engineCtx, input, output); err != nil {
		return fail(err)
	}

	converted, err := os.ReadFile(output)
	if err != nil {
		return fail(fmt.Errorf("read engine output: %w", err))
	}
	if len(converted) == 0 {
		return fail(entity.ErrEmptyOutput)
	}

	s.SetLastOutput(converted)

	took := u.now().Sub(start)
	key, name := u.archiveOutput(engineCtx, s.ID, converted)
	s.SetLastArchive(name)

	u.m.ObserveConversion(metric.ResultSucceeded, string(params.Method), took)
	u.l.Info("session %s: converted %s (%d bytes) in %s", s.ID, audio.Filename, len(converted), took)
	u.publish(ctx, entity.ConversionEvent{
		Type:          entity.EventConversionFinished,
		SessionID:     s.ID,
		ModelIdentity: s.ModelIdentity(),
		Params:        &params,
		Status:        entity.StatusSucceeded,
		OutputBytes:   len(converted),
		ArchiveKey:    key,
		Duration:      took,
	})

	return converted, nil
}

// engineContext detaches engine work from the caller: a started conversion
// runs to completion even if the client goes away.
func (u *Usecase) engineContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if u.opts.EngineTimeout > 0 {
		return context.WithTimeout(ctx, u.opts.EngineTimeout)
	}
	return context.WithCancel(ctx)
}

func (u *Usecase) loadFailed(ctx context.Context, span trace.Span, s *session.Session, identity string, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "model load failed")

	u.m.ModelLoads.WithLabelValues(metric.ResultFailed).Inc()
	u.l.Error("session %s: model load failed: %v", s.ID, err)
	u.publish(ctx, entity.ConversionEvent{
		Type:          entity.EventModelLoaded,
		SessionID:     s.ID,
		ModelIdentity: identity,
		Status:        entity.StatusFailed,
		Error:         err.Error(),
		Duration:      u.now().Sub(start),
	})

	return &entity.ModelLoadError{Err: err}
}

func (u *Usecase) convertFailed(ctx context.Context, span trace.Span, s *session.Session, params entity.ConversionParameters, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "conversion failed")

	took := u.now().Sub(start)
	u.m.ObserveConversion(metric.ResultFailed, string(params.Method), took)
	u.l.Error("session %s: conversion failed: %v", s.ID, err)
	u.publish(ctx, entity.ConversionEvent{
		Type:          entity.EventConversionFinished,
		SessionID:     s.ID,
		ModelIdentity: s.ModelIdentity(),
		Params:        &params,
		Status:        entity.StatusFailed,
		Error:         err.Error(),
		Duration:      took,
	})

	return &entity.ConversionError{Err: err}
}

// archiveOutput uploads b and returns its object key and the name the
// session can fetch it back by; both are empty when nothing was stored.
func (u *Usecase) archiveOutput(ctx context.Context, sessionID string, b []byte) (key, name string) {
	if u.opts.Archive == nil {
		return "", ""
	}

	id := uuid.NewString()
	key = entity.ArchiveKey(sessionID, id)
	if err := u.opts.Archive.UploadObject(ctx, u.opts.ArchiveBucket, key, bytes.NewReader(b)); err != nil {
		u.l.Warn("session %s: archive upload to %s failed: %v", sessionID, u.opts.ArchiveBucket, err)
		return "", ""
	}
	return key, id + entity.ArchiveExt
}

// FetchArchived reads back an archived conversion of s by the name returned
// from a previous Convert. Names outside the session's own prefix are not found.
func (u *Usecase) FetchArchived(ctx context.Context, s *session.Session, name string) ([]byte, error) {
	ctx, span := otel.Tracer(traceName).Start(ctx, "FetchArchived")
	defer span.End()

	span.SetAttributes(attribute.String("session", s.ID), attribute.String("archive.name", name))

	if u.opts.Archive == nil {
		return nil, entity.ErrArchiveDisabled
	}

	id := strings.TrimSuffix(name, entity.ArchiveExt)
	if id == name {
		return nil, entity.ErrArchiveNotFound
	}
	if parsed, err := uuid.Parse(id); err != nil || parsed.String() != id {
		return nil, entity.ErrArchiveNotFound
	}

	var buf bytes.Buffer
	if err := u.opts.Archive.DownloadObject(ctx, u.opts.ArchiveBucket, entity.ArchiveKey(s.ID, id), &buf); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return buf.Bytes(), nil
}

func (u *Usecase) publish(ctx context.Context, ev entity.ConversionEvent) {
	if u.opts.Events == nil {
		return
	}

	ev.ID = uuid.NewString()
	ev.Timestamp = u.now().UTC()

	if err := u.opts.Events.PublishEvent(context.WithoutCancel(ctx), ev); err != nil {
		u.l.Error("publish %s event: %v", ev.Type, err)
	}
}

func (u *Usecase) release(dir *scratch.Dir) {
	if err := dir.Release(); err != nil && !errors.Is(err, os.ErrNotExist) {
		u.l.Warn("remove scratch dir %s: %v", dir.Root(), err)
	}
}
