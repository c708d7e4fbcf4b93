package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"voice_conversion/config"
	v1 "voice_conversion/internal/controller/http/v1"
	"voice_conversion/internal/controller/rmq"
	"voice_conversion/internal/conversion"
	"voice_conversion/internal/session"
	"voice_conversion/internal/telemetry/metric"
	ttrace "voice_conversion/internal/telemetry/trace"
	"voice_conversion/pkg/audio_converter"
	"voice_conversion/pkg/httpserver"
	"voice_conversion/pkg/logger"
)

var name = "voice-conversion-server"

// NewServer ...
func NewServer(cfg *config.Config) (*Server, error) {
	srv := &Server{}

	closeFn, err := ttrace.InitGlobalProvider(name, cfg.OTEL)
	if err != nil {
		return nil, err
	}
	srv.traceProviderCloseFn = append(srv.traceProviderCloseFn, closeFn)

	return srv, nil
}

type Server struct {
	traceProviderCloseFn []ttrace.CloseFunc
}

// Run ...
func (s *Server) Run(ctx context.Context, cfg *config.Config) error {
	l := logger.New(cfg.Log.Level)
	l.Info("Starting %s %s...", cfg.App.Name, cfg.App.Version)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metric.New(registry)

	opts := conversion.Options{
		ScratchDir:    cfg.Scratch.Dir,
		EngineTimeout: cfg.Engine.Timeout,
	}
	if cfg.Engine.TranscodeInput {
		opts.Transcoder = audio_converter.NewAudioConverter(cfg.Engine.SampleRate)
	}

	archive, closeArchive, err := newArchive(cfg.Archive)
	if err != nil {
		return fmt.Errorf("app - Run - newArchive: %w", err)
	}
	defer closeArchive()
	if archive != nil {
		opts.Archive = archive
		opts.ArchiveBucket = cfg.Archive.Bucket
		l.Info("archiving converted audio to %s bucket %s", cfg.Archive.Backend, cfg.Archive.Bucket)
	}

	if cfg.RMQ.Enabled {
		publisher, err := rmq.NewEventPublisher(cfg.RMQ, l)
		if err != nil {
			return fmt.Errorf("app - Run - rmq.NewEventPublisher: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				l.Error(fmt.Errorf("app - Run - publisher.Close: %w", err))
			}
		}()
		opts.Events = publisher
	}

	uc := conversion.New(opts, m, l)

	sessions := session.NewRegistry(newEngineFactory(cfg.Engine, l), cfg.Engine.Device, cfg.Session.TTL, l, m)
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sessions.Run(sweepCtx, cfg.Session.SweepInterval)

	handler := gin.New()
	err = v1.NewRouter(handler, l, uc, sessions, v1.RouterOptions{
		CookieName:     cfg.Session.CookieName,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		Gatherer:       registry,
		Swagger:        true,
	})
	if err != nil {
		return fmt.Errorf("app - Run - v1.NewRouter: %w", err)
	}

	httpServer := httpserver.New(s.cors().Handler(handler),
		httpserver.Port(cfg.Server.Port),
		httpserver.ReadTimeout(cfg.Server.ReadTimeout),
		httpserver.WriteTimeout(cfg.Server.WriteTimeout),
	)

	l.Info("server serving on port %s", cfg.Server.Port)

	// Waiting signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: " + s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	case <-ctx.Done():
		l.Info("app - Run - context done")
	}

	log.Printf("server stopped")

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown
	if err := httpServer.Shutdown(); err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	stopSweep()
	if err := sessions.Close(); err != nil {
		l.Error(fmt.Errorf("app - Run - sessions.Close: %w", err))
	}

	log.Printf("server exited properly")

	for _, closeFn := range s.traceProviderCloseFn {
		if err := closeFn(ctxShutDown); err != nil {
			log.Error().Err(err).Msgf("Unable to close trace provider")
		}
	}

	return err
}

func (s *Server) cors() *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{"POST", "GET", "HEAD", "OPTIONS"},
		AllowedHeaders:     []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization"},
		ExposedHeaders:     []string{"Content-Disposition"},
		MaxAge:             60, // 1 minutes
		AllowCredentials:   true,
		OptionsPassthrough: false,
		Debug:              false,
	})
}
