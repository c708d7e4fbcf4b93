package entity

import (
	"context"
	"time"
)

type EventType string

const (
	EventModelLoaded        EventType = "model_loaded"
	EventConversionFinished EventType = "conversion_finished"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ConversionEvent is published after every model load and conversion attempt.
type ConversionEvent struct {
	ID            string                `json:"id"`
	Type          EventType             `json:"type"`
	SessionID     string                `json:"session_id"`
	ModelIdentity string                `json:"model_identity"`
	Params        *ConversionParameters `json:"params,omitempty"`
	Status        string                `json:"status"`
	Error         string                `json:"error,omitempty"`
	OutputBytes   int                   `json:"output_bytes"`
	ArchiveKey    string                `json:"archive_key,omitempty"`
	Duration      time.Duration         `json:"duration"`
	Timestamp     time.Time             `json:"timestamp"`
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, ev ConversionEvent) error
}

type ConversionHistory interface {
	Record(ctx context.Context, ev ConversionEvent) error
}
