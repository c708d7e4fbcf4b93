// Package history persists conversion events for auditing and reporting.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"voice_conversion/entity"
	"voice_conversion/pkg/logger"
)

// ConversionRecord is one row of the conversion_records table.
type ConversionRecord struct {
	ID            uint   `gorm:"primaryKey"`
	EventID       string `gorm:"size:36;uniqueIndex"`
	Type          string `gorm:"size:32;index"`
	SessionID     string `gorm:"size:36;index"`
	ModelIdentity string `gorm:"size:64"`
	Status        string `gorm:"size:16"`
	Error         string `gorm:"type:text"`
	PitchShift    *int
	Protect       *float64
	IndexRate     *float64
	FilterRadius  *int
	RMSMixRate    *float64
	Method        string `gorm:"size:16"`
	OutputBytes   int
	ArchiveKey    string `gorm:"size:255"`
	DurationMs    int64
	OccurredAt    time.Time `gorm:"index"`
	CreatedAt     time.Time
}

// RecordFromEvent flattens an event into a row.
func RecordFromEvent(ev entity.ConversionEvent) ConversionRecord {
	rec := ConversionRecord{
		EventID:       ev.ID,
		Type:          string(ev.Type),
		SessionID:     ev.SessionID,
		ModelIdentity: ev.ModelIdentity,
		Status:        ev.Status,
		Error:         ev.Error,
		OutputBytes:   ev.OutputBytes,
		ArchiveKey:    ev.ArchiveKey,
		DurationMs:    ev.Duration.Milliseconds(),
		OccurredAt:    ev.Timestamp,
	}

	if p := ev.Params; p != nil {
		rec.PitchShift = &p.PitchShift
		rec.Protect = &p.Protect
		rec.IndexRate = &p.IndexRate
		rec.FilterRadius = &p.FilterRadius
		rec.RMSMixRate = &p.RMSMixRate
		rec.Method = string(p.Method)
	}

	return rec
}

// Repository -.
type Repository struct {
	db *gorm.DB
	l  logger.Interface
}

var _ entity.ConversionHistory = (*Repository)(nil)

// NewRepository migrates the schema and returns the repository.
func NewRepository(db *gorm.DB, l logger.Interface) (*Repository, error) {
	if err := db.AutoMigrate(&ConversionRecord{}); err != nil {
		return nil, fmt.Errorf("history - migrate: %w", err)
	}
	return newRepository(db, l), nil
}

func newRepository(db *gorm.DB, l logger.Interface) *Repository {
	return &Repository{db: db, l: l}
}

// Record inserts ev; a redelivered event with a known id is ignored.
func (r *Repository) Record(ctx context.Context, ev entity.ConversionEvent) error {
	if ev.ID == "" {
		return errors.New("history - event id is empty")
	}

	rec := RecordFromEvent(ev)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("history - insert %s: %w", ev.ID, err)
	}

	r.l.Debug("history - recorded " + ev.ID)
	return nil
}
