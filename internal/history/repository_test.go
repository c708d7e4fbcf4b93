package history_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice_conversion/entity"
	"voice_conversion/internal/history"
)

func TestRecordFromEvent_Conversion(t *testing.T) {
	ts := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	params := entity.DefaultParameters()
	params.Method = entity.MethodCrepe

	rec := history.RecordFromEvent(entity.ConversionEvent{
		ID:            "ev-1",
		Type:          entity.EventConversionFinished,
		SessionID:     "sess-1",
		ModelIdentity: "abc",
		Params:        &params,
		Status:        entity.StatusSucceeded,
		OutputBytes:   1024,
		ArchiveKey:    "sess-1/x.wav",
		Duration:      1500 * time.Millisecond,
		Timestamp:     ts,
	})

	assert.Equal(t, "ev-1", rec.EventID)
	assert.Equal(t, "conversion_finished", rec.Type)
	assert.Equal(t, int64(1500), rec.DurationMs)
	assert.Equal(t, ts, rec.OccurredAt)
	require.NotNil(t, rec.Protect)
	assert.InEpsilon(t, 0.33, *rec.Protect, 1e-9)
	require.NotNil(t, rec.FilterRadius)
	assert.Equal(t, 3, *rec.FilterRadius)
	assert.Equal(t, "crepe", rec.Method)
}

func TestRecordFromEvent_ModelLoadHasNoParams(t *testing.T) {
	rec := history.RecordFromEvent(entity.ConversionEvent{
		ID:     "ev-2",
		Type:   entity.EventModelLoaded,
		Status: entity.StatusFailed,
		Error:  "bad checkpoint",
	})

	assert.Nil(t, rec.PitchShift)
	assert.Nil(t, rec.Protect)
	assert.Empty(t, rec.Method)
	assert.Equal(t, "bad checkpoint", rec.Error)
}
