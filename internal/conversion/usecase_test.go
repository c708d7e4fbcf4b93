package conversion_test

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice_conversion/entity"
	"voice_conversion/internal/conversion"
	"voice_conversion/internal/session"
	"voice_conversion/internal/telemetry/metric"
	"voice_conversion/pkg/logger"
	"voice_conversion/pkg/rvc"
)

type fixture struct {
	uc      *conversion.Usecase
	factory *rvc.StubFactory
	sess    *session.Session
	m       *metric.Metrics
	scratch string
}

func newFixture(t *testing.T, opts conversion.Options) *fixture {
	t.Helper()

	f := &fixture{factory: &rvc.StubFactory{}, scratch: t.TempDir()}
	f.m = metric.New(prometheus.NewRegistry())
	opts.ScratchDir = f.scratch
	f.uc = conversion.New(opts, f.m, logger.Nop())
	f.sess = session.New("sess-1", "cpu", f.factory.New)

	return f
}

func (f *fixture) engine(t *testing.T) *rvc.StubEngine {
	t.Helper()

	engines := f.factory.Engines()
	require.Len(t, engines, 1)
	return engines[0]
}

func (f *fixture) assertScratchEmpty(t *testing.T) {
	t.Helper()

	entries, err := os.ReadDir(f.scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func model(name, body string) entity.ModelArtifact {
	return entity.ModelArtifact{Artifact: entity.Artifact{Filename: name, Body: []byte(body)}}
}

func audio(name, body string) entity.AudioArtifact {
	return entity.AudioArtifact{Artifact: entity.Artifact{Filename: name, Body: []byte(body)}}
}

func TestLoadModel_SameIdentitySkipsReload(t *testing.T) {
	f := newFixture(t, conversion.Options{})
	ctx := context.Background()

	outcome, err := f.uc.LoadModel(ctx, f.sess, model("voice.pth", "weights-a"))
	require.NoError(t, err)
	assert.Equal(t, entity.LoadApplied, outcome)

	outcome, err = f.uc.LoadModel(ctx, f.sess, model("renamed.pth", "weights-a"))
	require.NoError(t, err)
	assert.Equal(t, entity.LoadUnchanged, outcome)

	assert.Len(t, f.engine(t).LoadedModels(), 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.m.ModelLoads.WithLabelValues(metric.ResultUnchanged)))
	f.assertScratchEmpty(t)
}

func TestLoadModel_NewIdentityReloads(t *testing.T) {
	f := newFixture(t, conversion.Options{})
	ctx := context.Background()

	a := model("a.pth", "weights-a")
	b := model("b.pth", "weights-b")

	_, err := f.uc.LoadModel(ctx, f.sess, a)
	require.NoError(t, err)
	assert.Equal(t, a.Identity(), f.sess.ModelIdentity())

	outcome, err := f.uc.LoadModel(ctx, f.sess, b)
	require.NoError(t, err)
	assert.Equal(t, entity.LoadApplied, outcome)
	assert.Equal(t, b.Identity(), f.sess.ModelIdentity())
	assert.Equal(t, "b.pth", f.sess.ModelName())

	assert.Equal(t, [][]byte{[]byte("weights-a"), []byte("weights-b")}, f.engine(t).LoadedModels())
}

func TestLoadModel_EngineFailureKeepsIdentity(t *testing.T) {
	f := newFixture(t, conversion.Options{})
	ctx := context.Background()

	first := model("a.pth", "weights-a")
	_, err := f.uc.LoadModel(ctx, f.sess, first)
	require.NoError(t, err)

	f.engine(t).LoadErr = errors.New("unsupported checkpoint")

	outcome, err := f.uc.LoadModel(ctx, f.sess, model("b.pth", "weights-b"))
	require.Error(t, err)
	assert.Equal(t, entity.LoadFailed, outcome)

	var loadErr *entity.ModelLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "unsupported checkpoint")
	assert.Equal(t, first.Identity(), f.sess.ModelIdentity())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.m.ModelLoads.WithLabelValues(metric.ResultFailed)))
	f.assertScratchEmpty(t)
}

func TestLoadModel_EmptyArtifact(t *testing.T) {
	f := newFixture(t, conversion.Options{})

	outcome, err := f.uc.LoadModel(context.Background(), f.sess, model("a.pth", ""))

	assert.Equal(t, entity.LoadFailed, outcome)
	assert.Equal(t, "failed", outcome.String())
	var loadErr *entity.ModelLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, entity.ErrEmptyArtifact)
	assert.Empty(t, f.factory.Engines())
	assert.Empty(t, f.sess.ModelIdentity())
}

func TestLoadModel_EngineConstructionFailure(t *testing.T) {
	f := newFixture(t, conversion.Options{})
	f.factory.Err = errors.New("no cpu backend")

	outcome, err := f.uc.LoadModel(context.Background(), f.sess, model("a.pth", "w"))

	assert.Equal(t, entity.LoadFailed, outcome)
	var loadErr *entity.ModelLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "no cpu backend")
}

func TestConvert_WithoutModelFails(t *testing.T) {
	f := newFixture(t, conversion.Options{})

	out, err := f.uc.Convert(context.Background(), f.sess, audio("clip.wav", "RIFF"), entity.DefaultParameters())

	assert.Nil(t, out)
	var convErr *entity.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.ErrorIs(t, err, entity.ErrNoModelLoaded)
	assert.Nil(t, f.sess.LastOutput())
	assert.Empty(t, f.factory.Engines())
}

func TestConvert_PassesEngineOutputThrough(t *testing.T) {
	f := newFixture(t, conversion.Options{})
	ctx := context.Background()

	want := []byte("RIFF\x00\x01\x02converted-by-engine")
	f.factory.Setup = func(e *rvc.StubEngine) { e.Output = want }

	_, err := f.uc.LoadModel(ctx, f.sess, model("a.pth", "w"))
	require.NoError(t, err)

	got, err := f.uc.Convert(ctx, f.sess, audio("clip.wav", "RIFF-input"), entity.DefaultParameters())
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, want, f.sess.LastOutput())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.m.Conversions.WithLabelValues(metric.ResultSucceeded, "harvest")))
	f.assertScratchEmpty(t)
}

func TestConvert_AppliesDefaultParametersVerbatim(t *testing.T) {
	f := newFixture(t, conversion.Options{})
	ctx := context.Background()

	_, err := f.uc.LoadModel(ctx, f.sess, model("a.pth", "w"))
	require.NoError(t, err)

	_, err = f.uc.Convert(ctx, f.sess, audio("clip.wav", "RIFF"), entity.DefaultParameters())
	require.NoError(t, err)

	params := f.engine(t).Params()
	require.Len(t, params, 1)
	assert.Equal(t, entity.ConversionParameters{
		PitchShift:   0,
		Protect:      0.33,
		IndexRate:    0.5,
		FilterRadius: 3,
		RMSMixRate:   0.25,
		Method:       entity.MethodHarvest,
	}, params[0])
}

func TestConvert_FailureKeepsPreviousOutput(t *testing.T) {
	f := newFixture(t, conversion.Options{})
	ctx := context.Background()

	_, err := f.uc.LoadModel(ctx, f.sess, model("a.pth", "w"))
	require.NoError(t, err)

	first, err := f.uc.Convert(ctx, f.sess, audio("clip.wav", "first"), entity.DefaultParameters())
	require.NoError(t, err)

	f.engine(t).ConvertErr = errors.New("harvest crashed")

	out, err := f.uc.Convert(ctx, f.sess, audio("clip.wav", "second"), entity.DefaultParameters())
	assert.Nil(t, out)

	var convErr *entity.ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Contains(t, err.Error(), "harvest crashed")
	assert.Equal(t, first, f.sess.LastOutput())
	f.assertScratchEmpty(t)
}

func TestConvert_EmptyOutputIsFailure(t *testing.T) {
	f := newFixture(t, conversion.Options{})
	ctx := context.Background()
	f.factory.Setup = func(e *rvc.StubEngine) { e.Output = []byte{} }

	_, err := f.uc.LoadModel(ctx, f.sess, model("a.pth", "w"))
	require.NoError(t, err)

	_, err = f.uc.Convert(ctx, f.sess, audio("clip.wav", "RIFF"), entity.DefaultParameters())
	assert.ErrorIs(t, err, entity.ErrEmptyOutput)
	assert.Nil(t, f.sess.LastOutput())
}

func TestConvert_EmptyAudio(t *testing.T) {
	f := newFixture(t, conversion.Options{})
	ctx := context.Background()

	_, err := f.uc.LoadModel(ctx, f.sess, model("a.pth", "w"))
	require.NoError(t, err)

	_, err = f.uc.Convert(ctx, f.sess, audio("clip.wav", ""), entity.DefaultParameters())
	assert.ErrorIs(t, err, entity.ErrEmptyArtifact)
	assert.Zero(t, f.engine(t).Converts())
}

// cancelAwareEngine fails when the context it is handed is already done.
type cancelAwareEngine struct {
	*rvc.StubEngine
}

func (e cancelAwareEngine) ConvertFile(ctx context.Context, in, out string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.StubEngine.ConvertFile(ctx, in, out)
}

func TestConvert_NotInterruptedByCallerCancel(t *testing.T) {
	f := newFixture(t, conversion.Options{})
	f.sess = session.New("sess-2", "cpu", func(device string) (entity.Engine, error) {
		return cancelAwareEngine{rvc.NewStubEngine(device)}, nil
	})

	_, err := f.uc.LoadModel(context.Background(), f.sess, model("a.pth", "w"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := f.uc.Convert(ctx, f.sess, audio("clip.wav", "RIFF"), entity.DefaultParameters())
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), out)
}

type fakeTranscoder struct {
	formats []string
}

func (tr *fakeTranscoder) ConvertToWav(_ context.Context, format, input, output string) error {
	tr.formats = append(tr.formats, format)
	b, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	return os.WriteFile(output, append([]byte("WAV:"), b...), 0o600)
}

func TestConvert_TranscodesNonWavInput(t *testing.T) {
	tr := &fakeTranscoder{}
	f := newFixture(t, conversion.Options{Transcoder: tr})
	ctx := context.Background()

	_, err := f.uc.LoadModel(ctx, f.sess, model("a.pth", "w"))
	require.NoError(t, err)

	out, err := f.uc.Convert(ctx, f.sess, audio("clip.MP3", "ID3"), entity.DefaultParameters())
	require.NoError(t, err)
	assert.Equal(t, []byte("WAV:ID3"), out)

	out, err = f.uc.Convert(ctx, f.sess, audio("clip.wav", "RIFF"), entity.DefaultParameters())
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), out)

	assert.Equal(t, []string{".mp3"}, tr.formats)
}

type memoryStorage struct {
	mu      sync.Mutex
	err     error
	objects map[string][]byte
}

func (s *memoryStorage) DownloadObject(_ context.Context, bucket, key string, w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.objects[bucket+"/"+key]
	if !ok {
		return entity.ErrArchiveNotFound
	}
	_, err := w.Write(b)
	return err
}

func (s *memoryStorage) UploadObject(_ context.Context, bucket, key string, r io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[bucket+"/"+key] = b
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.ConversionEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, ev entity.ConversionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, ev)
	return nil
}

func TestConvert_ArchivesAndPublishes(t *testing.T) {
	store := &memoryStorage{}
	pub := &recordingPublisher{}
	f := newFixture(t, conversion.Options{Archive: store, ArchiveBucket: "converted", Events: pub})
	ctx := context.Background()

	m := model("a.pth", "w")
	_, err := f.uc.LoadModel(ctx, f.sess, m)
	require.NoError(t, err)

	params := entity.DefaultParameters()
	params.PitchShift = 7
	out, err := f.uc.Convert(ctx, f.sess, audio("clip.wav", "RIFF"), params)
	require.NoError(t, err)

	require.Len(t, store.objects, 1)
	for _, b := range store.objects {
		assert.Equal(t, out, b)
	}

	require.Len(t, pub.events, 2)
	assert.Equal(t, entity.EventModelLoaded, pub.events[0].Type)
	assert.Equal(t, m.Identity(), pub.events[0].ModelIdentity)

	done := pub.events[1]
	assert.Equal(t, entity.EventConversionFinished, done.Type)
	assert.Equal(t, entity.StatusSucceeded, done.Status)
	assert.Equal(t, "sess-1", done.SessionID)
	assert.Equal(t, len(out), done.OutputBytes)
	require.NotNil(t, done.Params)
	assert.Equal(t, 7, done.Params.PitchShift)
	assert.NotEmpty(t, done.ArchiveKey)
	assert.Contains(t, store.objects, "converted/"+done.ArchiveKey)
	assert.Equal(t, "sess-1/"+f.sess.LastArchive(), done.ArchiveKey)
}

func TestConvert_ArchiveFailureDoesNotFailConversion(t *testing.T) {
	store := &memoryStorage{err: errors.New("bucket missing")}
	pub := &recordingPublisher{}
	f := newFixture(t, conversion.Options{Archive: store, ArchiveBucket: "converted", Events: pub})
	ctx := context.Background()

	_, err := f.uc.LoadModel(ctx, f.sess, model("a.pth", "w"))
	require.NoError(t, err)

	out, err := f.uc.Convert(ctx, f.sess, audio("clip.wav", "RIFF"), entity.DefaultParameters())
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), out)
	assert.Empty(t, pub.events[len(pub.events)-1].ArchiveKey)
	assert.Empty(t, f.sess.LastArchive())
}

func TestConvert_FailurePublishesFailedEvent(t *testing.T) {
	pub := &recordingPublisher{}
	f := newFixture(t, conversion.Options{Events: pub})

	_, err := f.uc.Convert(context.Background(), f.sess, audio("clip.wav", "RIFF"), entity.DefaultParameters())
	require.Error(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, entity.StatusFailed, pub.events[0].Status)
	assert.Equal(t, entity.ErrNoModelLoaded.Error(), pub.events[0].Error)
}

func TestFetchArchived_ReturnsSessionOutput(t *testing.T) {
	store := &memoryStorage{}
	f := newFixture(t, conversion.Options{Archive: store, ArchiveBucket: "converted"})
	ctx := context.Background()

	_, err := f.uc.LoadModel(ctx, f.sess, model("a.pth", "w"))
	require.NoError(t, err)
	out, err := f.uc.Convert(ctx, f.sess, audio("clip.wav", "RIFF-archived"), entity.DefaultParameters())
	require.NoError(t, err)

	name := f.sess.LastArchive()
	require.NotEmpty(t, name)

	got, err := f.uc.FetchArchived(ctx, f.sess, name)
	require.NoError(t, err)
	assert.Equal(t, out, got)

	// another session cannot read it under the same name
	other := session.New("sess-2", "cpu", f.factory.New)
	_, err = f.uc.FetchArchived(ctx, other, name)
	assert.ErrorIs(t, err, entity.ErrArchiveNotFound)
}

func TestFetchArchived_RejectsForeignNames(t *testing.T) {
	store := &memoryStorage{objects: map[string][]byte{"converted/sess-2/secret.wav": []byte("x")}}
	f := newFixture(t, conversion.Options{Archive: store, ArchiveBucket: "converted"})

	for _, name := range []string{"../sess-2/secret.wav", "secret.wav", "0b9f3c1e-8f4e-4a55-9a4b-1f1d2c3e4f5a", ""} {
		_, err := f.uc.FetchArchived(context.Background(), f.sess, name)
		assert.ErrorIs(t, err, entity.ErrArchiveNotFound, name)
	}
}

func TestFetchArchived_Disabled(t *testing.T) {
	f := newFixture(t, conversion.Options{})

	_, err := f.uc.FetchArchived(context.Background(), f.sess, "0b9f3c1e-8f4e-4a55-9a4b-1f1d2c3e4f5a.wav")
	assert.ErrorIs(t, err, entity.ErrArchiveDisabled)
}
