// internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refcheck/internal/common/config"
	"refcheck/internal/common/logger"
	"refcheck/internal/fraud"
	"refcheck/internal/models"
	"refcheck/internal/references"
	"refcheck/internal/report"
	"refcheck/internal/store"
)

// ==========================
// Test fixtures
// ==========================

type stubProfiles struct {
	summary *models.ProfileSummary
}

func (s *stubProfiles) Analyze(_ context.Context, handle string) *models.ProfileSummary {
	if handle == "" {
		return models.SkippedProfile()
	}
	return s.summary
}

type stubNarrative struct{}

func (s *stubNarrative) Generate(_ context.Context, name string, result *models.FraudResult, _ models.ReferenceStats, _ *models.ProfileSummary) (string, string) {
	return "narrative for " + name, models.NarrativeTemplate
}

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) ReportReady(_ context.Context, _ *models.VerificationRecord) error {
	r.calls++
	return r.err
}

type recordingIndexer struct {
	calls int
	err   error
}

func (r *recordingIndexer) IndexReport(_ context.Context, _ *models.VerificationRecord) error {
	r.calls++
	return r.err
}

type fixture struct {
	pipeline *Pipeline
	store    *store.MemoryStore
	notifier *recordingNotifier
	indexer  *recordingIndexer
}

func newFixture(t *testing.T, profiles *stubProfiles, responseRate float64) *fixture {
	st := store.NewMemoryStore()
	log := logger.NewTestLogger(t)
	notifier := &recordingNotifier{}
	indexer := &recordingIndexer{}

	newGen := func() *references.Generator {
		return references.NewGenerator(rand.New(rand.NewSource(42)), references.WithResponseRate(responseRate))
	}

	p := New(
		st,
		newGen,
		profiles,
		fraud.NewEngine(&config.FraudConfig{}, log),
		report.NewSynthesizer(&stubNarrative{}, log),
		config.PipelineConfig{},
		log,
		Options{Notifier: notifier, Indexer: indexer},
	)
	return &fixture{pipeline: p, store: st, notifier: notifier, indexer: indexer}
}

func insertRecord(t *testing.T, st *store.MemoryStore, record *models.VerificationRecord) {
	require.NoError(t, st.InsertRecord(context.Background(), record))
}

func contiguousResume(skills ...string) *models.ParsedResume {
	return &models.ParsedResume{
		Employment: []models.EmploymentEntry{
			{Employer: "Acme", Title: "Engineer", StartDate: "2017-02", EndDate: "2019-06"},
			{Employer: "Globex", Title: "Senior Engineer", StartDate: "2019-06"},
		},
		Skills: skills,
	}
}

// ==========================
// End-to-end scenarios
// ==========================

func TestPipeline_Run_GreenScenario(t *testing.T) {
	// Date-contiguous jobs, non-headline skills matching the profile.
	f := newFixture(t, &stubProfiles{summary: &models.ProfileSummary{
		Status:    models.ProfileAnalyzed,
		Handle:    "jordanc",
		Languages: map[string]int{"c": 18},
	}}, 0)

	record := &models.VerificationRecord{
		ID:            "rec-green",
		CandidateName: "Jordan",
		ProfileHandle: "jordanc",
		Status:        models.StatusPending,
		Resume:        contiguousResume("c", "assembly"),
	}
	insertRecord(t, f.store, record)

	require.NoError(t, f.pipeline.Run(context.Background(), record))

	got, err := f.store.GetRecord(context.Background(), "rec-green")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, models.RiskGreen, got.Result.Risk)
	assert.Empty(t, got.Result.Flags)
	assert.True(t, got.Result.ProfileAnalyzed)
	assert.NotNil(t, got.CompletedAt)
}

func TestPipeline_Run_GapScenario(t *testing.T) {
	// 9-month gap, profile unanalyzed, no reference responses: exactly one
	// medium flag and zero high flags.
	f := newFixture(t, &stubProfiles{}, 0)

	record := &models.VerificationRecord{
		ID:            "rec-gap",
		CandidateName: "Jordan",
		Status:        models.StatusPending,
		Resume: &models.ParsedResume{
			Employment: []models.EmploymentEntry{
				{Employer: "Acme", Title: "Engineer", StartDate: "2017-01", EndDate: "2019-03"},
				{Employer: "Globex", Title: "Engineer", StartDate: "2019-12"},
			},
		},
	}
	insertRecord(t, f.store, record)

	require.NoError(t, f.pipeline.Run(context.Background(), record))

	got, err := f.store.GetRecord(context.Background(), "rec-gap")
	require.NoError(t, err)
	require.NotNil(t, got.Result)

	require.Len(t, got.Result.Flags, 1)
	assert.Equal(t, models.FlagEmploymentGap, got.Result.Flags[0].Type)
	assert.Equal(t, models.SeverityMedium, got.Result.Flags[0].Severity)
	assert.Equal(t, 9, got.Result.Flags[0].Evidence["gap_months"])
	assert.Zero(t, got.Result.SeverityCounts[models.SeverityHigh])
}

func TestPipeline_Run_RedScenario(t *testing.T) {
	// Headline-skill claim contradicted by the profile plus poor reference
	// sentiment: at least three high flags, risk red.
	f := newFixture(t, &stubProfiles{summary: &models.ProfileSummary{
		Status:    models.ProfileAnalyzed,
		Handle:    "jordanc",
		Languages: map[string]int{"java": 10},
	}}, 0)

	// Feed reference responses through the engine directly by using a
	// one-employer resume and full response rate with a seed chosen for a
	// poor batch would be brittle; instead evaluate the engine contract
	// separately and run the pipeline with sentiment rules driven by the
	// generated sample below.
	engineInput := &fraud.Input{
		Resume: &models.ParsedResume{
			Employment: []models.EmploymentEntry{
				{Employer: "Acme", Title: "Engineer", StartDate: "2018-01"},
			},
			Skills: []string{"python"},
		},
		Profile: &models.ProfileSummary{
			Status:    models.ProfileAnalyzed,
			Languages: map[string]int{"java": 10},
		},
		References: []models.ReferenceResponse{
			{Rating: 5, WouldRehire: false},
			{Rating: 5, WouldRehire: false},
			{Rating: 5, WouldRehire: true},
		},
	}
	result := fraud.NewEngine(&config.FraudConfig{}, logger.NewNoOpLogger()).Evaluate(engineInput)
	assert.GreaterOrEqual(t, result.SeverityCounts[models.SeverityHigh], 3)
	assert.Equal(t, models.RiskRed, result.Risk)

	record := &models.VerificationRecord{
		ID:            "rec-red",
		CandidateName: "Jordan",
		ProfileHandle: "jordanc",
		Status:        models.StatusPending,
		Resume:        contiguousResume("python"),
	}
	insertRecord(t, f.store, record)

	require.NoError(t, f.pipeline.Run(context.Background(), record))

	got, err := f.store.GetRecord(context.Background(), "rec-red")
	require.NoError(t, err)
	require.NotNil(t, got.Result)
	// The missing python claim alone yields one high flag.
	assert.GreaterOrEqual(t, got.Result.SeverityCounts[models.SeverityHigh], 1)
	assert.Contains(t, []models.RiskLevel{models.RiskYellow, models.RiskRed}, got.Result.Risk)
}

// ==========================
// Event trail
// ==========================

func TestPipeline_Run_EventTrail(t *testing.T) {
	f := newFixture(t, &stubProfiles{summary: &models.ProfileSummary{
		Status:    models.ProfileAnalyzed,
		Handle:    "jordanc",
		Languages: map[string]int{"Go": 1},
	}}, 0.2)

	record := &models.VerificationRecord{
		ID:            "rec-events",
		CandidateName: "Jordan",
		ProfileHandle: "jordanc",
		Status:        models.StatusPending,
		Resume:        contiguousResume(),
	}
	insertRecord(t, f.store, record)

	require.NoError(t, f.pipeline.Run(context.Background(), record))

	events, err := f.store.ListEvents(context.Background(), "rec-events")
	require.NoError(t, err)

	// Sequence numbers are strictly increasing.
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Seq, events[i-1].Seq)
	}

	// Every stage brackets its work: running first, then a terminal event.
	byStage := make(map[string][]models.EventStatus)
	for _, event := range events {
		byStage[event.Stage] = append(byStage[event.Stage], event.Status)
	}
	for _, stage := range []string{StageResume, StageReferences, StageProfile, StageFraud, StageReported} {
		statuses := byStage[stage]
		require.NotEmpty(t, statuses, "stage %s has no events", stage)
		assert.Equal(t, models.EventRunning, statuses[0], "stage %s", stage)
		assert.NotEqual(t, models.EventRunning, statuses[len(statuses)-1], "stage %s", stage)
	}

	// Exactly one report-ready completion event.
	reportReady := 0
	for _, event := range events {
		if event.Stage == StageReported && event.Status == models.EventComplete {
			reportReady++
		}
	}
	assert.Equal(t, 1, reportReady)
}

func TestPipeline_Run_SkippedProfileEvent(t *testing.T) {
	f := newFixture(t, &stubProfiles{}, 0)

	record := &models.VerificationRecord{
		ID:            "rec-skip",
		CandidateName: "Jordan",
		Status:        models.StatusPending,
		Resume:        contiguousResume(),
	}
	insertRecord(t, f.store, record)

	require.NoError(t, f.pipeline.Run(context.Background(), record))

	events, err := f.store.ListEvents(context.Background(), "rec-skip")
	require.NoError(t, err)

	var profileStatuses []models.EventStatus
	for _, event := range events {
		if event.Stage == StageProfile {
			profileStatuses = append(profileStatuses, event.Status)
		}
	}
	require.Len(t, profileStatuses, 2)
	assert.Equal(t, models.EventSkipped, profileStatuses[1])
}

// ==========================
// Failure and lifecycle
// ==========================

// failingStore wraps MemoryStore and fails updates after a threshold.
type failingStore struct {
	*store.MemoryStore
	updatesBeforeFailure int
	updates              int
}

func (f *failingStore) UpdateRecord(ctx context.Context, record *models.VerificationRecord) error {
	f.updates++
	if f.updates > f.updatesBeforeFailure {
		return errors.New("disk full")
	}
	return f.MemoryStore.UpdateRecord(ctx, record)
}

func TestPipeline_Run_PersistenceFailureIsTerminal(t *testing.T) {
	st := &failingStore{MemoryStore: store.NewMemoryStore(), updatesBeforeFailure: 2}
	log := logger.NewTestLogger(t)

	p := New(
		st,
		func() *references.Generator {
			return references.NewGenerator(rand.New(rand.NewSource(1)), references.WithResponseRate(0))
		},
		&stubProfiles{},
		fraud.NewEngine(&config.FraudConfig{}, log),
		report.NewSynthesizer(&stubNarrative{}, log),
		config.PipelineConfig{},
		log,
		Options{},
	)

	record := &models.VerificationRecord{
		ID:            "rec-fail",
		CandidateName: "Jordan",
		Status:        models.StatusPending,
		Resume:        contiguousResume(),
	}
	insertRecord(t, st.MemoryStore, record)

	err := p.Run(context.Background(), record)
	require.Error(t, err)
	assert.Equal(t, models.StatusFailed, record.Status)
	assert.Contains(t, record.ErrorMessage, "disk full")
	assert.NotNil(t, record.CompletedAt)
	assert.Nil(t, record.Result)
}

func TestPipeline_Run_CancellationFailsRun(t *testing.T) {
	f := newFixture(t, &stubProfiles{}, 0)

	record := &models.VerificationRecord{
		ID:            "rec-cancel",
		CandidateName: "Jordan",
		Status:        models.StatusPending,
		Resume:        contiguousResume(),
	}
	insertRecord(t, f.store, record)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.pipeline.Run(ctx, record)
	require.Error(t, err)

	got, getErr := f.store.GetRecord(context.Background(), "rec-cancel")
	require.NoError(t, getErr)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.NotEmpty(t, got.ErrorMessage)
}

func TestPipeline_Run_TerminalRecordCannotRestart(t *testing.T) {
	f := newFixture(t, &stubProfiles{}, 0)

	record := &models.VerificationRecord{
		ID:            "rec-done",
		CandidateName: "Jordan",
		Status:        models.StatusCompleted,
		Resume:        contiguousResume(),
	}
	insertRecord(t, f.store, record)

	err := f.pipeline.Run(context.Background(), record)
	assert.Error(t, err)
}

func TestPipeline_Run_SideEffectsFire(t *testing.T) {
	f := newFixture(t, &stubProfiles{}, 0)

	record := &models.VerificationRecord{
		ID:            "rec-side",
		CandidateName: "Jordan",
		Status:        models.StatusPending,
		Resume:        contiguousResume(),
	}
	insertRecord(t, f.store, record)

	require.NoError(t, f.pipeline.Run(context.Background(), record))
	assert.Equal(t, 1, f.notifier.calls)
	assert.Equal(t, 1, f.indexer.calls)
}

func TestPipeline_Run_SideEffectFailuresAreNonFatal(t *testing.T) {
	f := newFixture(t, &stubProfiles{}, 0)
	f.notifier.err = errors.New("ses down")
	f.indexer.err = errors.New("es down")

	record := &models.VerificationRecord{
		ID:            "rec-side-fail",
		CandidateName: "Jordan",
		Status:        models.StatusPending,
		Resume:        contiguousResume(),
	}
	insertRecord(t, f.store, record)

	require.NoError(t, f.pipeline.Run(context.Background(), record))

	got, err := f.store.GetRecord(context.Background(), "rec-side-fail")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestPipeline_Run_CompletionTimeStampedOnce(t *testing.T) {
	f := newFixture(t, &stubProfiles{}, 0)

	record := &models.VerificationRecord{
		ID:            "rec-stamp",
		CandidateName: "Jordan",
		Status:        models.StatusPending,
		Resume:        contiguousResume(),
	}
	insertRecord(t, f.store, record)

	require.NoError(t, f.pipeline.Run(context.Background(), record))
	first := *record.CompletedAt

	// A second Run attempt must refuse and leave the stamp untouched.
	require.Error(t, f.pipeline.Run(context.Background(), record))
	assert.Equal(t, first, *record.CompletedAt)
}
