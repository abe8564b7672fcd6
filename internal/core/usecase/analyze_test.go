package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/resume-insight/internal/core/domain"
)

type storageFake struct {
	mu      sync.Mutex
	uploads []string
	err     error
	delay   time.Duration
	block   chan struct{}
}

func (f *storageFake) Upload(_ context.Context, filename string, _ io.Reader) (string, error) {
	if f.block != nil {
		<-f.block
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, filename)
	return "stored/" + filename, nil
}

func (f *storageFake) Read(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

type rasterFake struct {
	image []byte
	err   error
}

func (f *rasterFake) Convert(context.Context, []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.image, nil
}

type recordStoreFake struct {
	mu    sync.Mutex
	saves []domain.EvaluationRecord
	err   error
}

func (f *recordStoreFake) Save(_ context.Context, record *domain.EvaluationRecord) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, *record)
	return nil
}

func (f *recordStoreFake) Load(_ context.Context, id string) (*domain.EvaluationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.saves) - 1; i >= 0; i-- {
		if f.saves[i].ID == id {
			rec := f.saves[i]
			return &rec, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

type queueFake struct {
	completed []string
}

func (f *queueFake) PublishAnalysisCompleted(_ context.Context, recordID string) error {
	f.completed = append(f.completed, recordID)
	return nil
}

func (f *queueFake) SubscribeAnalysisRequests(context.Context, func(context.Context, domain.AnalysisRequest) error) error {
	return nil
}

type statusRecorder struct {
	stages []domain.Stage
	texts  []string
}

func (r *statusRecorder) sink(stage domain.Stage, text string) {
	r.stages = append(r.stages, stage)
	r.texts = append(r.texts, text)
}

func analyzeRequest() domain.AnalysisRequest {
	return domain.AnalysisRequest{
		Filename: "resume.pdf",
		Document: []byte("%PDF-fake"),
		Context:  domain.JobContext{Org: "Acme", Role: "Engineer", RoleDescription: "Builds things"},
	}
}

func newAnalyzeFixture(gateway *gatewayFake, providers []string) (*AnalyzeUseCase, *recordStoreFake, *queueFake, *statusRecorder) {
	records := &recordStoreFake{}
	queue := &queueFake{}
	recorder := &statusRecorder{}
	uc := NewAnalyzeUseCase(
		&storageFake{},
		&rasterFake{image: []byte("png-bytes")},
		records,
		gateway,
		queue,
		AnalyzeConfig{Providers: providers, UploadTimeout: time.Second, Status: recorder.sink},
	)
	return uc, records, queue, recorder
}

func TestAnalyzeHappyPath(t *testing.T) {
	gateway := &gatewayFake{outcomes: []invokeOutcome{{resp: successResponse(validFeedbackJSON)}}}
	uc, records, queue, recorder := newAnalyzeFixture(gateway, []string{"p1"})

	result, err := uc.Analyze(context.Background(), analyzeRequest())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.UsedFallback {
		t.Fatalf("expected provider-derived evaluation")
	}
	if result.Provider != "p1" {
		t.Fatalf("provider = %s, want p1", result.Provider)
	}
	if len(records.saves) != 2 {
		t.Fatalf("expected 2 checkpoints, got %d", len(records.saves))
	}

	initial, final := records.saves[0], records.saves[1]
	if initial.ID != final.ID {
		t.Fatalf("record id changed between checkpoints")
	}
	if initial.SourcePath != "stored/resume.pdf" || initial.PreviewPath != "stored/resume.png" {
		t.Fatalf("paths not set together: %+v", initial)
	}
	if initial.Evaluation.OverallScore != 0 {
		t.Fatalf("initial checkpoint must carry the placeholder")
	}
	if final.Evaluation.OverallScore != 64 {
		t.Fatalf("final evaluation = %d, want decoded provider payload", final.Evaluation.OverallScore)
	}
	if result.Status != "Analysis complete" {
		t.Fatalf("status = %q", result.Status)
	}
	if len(queue.completed) != 1 || queue.completed[0] != final.ID {
		t.Fatalf("completion event not published: %+v", queue.completed)
	}
	if recorder.stages[len(recorder.stages)-1] != domain.StageDone {
		t.Fatalf("expected terminal done stage, got %v", recorder.stages)
	}
}

func TestAnalyzeSourceUploadTimeoutIsFatal(t *testing.T) {
	records := &recordStoreFake{}
	recorder := &statusRecorder{}
	uc := NewAnalyzeUseCase(
		&storageFake{delay: 200 * time.Millisecond},
		&rasterFake{image: []byte("png")},
		records,
		&gatewayFake{},
		nil,
		AnalyzeConfig{Providers: []string{"p1"}, UploadTimeout: 5 * time.Millisecond, Status: recorder.sink},
	)

	_, err := uc.Analyze(context.Background(), analyzeRequest())
	if !domain.IsKind(err, domain.ErrTimedOut) {
		t.Fatalf("expected timed-out kind, got %v", err)
	}
	if len(records.saves) != 0 {
		t.Fatalf("no record may be persisted before the initial checkpoint")
	}
	if recorder.stages[len(recorder.stages)-1] != domain.StageFailed {
		t.Fatalf("expected failed terminal stage, got %v", recorder.stages)
	}
	if !strings.HasPrefix(recorder.texts[len(recorder.texts)-1], "Error: ") {
		t.Fatalf("failure status must carry the error message: %q", recorder.texts)
	}
}

func TestAnalyzeConversionFailureIsFatal(t *testing.T) {
	records := &recordStoreFake{}
	uc := NewAnalyzeUseCase(
		&storageFake{},
		&rasterFake{err: errors.New("unsupported format")},
		records,
		&gatewayFake{},
		nil,
		AnalyzeConfig{Providers: []string{"p1"}, UploadTimeout: time.Second},
	)

	_, err := uc.Analyze(context.Background(), analyzeRequest())
	if !domain.IsKind(err, domain.ErrConversionFailed) {
		t.Fatalf("expected conversion-failure kind, got %v", err)
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Fatalf("error must carry the capability's reason: %v", err)
	}
	if len(records.saves) != 0 {
		t.Fatalf("no record may exist for a failed run")
	}
}

func TestAnalyzeInitialPersistFailureIsFatal(t *testing.T) {
	records := &recordStoreFake{err: errors.New("kv down")}
	uc := NewAnalyzeUseCase(
		&storageFake{},
		&rasterFake{image: []byte("png")},
		records,
		&gatewayFake{},
		nil,
		AnalyzeConfig{Providers: []string{"p1"}, UploadTimeout: time.Second},
	)

	_, err := uc.Analyze(context.Background(), analyzeRequest())
	if !domain.IsKind(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence kind, got %v", err)
	}
}

func TestAnalyzeDegradesToFallbackWhenProvidersExhausted(t *testing.T) {
	gateway := &gatewayFake{outcomes: []invokeOutcome{{err: errors.New("down")}}}
	uc, records, _, recorder := newAnalyzeFixture(gateway, []string{"p1"})

	result, err := uc.Analyze(context.Background(), analyzeRequest())
	if err != nil {
		t.Fatalf("degradation must not abort the run: %v", err)
	}
	if !result.UsedFallback {
		t.Fatalf("expected fallback feedback")
	}
	if result.Status != "Demo analysis complete" {
		t.Fatalf("status = %q", result.Status)
	}

	final := records.saves[len(records.saves)-1].Evaluation
	if final.OverallScore != FallbackFeedback().OverallScore {
		t.Fatalf("final evaluation must be the demo default, got %d", final.OverallScore)
	}
	if err := final.Validate(); err != nil {
		t.Fatalf("fallback feedback must be schema-complete: %v", err)
	}

	sawFallbackStage := false
	for _, stage := range recorder.stages {
		if stage == domain.StageUsingFallback {
			sawFallbackStage = true
		}
	}
	if !sawFallbackStage {
		t.Fatalf("missing fallback stage in %v", recorder.stages)
	}
}

func TestAnalyzeDegradesOnMalformedResponse(t *testing.T) {
	gateway := &gatewayFake{outcomes: []invokeOutcome{{resp: successResponse("not json at all")}}}
	uc, records, _, _ := newAnalyzeFixture(gateway, []string{"p1"})

	result, err := uc.Analyze(context.Background(), analyzeRequest())
	if err != nil {
		t.Fatalf("malformed response must not abort the run: %v", err)
	}
	if !result.UsedFallback {
		t.Fatalf("expected fallback feedback")
	}
	if !strings.Contains(result.FallbackReason, "malformed") {
		t.Fatalf("fallback reason = %q", result.FallbackReason)
	}
	if len(records.saves) != 2 {
		t.Fatalf("both checkpoints must still be written, got %d", len(records.saves))
	}
}

func TestAnalyzeEmptyProviderListStillCompletes(t *testing.T) {
	gateway := &gatewayFake{}
	uc, records, _, recorder := newAnalyzeFixture(gateway, nil)

	result, err := uc.Analyze(context.Background(), analyzeRequest())
	if err != nil {
		t.Fatalf("empty provider list must degrade, not fail: %v", err)
	}
	if !result.UsedFallback {
		t.Fatalf("expected fallback feedback")
	}
	if len(records.saves) != 2 {
		t.Fatalf("expected 2 checkpoints, got %d", len(records.saves))
	}
	if recorder.stages[len(recorder.stages)-1] != domain.StageDone {
		t.Fatalf("pipeline must reach done, got %v", recorder.stages)
	}
}

func TestAnalyzeSoftFailureThenSuccessScenario(t *testing.T) {
	gateway := &gatewayFake{outcomes: []invokeOutcome{
		{resp: softFailure("no capacity")},
		{resp: successResponse(validFeedbackJSON)},
	}}
	uc, records, _, _ := newAnalyzeFixture(gateway, []string{"P1", "P2"})

	result, err := uc.Analyze(context.Background(), analyzeRequest())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.Provider != "P2" {
		t.Fatalf("provider = %s, want P2", result.Provider)
	}
	if records.saves[1].Evaluation.OverallScore != 64 {
		t.Fatalf("final evaluation must match P2's decoded payload")
	}
	if len(gateway.calls) != 2 {
		t.Fatalf("expected exactly 2 provider calls, got %d", len(gateway.calls))
	}
	if gateway.calls[0].hasOpts {
		t.Fatalf("P1 must be invoked without a model parameter")
	}
	if gateway.calls[1].model != "P2" {
		t.Fatalf("P2 must be invoked with model=P2, got %+v", gateway.calls[1])
	}
}

func TestAnalyzeRejectsReentrantRun(t *testing.T) {
	block := make(chan struct{})
	storage := &storageFake{block: block}
	records := &recordStoreFake{}
	uc := NewAnalyzeUseCase(
		storage,
		&rasterFake{image: []byte("png")},
		records,
		&gatewayFake{outcomes: []invokeOutcome{{resp: successResponse(validFeedbackJSON)}}},
		nil,
		AnalyzeConfig{Providers: []string{"p1"}, UploadTimeout: time.Second},
	)

	firstDone := make(chan error, 1)
	go func() {
		_, err := uc.Analyze(context.Background(), analyzeRequest())
		firstDone <- err
	}()

	// Wait for the first run to take the in-flight slot.
	deadline := time.After(time.Second)
	for !uc.inFlight.Load() {
		select {
		case <-deadline:
			t.Fatalf("first run never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	_, err := uc.Analyze(context.Background(), analyzeRequest())
	if !errors.Is(err, domain.ErrRunInProgress) {
		t.Fatalf("expected run-in-progress rejection, got %v", err)
	}

	close(block)
	if err := <-firstDone; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
}

func TestAnalyzeLastWriteWinsOnRepeatedSaves(t *testing.T) {
	records := &recordStoreFake{}
	rec := &domain.EvaluationRecord{ID: "r-1", Evaluation: domain.PlaceholderFeedback()}
	if err := records.Save(context.Background(), rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec.Evaluation = FallbackFeedback()
	if err := records.Save(context.Background(), rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := records.Load(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Evaluation.OverallScore != FallbackFeedback().OverallScore {
		t.Fatalf("load must return the last written value, got %d", loaded.Evaluation.OverallScore)
	}
}

func TestAnalyzeEmptyDocumentRejected(t *testing.T) {
	uc, records, _, _ := newAnalyzeFixture(&gatewayFake{}, []string{"p1"})
	req := analyzeRequest()
	req.Document = nil

	_, err := uc.Analyze(context.Background(), req)
	if !domain.IsKind(err, domain.ErrUploadFailed) {
		t.Fatalf("expected upload-failure kind, got %v", err)
	}
	if len(records.saves) != 0 {
		t.Fatalf("no record may be persisted")
	}
}
