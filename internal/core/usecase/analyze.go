package usecase

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/resume-insight/internal/core/domain"
	"github.com/kirillkom/resume-insight/internal/core/ports"
)

// StatusSink receives a human-readable status line on every stage
// transition. Status text is observability only and is never part of
// the persisted record.
type StatusSink func(stage domain.Stage, text string)

// AnalyzeConfig tunes one orchestrator instance.
type AnalyzeConfig struct {
	Providers     []string
	UploadTimeout time.Duration
	Status        StatusSink
}

// AnalyzeUseCase drives the checkpointed analysis pipeline: upload the
// source document, derive and upload a raster preview, persist an
// initial record, evaluate with the provider fallback resolver, and
// persist the final record. Upload, conversion, and persistence
// failures are fatal; analysis and sanitize failures degrade to the
// demo feedback and the run still completes.
type AnalyzeUseCase struct {
	storage  ports.BlobStorage
	raster   ports.Rasterizer
	records  ports.RecordStore
	resolver *ProviderResolver
	queue    ports.MessageQueue

	providers     []string
	uploadTimeout time.Duration
	status        StatusSink

	inFlight atomic.Bool
}

func NewAnalyzeUseCase(
	storage ports.BlobStorage,
	raster ports.Rasterizer,
	records ports.RecordStore,
	gateway ports.AIGateway,
	queue ports.MessageQueue,
	cfg AnalyzeConfig,
) *AnalyzeUseCase {
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 30 * time.Second
	}
	if cfg.Status == nil {
		cfg.Status = func(domain.Stage, string) {}
	}
	return &AnalyzeUseCase{
		storage:       storage,
		raster:        raster,
		records:       records,
		resolver:      NewProviderResolver(gateway),
		queue:         queue,
		providers:     cfg.Providers,
		uploadTimeout: cfg.UploadTimeout,
		status:        cfg.Status,
	}
}

func (uc *AnalyzeUseCase) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	if !uc.inFlight.CompareAndSwap(false, true) {
		return nil, domain.ErrRunInProgress
	}
	defer uc.inFlight.Store(false)

	if len(req.Document) == 0 {
		return nil, uc.fail(domain.WrapError(domain.ErrUploadFailed, "upload source document", errors.New("empty document")))
	}

	uc.status(domain.StageUploadingSource, "Uploading the file...")
	sourcePath, err := awaitPathWithTimeout(ctx, uc.uploadTimeout, "upload source document", func(opCtx context.Context) (string, error) {
		return uc.storage.Upload(opCtx, req.Filename, bytes.NewReader(req.Document))
	})
	if err != nil {
		return nil, uc.fail(wrapUnlessTimedOut(domain.ErrUploadFailed, "upload source document", err))
	}

	uc.status(domain.StageConvertingPrev, "Converting to image...")
	preview, err := uc.raster.Convert(ctx, req.Document)
	if err != nil {
		return nil, uc.fail(domain.WrapError(domain.ErrConversionFailed, "convert preview", err))
	}

	uc.status(domain.StageUploadingPreview, "Uploading the image...")
	previewPath, err := awaitPathWithTimeout(ctx, uc.uploadTimeout, "upload preview image", func(opCtx context.Context) (string, error) {
		return uc.storage.Upload(opCtx, previewFilename(req.Filename), bytes.NewReader(preview))
	})
	if err != nil {
		return nil, uc.fail(wrapUnlessTimedOut(domain.ErrUploadFailed, "upload preview image", err))
	}

	uc.status(domain.StagePersistingInit, "Preparing data...")
	record := &domain.EvaluationRecord{
		ID:          uuid.NewString(),
		SourcePath:  sourcePath,
		PreviewPath: previewPath,
		Context:     req.Context,
		Evaluation:  domain.PlaceholderFeedback(),
	}
	if err := uc.records.Save(ctx, record); err != nil {
		return nil, uc.fail(domain.WrapError(domain.ErrPersistence, "persist initial record", err))
	}

	uc.status(domain.StageAnalyzing, "Analyzing with AI...")
	evaluation, provider, fallbackReason := uc.evaluate(ctx, sourcePath, req.Context)

	usedFallback := fallbackReason != ""
	if usedFallback {
		uc.status(domain.StageUsingFallback, "AI service unavailable - using demo feedback...")
		evaluation = FallbackFeedback()
	}

	uc.status(domain.StagePersistingFinal, "Saving the evaluation...")
	record.Evaluation = evaluation
	if err := uc.records.Save(ctx, record); err != nil {
		return nil, uc.fail(domain.WrapError(domain.ErrPersistence, "persist final record", err))
	}

	finalStatus := "Analysis complete"
	if usedFallback {
		finalStatus = "Demo analysis complete"
	}
	uc.status(domain.StageDone, finalStatus)

	if uc.queue != nil {
		// Completion events are best effort; the record is already durable.
		_ = uc.queue.PublishAnalysisCompleted(ctx, record.ID)
	}

	return &domain.AnalysisResult{
		Record:         record,
		Provider:       provider,
		UsedFallback:   usedFallback,
		FallbackReason: fallbackReason,
		Status:         finalStatus,
	}, nil
}

// evaluate runs resolution and sanitizing. Any failure here is
// non-fatal: it reports a fallback reason instead of an error.
func (uc *AnalyzeUseCase) evaluate(ctx context.Context, sourcePath string, jobCtx domain.JobContext) (domain.Feedback, string, string) {
	resolution, err := uc.resolver.Resolve(ctx, uc.providers, domain.ProviderRequest{
		SourcePath:   sourcePath,
		Instructions: buildEvaluationInstructions(jobCtx),
	})
	if err != nil {
		return domain.Feedback{}, "", "providers exhausted: " + err.Error()
	}

	uc.status(domain.StageSanitizing, "Processing AI feedback...")
	feedback, err := parseFeedback(resolution.Response)
	if err != nil {
		return domain.Feedback{}, "", "malformed response: " + err.Error()
	}
	return feedback, resolution.Provider, ""
}

func (uc *AnalyzeUseCase) fail(err error) error {
	uc.status(domain.StageFailed, "Error: "+err.Error())
	return err
}

func wrapUnlessTimedOut(kind error, operation string, err error) error {
	if domain.IsKind(err, domain.ErrTimedOut) {
		return err
	}
	return domain.WrapError(kind, operation, err)
}

func previewFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" {
		base = "preview"
	}
	return base + ".png"
}
