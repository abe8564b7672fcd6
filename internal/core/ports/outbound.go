package ports

import (
	"context"
	"io"

	"github.com/kirillkom/resume-insight/internal/core/domain"
)

// BlobStorage stores source documents and preview images. Upload
// returns the stable path the content is retrievable under.
type BlobStorage interface {
	Upload(ctx context.Context, filename string, body io.Reader) (string, error)
	Read(ctx context.Context, path string) (io.ReadCloser, error)
}

// RecordStore persists evaluation records under a stable key derived
// from the record id. Writes for one key are applied in call order;
// the last write wins. Load reports absence as ErrRecordNotFound.
type RecordStore interface {
	Save(ctx context.Context, record *domain.EvaluationRecord) error
	Load(ctx context.Context, id string) (*domain.EvaluationRecord, error)
}

// AIGateway invokes a single AI backend. A nil options value means the
// default/free tier; otherwise the named model is requested.
type AIGateway interface {
	Invoke(ctx context.Context, req domain.ProviderRequest, opts *domain.InvokeOptions) (*domain.ProviderResponse, error)
}

// Rasterizer converts document bytes into a raster preview image.
type Rasterizer interface {
	Convert(ctx context.Context, document []byte) ([]byte, error)
}

// MessageQueue carries analysis requests and completion events.
type MessageQueue interface {
	PublishAnalysisCompleted(ctx context.Context, recordID string) error
	SubscribeAnalysisRequests(ctx context.Context, handler func(context.Context, domain.AnalysisRequest) error) error
}

// AuthGate exposes the session authentication state. The core only
// reads the boolean as a precondition gate.
type AuthGate interface {
	IsAuthenticated(ctx context.Context) bool
}
