package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/resume-insight/internal/core/domain"
	"github.com/kirillkom/resume-insight/internal/infrastructure/resilience"
)

// Client talks to an AI gateway that multiplexes several chat backends
// behind one invoke endpoint. Model selection is carried in the
// request body; omitting it asks for the gateway's default tier.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Options struct {
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	Executor          *resilience.Executor
}

func New(baseURL, apiKey string, options Options) *Client {
	requestTimeout := options.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 120 * time.Second
	}
	var limiter *rate.Limiter
	if options.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), 1)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    limiter,
		executor:   options.Executor,
	}
}

type invokeWireRequest struct {
	Prompt       string `json:"prompt,omitempty"`
	SourcePath   string `json:"source_path,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	Model        string `json:"model,omitempty"`
}

type invokeWireResponse struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message struct {
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

func (c *Client) Invoke(ctx context.Context, req domain.ProviderRequest, opts *domain.InvokeOptions) (*domain.ProviderResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	wireReq := invokeWireRequest{
		Prompt:       req.Prompt,
		SourcePath:   req.SourcePath,
		Instructions: req.Instructions,
	}
	if opts != nil {
		wireReq.Model = opts.Model
	}

	var wireResp invokeWireResponse
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/invoke", wireReq, &wireResp, "invoke")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "gateway.invoke", call, classifyGatewayError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}

	return mapResponse(wireResp)
}

func mapResponse(wire invokeWireResponse) (*domain.ProviderResponse, error) {
	if wire.Success != nil && !*wire.Success {
		return &domain.ProviderResponse{
			Kind:   domain.ResponseSoftFailure,
			Reason: wire.Error,
		}, nil
	}

	message := domain.Message{}
	if len(wire.Message.Content) > 0 {
		var text string
		if err := json.Unmarshal(wire.Message.Content, &text); err == nil {
			message.Content = text
		} else {
			var blocks []domain.ContentBlock
			if err := json.Unmarshal(wire.Message.Content, &blocks); err == nil {
				message.Blocks = blocks
			}
		}
	}

	return &domain.ProviderResponse{
		Kind:    domain.ResponseSuccess,
		Message: message,
	}, nil
}
