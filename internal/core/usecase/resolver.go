package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/resume-insight/internal/core/domain"
	"github.com/kirillkom/resume-insight/internal/core/ports"
)

// ProviderResolver tries an ordered list of named AI backends until
// one returns a usable result. Ordering is caller-supplied and
// significant: first success wins, no provider is retried within one
// resolution, and providers are never invoked concurrently. The head
// of the list is invoked without model-selection options (default/free
// tier); every subsequent provider is invoked with an explicit model
// equal to its identifier.
type ProviderResolver struct {
	gateway ports.AIGateway
}

func NewProviderResolver(gateway ports.AIGateway) *ProviderResolver {
	return &ProviderResolver{gateway: gateway}
}

// Resolution is a successful outcome: the response plus the identifier
// of the provider that produced it.
type Resolution struct {
	Response *domain.ProviderResponse
	Provider string
}

func (r *ProviderResolver) Resolve(ctx context.Context, providers []string, req domain.ProviderRequest) (*Resolution, error) {
	if len(providers) == 0 {
		return nil, &domain.AggregateProviderError{
			Attempts: 0,
			Last:     errors.New("no providers configured"),
		}
	}

	var last error
	attempts := 0
	for i, provider := range providers {
		var opts *domain.InvokeOptions
		if i > 0 {
			opts = &domain.InvokeOptions{Model: provider}
		}

		attempts++
		resp, err := r.gateway.Invoke(ctx, req, opts)
		if err != nil {
			last = domain.WrapError(domain.ErrProviderHard, provider, err)
			continue
		}
		if resp == nil {
			last = domain.WrapError(domain.ErrProviderHard, provider, errors.New("nil response"))
			continue
		}
		if resp.Kind == domain.ResponseSoftFailure {
			last = domain.WrapError(domain.ErrProviderSoft, provider, fmt.Errorf("unsuccessful response: %s", resp.Reason))
			continue
		}

		return &Resolution{Response: resp, Provider: provider}, nil
	}

	return nil, &domain.AggregateProviderError{Attempts: attempts, Last: last}
}
