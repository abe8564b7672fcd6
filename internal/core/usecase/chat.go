package usecase

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/kirillkom/resume-insight/internal/core/domain"
	"github.com/kirillkom/resume-insight/internal/core/ports"
)

const (
	chatEmptyReply   = "Sorry, I couldn't generate a response."
	chatFailureReply = "Sorry, I encountered an error. Please try again or rephrase your question."
)

// ChatUseCase answers free-form questions through the provider
// fallback resolver, keeping an append-only transcript confined to the
// session. Failures never reach the caller: they resolve to a canned
// assistant reply.
type ChatUseCase struct {
	resolver  *ProviderResolver
	auth      ports.AuthGate
	providers []string

	busy       atomic.Bool
	transcript []domain.ChatTurn
}

func NewChatUseCase(gateway ports.AIGateway, auth ports.AuthGate, providers []string) *ChatUseCase {
	return &ChatUseCase{
		resolver:  NewProviderResolver(gateway),
		auth:      auth,
		providers: providers,
	}
}

// Send processes one user turn. Blank input, an in-flight call, or an
// unauthenticated caller are rejected silently with an empty reply and
// no transcript change.
func (uc *ChatUseCase) Send(ctx context.Context, input string) string {
	input = strings.TrimSpace(input)
	if input == "" || !uc.auth.IsAuthenticated(ctx) {
		return ""
	}
	if !uc.busy.CompareAndSwap(false, true) {
		return ""
	}
	defer uc.busy.Store(false)

	prompt := buildChatPrompt(uc.transcript, input)
	uc.transcript = append(uc.transcript, domain.ChatTurn{Role: domain.ChatRoleUser, Content: input})

	reply := chatFailureReply
	resolution, err := uc.resolver.Resolve(ctx, uc.providers, domain.ProviderRequest{Prompt: prompt})
	if err == nil {
		text, textErr := extractText(resolution.Response)
		if textErr != nil || strings.TrimSpace(text) == "" {
			reply = chatEmptyReply
		} else {
			reply = text
		}
	}

	uc.transcript = append(uc.transcript, domain.ChatTurn{Role: domain.ChatRoleAssistant, Content: reply})
	return reply
}

// Transcript returns a copy of the session transcript in turn order.
func (uc *ChatUseCase) Transcript() []domain.ChatTurn {
	out := make([]domain.ChatTurn, len(uc.transcript))
	copy(out, uc.transcript)
	return out
}
