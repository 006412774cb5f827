package assistant

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const Greeting = "Hello! I'm your AI healthcare assistant. How can I help you today? You can ask me about general health information, symptoms, or how to use DocNear."

const (
	msgNotConfigured = "API key is not configured. Please contact support."
	msgKeyInvalid    = "API key is invalid. Please check your configuration."
	msgQuota         = "API quota exceeded. Please try again later."
	msgGeneric       = "Sorry, I encountered an error. Please try again later."

	maxMessageLen = 4000
)

var (
	ErrEmptyMessage   = errors.New("message is required")
	ErrMessageTooLong = errors.New("message is too long")
)

type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

type ChatReply struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
	// Failed marks replies that are error messages rather than model output.
	Failed bool `json:"failed,omitempty"`
}

type Service struct {
	gen    Generator
	convs  *conversationStore
	logger zerolog.Logger
}

// NewService builds the assistant. gen may be nil when no API key is
// configured; every chat then answers with the not-configured message.
func NewService(gen Generator, logger zerolog.Logger) *Service {
	return &Service{gen: gen, convs: newConversationStore(), logger: logger}
}

// Chat sends message within the conversation and returns the model's reply.
// Backend failures are not returned as errors: they become one of the fixed
// inline messages and the failed exchange is left out of the history.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(msg) > maxMessageLen {
		return nil, ErrMessageTooLong
	}

	id, history := s.convs.history(req.ConversationID)
	if s.gen == nil {
		return &ChatReply{ConversationID: id, Reply: msgNotConfigured, Failed: true}, nil
	}

	user := Turn{Role: RoleUser, Content: msg}
	text, err := s.gen.Generate(ctx, append(history, user))
	if err != nil {
		s.logger.Warn().Err(err).Str("conversation_id", id).Msg("assistant backend call failed")
		return &ChatReply{ConversationID: id, Reply: FriendlyError(err), Failed: true}, nil
	}

	s.convs.append(id, user, Turn{Role: RoleAssistant, Content: text})
	return &ChatReply{ConversationID: id, Reply: text}, nil
}

// FriendlyError maps a backend error to the message shown in the chat.
func FriendlyError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "API_KEY_INVALID"):
		return msgKeyInvalid
	case strings.Contains(strings.ToUpper(msg), "QUOTA"):
		return msgQuota
	default:
		return msgGeneric
	}
}
