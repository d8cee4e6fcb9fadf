package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/creator-surge/backend/internal/analysis/category"
	"github.com/zhouzirui/creator-surge/backend/internal/events"
	"github.com/zhouzirui/creator-surge/backend/internal/model/chat"
	"github.com/zhouzirui/creator-surge/backend/internal/service/ai"
	"github.com/zhouzirui/creator-surge/backend/internal/store"
)

var (
	ErrConversationRequired = errors.New("conversationId is required")
	ErrMessageRequired      = errors.New("message is required")
	ErrInvalidAgentType     = errors.New("invalid agentType")
	ErrConversationNotFound = errors.New("conversation not found")
)

// Request is one user message addressed to a conversation.
type Request struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
	AgentType      string `json:"agentType,omitempty"`
}

// Result is the stored pair produced by a turn.
type Result struct {
	UserMessage chat.Message `json:"userMessage"`
	AIMessage   chat.Message `json:"aiMessage"`
}

// Service runs chat turns against the configured store and model.
type Service struct {
	store      store.ConversationStore
	dispatcher *ai.Dispatcher
	classifier *category.Classifier
	publisher  events.Publisher
	logger     *zap.Logger
	context    ai.ContextStyle
	streaming  bool
	now        func() time.Time
}

type Option func(*Service)

func WithClassifier(c *category.Classifier) Option {
	return func(s *Service) { s.classifier = c }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithHistoryLimit sets how many prior messages are replayed to the model.
func WithHistoryLimit(n int) Option {
	return func(s *Service) { s.context = s.context.WithLimit(n) }
}

// WithStreaming toggles incremental model output for ChatStream. When off the
// reply is produced in one call and delivered as a single delta.
func WithStreaming(enabled bool) Option {
	return func(s *Service) { s.streaming = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a chat service. Without options it classifies with the
// standard tiers, publishes nothing and logs nowhere.
func NewService(st store.ConversationStore, dispatcher *ai.Dispatcher, opts ...Option) *Service {
	s := &Service{
		store:      st,
		dispatcher: dispatcher,
		classifier: category.Standard(),
		publisher:  events.Noop{},
		logger:     zap.NewNop(),
		context:    ai.ChatContext,
		streaming:  true,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateConversation starts an empty conversation.
func (s *Service) CreateConversation(ctx context.Context, title string) (chat.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New Conversation"
	}

	c := chat.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		Preview:   chat.DefaultPreview,
		Timestamp: s.now(),
	}
	if err := s.store.CreateConversation(ctx, c); err != nil {
		return chat.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

func (s *Service) ListConversations(ctx context.Context) ([]chat.Conversation, error) {
	return s.store.ListConversations(ctx)
}

func (s *Service) GetConversation(ctx context.Context, id string) (chat.Conversation, error) {
	c, err := s.store.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return chat.Conversation{}, ErrConversationNotFound
		}
		return chat.Conversation{}, fmt.Errorf("load conversation: %w", err)
	}
	return c, nil
}

// DeleteConversation removes a conversation and its transcript.
func (s *Service) DeleteConversation(ctx context.Context, id string) error {
	if err := s.store.DeleteConversation(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("delete conversation: %w", err)
	}

	s.publish(events.SubjectConversationDeleted, events.ConversationDeleted{ConversationID: id, At: s.now()})
	return nil
}

// ListMessages returns the transcript; unknown conversations have an empty one.
func (s *Service) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	return s.store.ListMessages(ctx, conversationID)
}

// Classify exposes the category the service would pick for message.
func (s *Service) Classify(message string) chat.Category {
	return s.classifier.Classify(message)
}

// Chat runs one turn: classify, replay history, call the model and store both
// messages. A model failure still yields a stored turn whose reply is an apology.
func (s *Service) Chat(ctx context.Context, req Request) (Result, error) {
	return s.run(ctx, req, nil)
}

// ChatStream is Chat with reply deltas delivered to onDelta as they arrive.
func (s *Service) ChatStream(ctx context.Context, req Request, onDelta func(string) error) (Result, error) {
	if onDelta == nil {
		onDelta = func(string) error { return nil }
	}
	return s.run(ctx, req, onDelta)
}

func (s *Service) run(ctx context.Context, req Request, onDelta func(string) error) (Result, error) {
	agent, err := s.validate(req)
	if err != nil {
		return Result{}, err
	}
	receivedAt := s.now()

	if _, err := s.GetConversation(ctx, req.ConversationID); err != nil {
		return Result{}, err
	}

	history, err := s.store.RecentMessages(ctx, req.ConversationID, s.context.Limit)
	if err != nil {
		return Result{}, fmt.Errorf("load history: %w", err)
	}
	prompt := ai.AssembleContext(s.context, req.Message, history)
	sessionID := "conversation_" + req.ConversationID

	var reply string
	switch {
	case onDelta != nil && s.streaming:
		reply, err = s.dispatcher.DispatchStream(ctx, agent, sessionID, prompt, onDelta)
	case onDelta != nil:
		reply, err = s.dispatcher.Dispatch(ctx, agent, sessionID, prompt)
		if err == nil {
			err = onDelta(reply)
		}
	default:
		reply, err = s.dispatcher.Dispatch(ctx, agent, sessionID, prompt)
	}

	degraded := false
	if err != nil {
		s.logger.Error("agent reply failed",
			zap.String("conversation", req.ConversationID),
			zap.String("agent", string(agent)),
			zap.Error(err),
		)
		reply = ai.Apology(err)
		degraded = true
	}

	repliedAt := s.now()
	if !repliedAt.After(receivedAt) {
		repliedAt = receivedAt.Add(time.Microsecond)
	}

	result := Result{
		UserMessage: chat.Message{
			ID:             uuid.NewString(),
			ConversationID: req.ConversationID,
			Role:           chat.RoleUser,
			Content:        req.Message,
			Timestamp:      receivedAt,
			AgentType:      agent,
		},
		AIMessage: chat.Message{
			ID:             uuid.NewString(),
			ConversationID: req.ConversationID,
			Role:           chat.RoleAssistant,
			Content:        reply,
			Timestamp:      repliedAt,
			AgentType:      agent,
			Degraded:       degraded,
		},
	}

	turn := store.Turn{
		User:      result.UserMessage,
		Assistant: result.AIMessage,
		Preview:   chat.PreviewOf(req.Message),
		At:        repliedAt,
	}
	if err := s.store.RecordTurn(ctx, turn); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{}, ErrConversationNotFound
		}
		return Result{}, fmt.Errorf("record turn: %w", err)
	}

	s.publish(events.SubjectTurnCompleted, events.TurnCompleted{
		ConversationID: req.ConversationID,
		UserMessageID:  result.UserMessage.ID,
		AIMessageID:    result.AIMessage.ID,
		AgentType:      string(agent),
		Degraded:       degraded,
		At:             repliedAt,
	})
	return result, nil
}

func (s *Service) validate(req Request) (chat.Category, error) {
	if strings.TrimSpace(req.ConversationID) == "" {
		return "", ErrConversationRequired
	}
	if strings.TrimSpace(req.Message) == "" {
		return "", ErrMessageRequired
	}
	if strings.TrimSpace(req.AgentType) == "" {
		return s.classifier.Classify(req.Message), nil
	}
	agent, err := chat.ParseCategory(req.AgentType)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidAgentType, req.AgentType)
	}
	return agent, nil
}

func (s *Service) publish(subject string, data any) {
	if err := s.publisher.Publish(subject, data); err != nil {
		s.logger.Warn("publish event failed", zap.String("subject", subject), zap.Error(err))
	}
}
