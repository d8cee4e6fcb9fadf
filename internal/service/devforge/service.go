package devforge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/creator-surge/backend/internal/events"
	"github.com/zhouzirui/creator-surge/backend/internal/model/project"
	"github.com/zhouzirui/creator-surge/backend/internal/service/ai"
	"github.com/zhouzirui/creator-surge/backend/internal/store"
)

var (
	ErrProjectNotFound       = errors.New("project not found")
	ErrNameRequired          = errors.New("name is required")
	ErrInvalidProjectType    = errors.New("invalid projectType")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrMessageRequired       = errors.New("message is required")
	ErrInvalidEmail          = errors.New("invalid email")
	ErrInvalidRole           = errors.New("invalid role")
	ErrDuplicateCollaborator = errors.New("collaborator already added")
	ErrCommentRequired       = errors.New("content is required")
	ErrNoGeneratedFiles      = errors.New("no generated files")
)

// DefaultDeployDomain hosts simulated deployments when none is configured.
const DefaultDeployDomain = "devforge.app"

// Service manages DevForge projects and their code-generation dialogue.
type Service struct {
	store        store.ProjectStore
	dispatcher   *ai.Dispatcher
	publisher    events.Publisher
	logger       *zap.Logger
	context      ai.ContextStyle
	deployDomain string
	now          func() time.Time
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithHistoryLimit(n int) Option {
	return func(s *Service) { s.context = s.context.WithLimit(n) }
}

func WithDeployDomain(domain string) Option {
	return func(s *Service) {
		if d := strings.Trim(strings.TrimSpace(domain), "."); d != "" {
			s.deployDomain = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds the DevForge service. dispatcher should target the code model.
func NewService(st store.ProjectStore, dispatcher *ai.Dispatcher, opts ...Option) *Service {
	s := &Service{
		store:        st,
		dispatcher:   dispatcher,
		publisher:    events.Noop{},
		logger:       zap.NewNop(),
		context:      ai.CodeContext,
		deployDomain: DefaultDeployDomain,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureWelcomeProject seeds the starter project when the default user has none.
func (s *Service) EnsureWelcomeProject(ctx context.Context) error {
	existing, err := s.store.ListProjects(ctx, project.DefaultUserID)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	seed := project.Seed(s.now())
	err = s.store.CreateProject(ctx, seed, s.activity(seed.ID, project.ActionCreated, "Created project "+seed.Name))
	if err != nil && !errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("seed project: %w", err)
	}
	return nil
}

func (s *Service) CreateProject(ctx context.Context, in project.Create) (project.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return project.Project{}, ErrNameRequired
	}
	kind, err := project.ParseType(in.ProjectType)
	if err != nil {
		return project.Project{}, fmt.Errorf("%w: %s", ErrInvalidProjectType, in.ProjectType)
	}

	now := s.now()
	p := project.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		ProjectType: kind,
		Status:      project.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
		UserID:      project.DefaultUserID,
		TechStack:   cleanStack(in.TechStack),
	}
	if err := s.store.CreateProject(ctx, p, s.activity(p.ID, project.ActionCreated, "Created project "+p.Name)); err != nil {
		return project.Project{}, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (s *Service) ListProjects(ctx context.Context) ([]project.Project, error) {
	return s.store.ListProjects(ctx, project.DefaultUserID)
}

func (s *Service) GetProject(ctx context.Context, id string) (project.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return project.Project{}, notFound(err)
	}
	return p, nil
}

// UpdateProject applies a partial patch; nil fields keep their value.
func (s *Service) UpdateProject(ctx context.Context, id string, patch project.Update) (project.Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return project.Project{}, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return project.Project{}, ErrNameRequired
		}
		p.Name = name
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		status, err := project.ParseStatus(*patch.Status)
		if err != nil {
			return project.Project{}, fmt.Errorf("%w: %s", ErrInvalidStatus, *patch.Status)
		}
		p.Status = status
	}
	if patch.TechStack != nil {
		p.TechStack = cleanStack(*patch.TechStack)
	}
	p.UpdatedAt = s.now()

	if err := s.store.UpdateProject(ctx, p, s.activity(p.ID, project.ActionUpdated, "Updated project "+p.Name)); err != nil {
		return project.Project{}, notFound(err)
	}
	return p, nil
}

// DeleteProject removes the project together with all dependent records.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return notFound(err)
	}
	return nil
}

func (s *Service) activity(projectID string, action project.Action, description string) project.Activity {
	return project.Activity{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		UserID:      project.DefaultUserID,
		Action:      action,
		Description: description,
		Timestamp:   s.now(),
	}
}

func (s *Service) publish(subject string, data any) {
	if err := s.publisher.Publish(subject, data); err != nil {
		s.logger.Warn("publish event failed", zap.String("subject", subject), zap.Error(err))
	}
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrProjectNotFound
	}
	return err
}

func cleanStack(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
