package devforge

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/zhouzirui/creator-surge/backend/internal/model/project"
	"github.com/zhouzirui/creator-surge/backend/internal/store"
)

// DefaultActivityLimit bounds the activity feed.
const DefaultActivityLimit = 50

func (s *Service) AddCollaborator(ctx context.Context, projectID, email, role string) (project.Collaborator, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return project.Collaborator{}, fmt.Errorf("%w: %s", ErrInvalidEmail, email)
	}
	r, err := project.ParseRole(role)
	if err != nil {
		return project.Collaborator{}, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return project.Collaborator{}, err
	}

	c := project.Collaborator{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Email:     strings.ToLower(addr.Address),
		Role:      r,
		AddedAt:   s.now(),
	}
	activity := s.activity(projectID, project.ActionCollaboratorAdded, fmt.Sprintf("Added %s as %s", c.Email, c.Role))
	if err := s.store.AddCollaborator(ctx, c, activity); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return project.Collaborator{}, ErrDuplicateCollaborator
		}
		return project.Collaborator{}, notFound(err)
	}
	return c, nil
}

func (s *Service) ListCollaborators(ctx context.Context, projectID string) ([]project.Collaborator, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListCollaborators(ctx, projectID)
}

func (s *Service) AddComment(ctx context.Context, projectID, content string) (project.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return project.Comment{}, ErrCommentRequired
	}
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return project.Comment{}, err
	}

	c := project.Comment{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		UserID:    project.DefaultUserID,
		Content:   content,
		Timestamp: s.now(),
	}
	if err := s.store.AddComment(ctx, c, s.activity(projectID, project.ActionCommented, "Commented on project")); err != nil {
		return project.Comment{}, notFound(err)
	}
	return c, nil
}

func (s *Service) ListComments(ctx context.Context, projectID string) ([]project.Comment, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, projectID)
}

// ListActivities returns the newest feed entries first.
func (s *Service) ListActivities(ctx context.Context, projectID string) ([]project.Activity, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListActivities(ctx, projectID, DefaultActivityLimit)
}
