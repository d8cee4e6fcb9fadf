package devforge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/creator-surge/backend/internal/analysis/codeblock"
	"github.com/zhouzirui/creator-surge/backend/internal/events"
	"github.com/zhouzirui/creator-surge/backend/internal/model/chat"
	"github.com/zhouzirui/creator-surge/backend/internal/model/project"
	"github.com/zhouzirui/creator-surge/backend/internal/service/ai"
	"github.com/zhouzirui/creator-surge/backend/internal/store"
)

const codeAgent = "devforge"

// ChatTurn is the stored pair produced by one project chat request.
type ChatTurn struct {
	UserMessage project.Chat `json:"userMessage"`
	AIMessage   project.Chat `json:"aiMessage"`
}

func (s *Service) ListChats(ctx context.Context, projectID string) ([]project.Chat, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListProjectChats(ctx, projectID)
}

// Chat asks the code model for the project and stores the files it produced.
// Model failures are stored as a degraded reply rather than returned.
func (s *Service) Chat(ctx context.Context, projectID, message string) (ChatTurn, error) {
	if strings.TrimSpace(message) == "" {
		return ChatTurn{}, ErrMessageRequired
	}
	receivedAt := s.now()

	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return ChatTurn{}, err
	}

	history, err := s.store.RecentProjectChats(ctx, projectID, s.context.Limit)
	if err != nil {
		return ChatTurn{}, fmt.Errorf("load project history: %w", err)
	}

	req := ai.Request{
		SessionID:    "project_" + projectID,
		SystemPrompt: ai.ProjectPrompt(p.ProjectType),
		Content:      ai.AssembleContext(s.context, message, project.History(history)),
	}
	reply, err := s.dispatcher.Send(ctx, codeAgent, req)

	var (
		bundle   *project.CodeBundle
		degraded bool
	)
	if err != nil {
		s.logger.Error("code generation failed", zap.String("project", projectID), zap.Error(err))
		reply = "Error generating code: " + failureReason(err)
		degraded = true
	} else if files := codeblock.Extract(reply); len(files) > 0 {
		bundle = &project.CodeBundle{Files: files}
	}

	repliedAt := s.now()
	if !repliedAt.After(receivedAt) {
		repliedAt = receivedAt.Add(time.Microsecond)
	}

	turn := ChatTurn{
		UserMessage: project.Chat{
			ID:        uuid.NewString(),
			ProjectID: projectID,
			Role:      chat.RoleUser,
			Content:   message,
			Timestamp: receivedAt,
		},
		AIMessage: project.Chat{
			ID:            uuid.NewString(),
			ProjectID:     projectID,
			Role:          chat.RoleAssistant,
			Content:       reply,
			Timestamp:     repliedAt,
			CodeGenerated: bundle,
			Degraded:      degraded,
		},
	}

	fileCount := 0
	if bundle != nil {
		fileCount = len(bundle.Files)
	}
	activity := s.activity(projectID, project.ActionChat, fmt.Sprintf("Generated code (%d files)", fileCount))
	activity.Timestamp = repliedAt

	err = s.store.RecordProjectTurn(ctx, storeTurn(turn, activity))
	if err != nil {
		return ChatTurn{}, notFound(err)
	}

	s.publish(events.SubjectProjectTurnCompleted, events.ProjectTurnCompleted{
		ProjectID: projectID,
		ChatID:    turn.AIMessage.ID,
		Files:     fileCount,
		Degraded:  degraded,
		At:        repliedAt,
	})
	return turn, nil
}

func failureReason(err error) string {
	var modelErr *ai.ModelError
	if errors.As(err, &modelErr) {
		return modelErr.Reason()
	}
	return err.Error()
}

func storeTurn(turn ChatTurn, activity project.Activity) store.ProjectTurn {
	return store.ProjectTurn{User: turn.UserMessage, Assistant: turn.AIMessage, Activity: activity}
}
