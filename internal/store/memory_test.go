package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/creator-surge/backend/internal/model/chat"
	"github.com/zhouzirui/creator-surge/backend/internal/model/project"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newConversation(id string, at time.Time) chat.Conversation {
	return chat.Conversation{ID: id, Title: "t-" + id, Preview: chat.DefaultPreview, Timestamp: at}
}

func turnFor(conversationID string, at time.Time, text string) Turn {
	return Turn{
		User: chat.Message{
			ID: conversationID + "-u-" + text, ConversationID: conversationID,
			Role: chat.RoleUser, Content: text, Timestamp: at,
		},
		Assistant: chat.Message{
			ID: conversationID + "-a-" + text, ConversationID: conversationID,
			Role: chat.RoleAssistant, Content: "re: " + text, Timestamp: at.Add(time.Millisecond),
			AgentType: chat.CategoryText,
		},
		Preview: text,
		At:      at.Add(time.Millisecond),
	}
}

func TestMemoryConversationsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateConversation(ctx, newConversation("a", base)))
	require.NoError(t, s.CreateConversation(ctx, newConversation("b", base.Add(time.Minute))))
	require.NoError(t, s.CreateConversation(ctx, newConversation("c", base.Add(-time.Minute))))

	list, err := s.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{list[0].ID, list[1].ID, list[2].ID})

	// A turn moves the conversation to the top.
	require.NoError(t, s.RecordTurn(ctx, turnFor("c", base.Add(time.Hour), "hello")))
	list, err = s.ListConversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", list[0].ID)
}

func TestMemoryRecordTurnUpdatesSummary(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateConversation(ctx, newConversation("conv", base)))

	require.NoError(t, s.RecordTurn(ctx, turnFor("conv", base.Add(time.Second), "first")))
	require.NoError(t, s.RecordTurn(ctx, turnFor("conv", base.Add(2*time.Second), "second")))

	c, err := s.GetConversation(ctx, "conv")
	require.NoError(t, err)
	assert.Equal(t, 4, c.MessageCount)
	assert.Equal(t, "second", c.Preview)
	assert.Equal(t, base.Add(2*time.Second+time.Millisecond), c.Timestamp)

	msgs, err := s.ListMessages(ctx, "conv")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, chat.RoleUser, msgs[0].Role)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, chat.RoleAssistant, msgs[3].Role)
	assert.Equal(t, "re: second", msgs[3].Content)
}

func TestMemoryRecordTurnUnknownConversation(t *testing.T) {
	s := NewMemoryStore()
	err := s.RecordTurn(context.Background(), turnFor("ghost", base, "x"))
	assert.ErrorIs(t, err, ErrNotFound)

	msgs, err := s.ListMessages(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.NotNil(t, msgs)
}

func TestMemoryRecentMessagesKeepsTail(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateConversation(ctx, newConversation("conv", base)))
	for i := range 6 {
		require.NoError(t, s.RecordTurn(ctx, turnFor("conv", base.Add(time.Duration(i)*time.Second), fmt.Sprintf("m%d", i))))
	}

	recent, err := s.RecentMessages(ctx, "conv", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "re: m4", recent[0].Content)
	assert.Equal(t, "m5", recent[1].Content)
	assert.Equal(t, "re: m5", recent[2].Content)
}

func TestMemoryDeleteConversationCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateConversation(ctx, newConversation("conv", base)))
	require.NoError(t, s.RecordTurn(ctx, turnFor("conv", base, "hi")))

	require.NoError(t, s.DeleteConversation(ctx, "conv"))
	assert.ErrorIs(t, s.DeleteConversation(ctx, "conv"), ErrNotFound)

	_, err := s.GetConversation(ctx, "conv")
	assert.ErrorIs(t, err, ErrNotFound)
	msgs, err := s.ListMessages(ctx, "conv")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func seedProject(t *testing.T, s *MemoryStore, id string) project.Project {
	t.Helper()
	p := project.Project{
		ID: id, Name: "Demo", ProjectType: project.TypeWeb, Status: project.StatusActive,
		CreatedAt: base, UpdatedAt: base, UserID: project.DefaultUserID, TechStack: []string{"Go"},
	}
	require.NoError(t, s.CreateProject(context.Background(), p, activity(id, project.ActionCreated, base)))
	return p
}

func activity(projectID string, action project.Action, at time.Time) project.Activity {
	return project.Activity{
		ID: fmt.Sprintf("%s-%s-%d", projectID, action, at.UnixNano()), ProjectID: projectID,
		UserID: project.DefaultUserID, Action: action, Timestamp: at,
	}
}

func TestMemoryProjectIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := seedProject(t, s, "p1")

	p.TechStack[0] = "mutated"
	got, err := s.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, got.TechStack)
}

func TestMemoryProjectTurnAndDeleteCascade(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedProject(t, s, "p1")

	turn := ProjectTurn{
		User: project.Chat{ID: "u1", ProjectID: "p1", Role: chat.RoleUser, Content: "build", Timestamp: base.Add(time.Second)},
		Assistant: project.Chat{
			ID: "a1", ProjectID: "p1", Role: chat.RoleAssistant, Content: "done", Timestamp: base.Add(2 * time.Second),
			CodeGenerated: &project.CodeBundle{Files: []project.CodeFile{{Path: "main.go", Content: "package main"}}},
		},
		Activity: activity("p1", project.ActionChat, base.Add(2*time.Second)),
	}
	require.NoError(t, s.RecordProjectTurn(ctx, turn))

	chats, err := s.ListProjectChats(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	require.NotNil(t, chats[1].CodeGenerated)
	assert.Equal(t, "main.go", chats[1].CodeGenerated.Files[0].Path)

	got, err := s.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, base.Add(2*time.Second), got.UpdatedAt)

	require.NoError(t, s.AddComment(ctx, project.Comment{ID: "c1", ProjectID: "p1", Content: "nice", Timestamp: base}, activity("p1", project.ActionCommented, base.Add(3*time.Second))))
	require.NoError(t, s.DeleteProject(ctx, "p1"))

	chats, err = s.ListProjectChats(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, chats)
	comments, err := s.ListComments(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, comments)
	acts, err := s.ListActivities(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, acts)
	assert.ErrorIs(t, s.DeleteProject(ctx, "p1"), ErrNotFound)
}

func TestMemoryCollaboratorConflict(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedProject(t, s, "p1")

	c := project.Collaborator{ID: "c1", ProjectID: "p1", Email: "dev@example.com", Role: project.RoleViewer, AddedAt: base}
	require.NoError(t, s.AddCollaborator(ctx, c, activity("p1", project.ActionCollaboratorAdded, base)))

	c.ID = "c2"
	c.Email = "DEV@example.com"
	assert.ErrorIs(t, s.AddCollaborator(ctx, c, activity("p1", project.ActionCollaboratorAdded, base.Add(time.Second))), ErrConflict)

	list, err := s.ListCollaborators(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryDeploymentsAndActivities(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := seedProject(t, s, "p1")

	d := project.Deployment{ID: "d1", ProjectID: "p1", Status: project.DeploymentPending, CreatedAt: base.Add(time.Second)}
	require.NoError(t, s.SaveDeployment(ctx, d))

	url := "https://demo-p1.example.dev"
	d.Status = project.DeploymentSuccess
	d.DeployedURL = &url
	d.BuildLogs = []string{"ok"}
	p.Status = project.StatusDeployed
	p.DeploymentURL = &url
	require.NoError(t, s.CompleteDeployment(ctx, d, &p, activity("p1", project.ActionDeployed, base.Add(2*time.Second))))

	require.NoError(t, s.SaveDeployment(ctx, project.Deployment{ID: "d2", ProjectID: "p1", Status: project.DeploymentPending, CreatedAt: base.Add(time.Minute)}))

	deployments, err := s.ListDeployments(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, deployments, 2)
	assert.Equal(t, "d2", deployments[0].ID)
	assert.Equal(t, project.DeploymentSuccess, deployments[1].Status)

	got, err := s.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, project.StatusDeployed, got.Status)
	require.NotNil(t, got.DeploymentURL)
	assert.Equal(t, url, *got.DeploymentURL)

	acts, err := s.ListActivities(ctx, "p1", 1)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, project.ActionDeployed, acts[0].Action)

	assert.ErrorIs(t, s.SaveDeployment(ctx, project.Deployment{ID: "x", ProjectID: "missing"}), ErrNotFound)
}

func TestMemoryListProjectsByUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	older := seedProject(t, s, "old")
	seedProject(t, s, "new")

	older.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, s.UpdateProject(ctx, older, activity("old", project.ActionUpdated, base.Add(time.Hour))))

	list, err := s.ListProjects(ctx, project.DefaultUserID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "old", list[0].ID)

	other, err := s.ListProjects(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, other)
}
