package devforge_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/creator-surge/backend/internal/model/project"
	"github.com/zhouzirui/creator-surge/backend/internal/service/ai"
	"github.com/zhouzirui/creator-surge/backend/internal/service/devforge"
	"github.com/zhouzirui/creator-surge/backend/internal/store"
)

type scriptedCompleter struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []ai.Request
}

func (s *scriptedCompleter) Complete(_ context.Context, req ai.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func (s *scriptedCompleter) Stream(ctx context.Context, req ai.Request, _ func(string) error) (string, error) {
	return s.Complete(ctx, req)
}

const twoFiles = "Here you go.\n```js src/app.js\nconsole.log('v1')\n```\n// file: README.md\n```md\n# Demo\n```\n"

func newService(t *testing.T, completer *scriptedCompleter) (*devforge.Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()

	tick := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}

	svc := devforge.NewService(st, ai.NewDispatcher(completer, time.Second, nil),
		devforge.WithClock(clock),
		devforge.WithDeployDomain("preview.example.dev"),
	)
	return svc, st
}

func createProject(t *testing.T, svc *devforge.Service) project.Project {
	t.Helper()
	p, err := svc.CreateProject(context.Background(), project.Create{
		Name: "My Shop!", Description: "store front", ProjectType: "web", TechStack: []string{"React", " "},
	})
	require.NoError(t, err)
	return p
}

func TestCreateProjectValidation(t *testing.T) {
	svc, _ := newService(t, &scriptedCompleter{})
	ctx := context.Background()

	_, err := svc.CreateProject(ctx, project.Create{ProjectType: "web"})
	assert.ErrorIs(t, err, devforge.ErrNameRequired)

	_, err = svc.CreateProject(ctx, project.Create{Name: "x", ProjectType: "desktop"})
	assert.ErrorIs(t, err, devforge.ErrInvalidProjectType)

	p := createProject(t, svc)
	assert.Equal(t, project.StatusActive, p.Status)
	assert.Equal(t, project.DefaultUserID, p.UserID)
	assert.Equal(t, []string{"React"}, p.TechStack)

	acts, err := svc.ListActivities(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, project.ActionCreated, acts[0].Action)
}

func TestEnsureWelcomeProjectIsIdempotent(t *testing.T) {
	svc, _ := newService(t, &scriptedCompleter{})
	ctx := context.Background()

	require.NoError(t, svc.EnsureWelcomeProject(ctx))
	require.NoError(t, svc.EnsureWelcomeProject(ctx))

	list, err := svc.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "welcome-project", list[0].ID)
}

func TestUpdateProject(t *testing.T) {
	svc, _ := newService(t, &scriptedCompleter{})
	ctx := context.Background()
	p := createProject(t, svc)

	name := "Renamed"
	archived := "archived"
	updated, err := svc.UpdateProject(ctx, p.ID, project.Update{Name: &name, Status: &archived})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, project.StatusArchived, updated.Status)
	assert.Equal(t, "store front", updated.Description)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))

	bogus := "paused"
	_, err = svc.UpdateProject(ctx, p.ID, project.Update{Status: &bogus})
	assert.ErrorIs(t, err, devforge.ErrInvalidStatus)

	_, err = svc.UpdateProject(ctx, "missing", project.Update{Name: &name})
	assert.ErrorIs(t, err, devforge.ErrProjectNotFound)
}

func TestProjectChatExtractsFiles(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{twoFiles, "no code this time"}}
	svc, _ := newService(t, completer)
	ctx := context.Background()
	p := createProject(t, svc)

	turn, err := svc.Chat(ctx, p.ID, "build a landing page")
	require.NoError(t, err)
	require.NotNil(t, turn.AIMessage.CodeGenerated)
	assert.Equal(t, []project.CodeFile{
		{Path: "src/app.js", Content: "console.log('v1')"},
		{Path: "README.md", Content: "# Demo"},
	}, turn.AIMessage.CodeGenerated.Files)

	req := completer.requests[0]
	assert.Equal(t, "project_"+p.ID, req.SessionID)
	assert.Equal(t, ai.ProjectPrompt(project.TypeWeb), req.SystemPrompt)
	assert.Equal(t, "build a landing page", req.Content)

	second, err := svc.Chat(ctx, p.ID, "add a footer")
	require.NoError(t, err)
	assert.Nil(t, second.AIMessage.CodeGenerated)
	assert.Contains(t, completer.requests[1].Content, "Current request:\nUser: add a footer")

	chats, err := svc.ListChats(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, chats, 4)
}

func TestProjectChatFailureIsDegraded(t *testing.T) {
	svc, _ := newService(t, &scriptedCompleter{err: errors.New("model overloaded")})
	ctx := context.Background()
	p := createProject(t, svc)

	turn, err := svc.Chat(ctx, p.ID, "make an api")
	require.NoError(t, err)
	assert.Equal(t, "Error generating code: model overloaded", turn.AIMessage.Content)
	assert.True(t, turn.AIMessage.Degraded)
	assert.Nil(t, turn.AIMessage.CodeGenerated)

	_, err = svc.Chat(ctx, p.ID, "  ")
	assert.ErrorIs(t, err, devforge.ErrMessageRequired)
	_, err = svc.Chat(ctx, "missing", "hi")
	assert.ErrorIs(t, err, devforge.ErrProjectNotFound)
}

func TestDeployWithoutFilesFails(t *testing.T) {
	svc, _ := newService(t, &scriptedCompleter{})
	ctx := context.Background()
	p := createProject(t, svc)

	d, err := svc.Deploy(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, project.DeploymentFailed, d.Status)
	assert.Nil(t, d.DeployedURL)
	require.NotNil(t, d.CompletedAt)
	assert.Contains(t, d.BuildLogs[len(d.BuildLogs)-1], "no generated files")

	got, err := svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, project.StatusActive, got.Status)
}

func TestDeploySucceedsWithFiles(t *testing.T) {
	svc, _ := newService(t, &scriptedCompleter{replies: []string{twoFiles}})
	ctx := context.Background()
	p := createProject(t, svc)
	_, err := svc.Chat(ctx, p.ID, "build it")
	require.NoError(t, err)

	d, err := svc.Deploy(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, project.DeploymentSuccess, d.Status)
	require.NotNil(t, d.DeployedURL)
	assert.Equal(t, "https://my-shop-"+p.ID[:8]+".preview.example.dev", *d.DeployedURL)
	assert.Contains(t, d.BuildLogs, "Bundled 2 files")

	got, err := svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, project.StatusDeployed, got.Status)
	require.NotNil(t, got.DeploymentURL)
	assert.Equal(t, *d.DeployedURL, *got.DeploymentURL)

	_, err = svc.Deploy(ctx, p.ID)
	require.NoError(t, err)
	list, err := svc.ListDeployments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))

	acts, err := svc.ListActivities(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ActionDeployed, acts[0].Action)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "my-shop", devforge.Slug("My Shop!"))
	assert.Equal(t, "a-b-c", devforge.Slug("  A--b__c "))
	assert.Equal(t, "app", devforge.Slug("日本"))
}

func TestCollaborators(t *testing.T) {
	svc, _ := newService(t, &scriptedCompleter{})
	ctx := context.Background()
	p := createProject(t, svc)

	c, err := svc.AddCollaborator(ctx, p.ID, "Dev@Example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "dev@example.com", c.Email)
	assert.Equal(t, project.RoleViewer, c.Role)

	_, err = svc.AddCollaborator(ctx, p.ID, "dev@example.com", "editor")
	assert.ErrorIs(t, err, devforge.ErrDuplicateCollaborator)

	_, err = svc.AddCollaborator(ctx, p.ID, "not-an-email", "editor")
	assert.ErrorIs(t, err, devforge.ErrInvalidEmail)

	_, err = svc.AddCollaborator(ctx, p.ID, "ops@example.com", "admin")
	assert.ErrorIs(t, err, devforge.ErrInvalidRole)

	list, err := svc.ListCollaborators(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCommentsAndActivityFeed(t *testing.T) {
	svc, _ := newService(t, &scriptedCompleter{})
	ctx := context.Background()
	p := createProject(t, svc)

	_, err := svc.AddComment(ctx, p.ID, "")
	assert.ErrorIs(t, err, devforge.ErrCommentRequired)

	_, err = svc.AddComment(ctx, p.ID, "first")
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, p.ID, "second")
	require.NoError(t, err)

	comments, err := svc.ListComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)

	acts, err := svc.ListActivities(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, acts, 3)
	assert.Equal(t, project.ActionCommented, acts[0].Action)
	assert.Equal(t, project.ActionCreated, acts[2].Action)
}

func TestDeleteProjectCascades(t *testing.T) {
	svc, _ := newService(t, &scriptedCompleter{replies: []string{twoFiles}})
	ctx := context.Background()
	p := createProject(t, svc)
	_, err := svc.Chat(ctx, p.ID, "build")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProject(ctx, p.ID))
	assert.ErrorIs(t, svc.DeleteProject(ctx, p.ID), devforge.ErrProjectNotFound)
	_, err = svc.ListChats(ctx, p.ID)
	assert.ErrorIs(t, err, devforge.ErrProjectNotFound)
}

func TestExportKeepsNewestFileVersion(t *testing.T) {
	v2 := "```js src/app.js\nconsole.log('v2')\n```"
	svc, _ := newService(t, &scriptedCompleter{replies: []string{twoFiles, v2}})
	ctx := context.Background()
	p := createProject(t, svc)

	_, err := svc.Export(ctx, p.ID)
	assert.ErrorIs(t, err, devforge.ErrNoGeneratedFiles)

	_, err = svc.Chat(ctx, p.ID, "build")
	require.NoError(t, err)
	_, err = svc.Chat(ctx, p.ID, "update app.js")
	require.NoError(t, err)

	bundle, err := svc.Export(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "my-shop.zip", bundle.Filename)

	var buf bytes.Buffer
	require.NoError(t, bundle.WriteZip(&buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	contents := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		contents[f.Name] = string(data)
	}
	assert.Equal(t, map[string]string{
		"README.md":  "# Demo",
		"src/app.js": "console.log('v2')",
	}, contents)

	_, err = svc.Export(ctx, "missing")
	assert.ErrorIs(t, err, devforge.ErrProjectNotFound)
}
