package devforge

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/zhouzirui/creator-surge/backend/internal/events"
	"github.com/zhouzirui/creator-surge/backend/internal/model/project"
)

// Deploy runs a simulated build of the project's generated files. A project
// without generated files produces a failed deployment, not an error.
func (s *Service) Deploy(ctx context.Context, projectID string) (project.Deployment, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return project.Deployment{}, err
	}
	files, err := s.latestFiles(ctx, projectID)
	if err != nil {
		return project.Deployment{}, err
	}

	d := project.Deployment{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Status:    project.DeploymentPending,
		BuildLogs: []string{"Deployment queued"},
		CreatedAt: s.now(),
	}
	if err := s.store.SaveDeployment(ctx, d); err != nil {
		return project.Deployment{}, notFound(err)
	}

	d.Status = project.DeploymentBuilding
	d.BuildLogs = append(d.BuildLogs, "Starting build")
	if len(p.TechStack) > 0 {
		d.BuildLogs = append(d.BuildLogs, "Installing dependencies for "+strings.Join(p.TechStack, ", "))
	}
	if err := s.store.SaveDeployment(ctx, d); err != nil {
		return project.Deployment{}, notFound(err)
	}

	completedAt := s.now()
	d.CompletedAt = &completedAt

	var (
		deployed *project.Project
		activity project.Activity
	)
	if len(files) == 0 {
		d.Status = project.DeploymentFailed
		d.BuildLogs = append(d.BuildLogs, "Build failed: no generated files to deploy")
		activity = s.activity(projectID, project.ActionDeployed, "Deployment failed: no generated files")
	} else {
		url := DeployURL(p, s.deployDomain)
		d.Status = project.DeploymentSuccess
		d.DeployedURL = &url
		d.BuildLogs = append(d.BuildLogs,
			fmt.Sprintf("Bundled %d files", len(files)),
			"Build completed successfully",
			"Deployed to "+url,
		)

		p.Status = project.StatusDeployed
		p.DeploymentURL = &url
		p.UpdatedAt = completedAt
		deployed = &p
		activity = s.activity(projectID, project.ActionDeployed, "Deployed to "+url)
	}

	if err := s.store.CompleteDeployment(ctx, d, deployed, activity); err != nil {
		return project.Deployment{}, notFound(err)
	}

	evt := events.DeploymentCompleted{
		ProjectID:    projectID,
		DeploymentID: d.ID,
		Status:       string(d.Status),
		At:           completedAt,
	}
	if d.DeployedURL != nil {
		evt.URL = *d.DeployedURL
	}
	s.publish(events.SubjectDeploymentCompleted, evt)
	return d, nil
}

func (s *Service) ListDeployments(ctx context.Context, projectID string) ([]project.Deployment, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListDeployments(ctx, projectID)
}

// DeployURL derives the public address of a deployed project.
func DeployURL(p project.Project, domain string) string {
	short := p.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("https://%s-%s.%s", Slug(p.Name), short, domain)
}

// Slug lowercases name and joins its alphanumeric runs with hyphens.
func Slug(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	if b.Len() == 0 {
		return "app"
	}
	return b.String()
}
