package project

import (
	"fmt"
	"strings"
	"time"
)

// CollaboratorRole grants a level of access to a project.
type CollaboratorRole string

const (
	RoleOwner  CollaboratorRole = "owner"
	RoleEditor CollaboratorRole = "editor"
	RoleViewer CollaboratorRole = "viewer"
)

// ParseRole validates a collaborator role, defaulting to viewer when empty.
func ParseRole(raw string) (CollaboratorRole, error) {
	r := CollaboratorRole(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case "":
		return RoleViewer, nil
	case RoleOwner, RoleEditor, RoleViewer:
		return r, nil
	default:
		return "", fmt.Errorf("unknown collaborator role %q", raw)
	}
}

type Collaborator struct {
	ID        string           `json:"id"`
	ProjectID string           `json:"projectId"`
	Email     string           `json:"email"`
	Role      CollaboratorRole `json:"role"`
	AddedAt   time.Time        `json:"addedAt"`
}

// Action names an entry in the project activity feed.
type Action string

const (
	ActionCreated           Action = "created"
	ActionUpdated           Action = "updated"
	ActionDeployed          Action = "deployed"
	ActionCommented         Action = "commented"
	ActionChat              Action = "chat"
	ActionCollaboratorAdded Action = "collaborator_added"
)

type Activity struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	UserID      string    `json:"userId"`
	Action      Action    `json:"action"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

type Comment struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
