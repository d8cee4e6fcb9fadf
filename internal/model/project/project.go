package project

import (
	"fmt"
	"strings"
	"time"
)

// Type is the kind of application a project builds.
type Type string

const (
	TypeWeb       Type = "web"
	TypeMobile    Type = "mobile"
	TypeAPI       Type = "api"
	TypeFullstack Type = "fullstack"
)

// Status tracks the project lifecycle.
type Status string

const (
	StatusActive   Status = "active"
	StatusDeployed Status = "deployed"
	StatusArchived Status = "archived"
)

// DefaultUserID owns every project until authentication exists.
const DefaultUserID = "default_user"

// Project captures a DevForge application workspace.
type Project struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	ProjectType   Type      `json:"projectType"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	UserID        string    `json:"userId"`
	TechStack     []string  `json:"techStack"`
	DeploymentURL *string   `json:"deploymentUrl"`
}

// Create is the payload accepted when creating a project.
type Create struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ProjectType string   `json:"projectType"`
	TechStack   []string `json:"techStack"`
}

// Update carries a partial project patch; nil fields are left untouched.
type Update struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Status      *string   `json:"status"`
	TechStack   *[]string `json:"techStack"`
}

// ParseType validates a raw project type.
func ParseType(raw string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case TypeWeb, TypeMobile, TypeAPI, TypeFullstack:
		return t, nil
	default:
		return "", fmt.Errorf("unknown project type %q", raw)
	}
}

// ParseStatus validates a raw project status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusActive, StatusDeployed, StatusArchived:
		return s, nil
	default:
		return "", fmt.Errorf("unknown project status %q", raw)
	}
}

// Seed provides the starter project created on an empty workspace.
func Seed(now time.Time) Project {
	return Project{
		ID:          "welcome-project",
		Name:        "Welcome Project",
		Description: "A starter project to showcase the DevForge API.",
		ProjectType: TypeWeb,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
		UserID:      DefaultUserID,
		TechStack:   []string{"React", "FastAPI", "MongoDB"},
	}
}
