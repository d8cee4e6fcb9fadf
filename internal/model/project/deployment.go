package project

import "time"

// DeploymentStatus follows a build through its lifecycle.
type DeploymentStatus string

const (
	DeploymentPending  DeploymentStatus = "pending"
	DeploymentBuilding DeploymentStatus = "building"
	DeploymentSuccess  DeploymentStatus = "success"
	DeploymentFailed   DeploymentStatus = "failed"
)

// Deployment records a single deploy attempt.
type Deployment struct {
	ID          string           `json:"id"`
	ProjectID   string           `json:"projectId"`
	Status      DeploymentStatus `json:"status"`
	DeployedURL *string          `json:"deployedUrl"`
	BuildLogs   []string         `json:"buildLogs"`
	CreatedAt   time.Time        `json:"createdAt"`
	CompletedAt *time.Time       `json:"completedAt"`
}
