// Package directory defines the roster entities and the directory & task
// service contract the dialog engine resolves against.
package directory

import (
	"context"
	"fmt"
	"strings"
)

// Member is a workspace member who can be assigned a task.
type Member struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

// DisplayName returns "First Last", falling back to the email and then the id.
func (m Member) DisplayName() string {
	name := strings.TrimSpace(m.FirstName + " " + m.LastName)
	if name != "" {
		return name
	}
	if m.Email != "" {
		return m.Email
	}
	return m.ID
}

// Project is a top-level project in the workspace.
type Project struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Board is a workflow board scoped to a project.
type Board struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ProjectID int    `json:"projectId"`
}

// Column is a workflow column on a board.
type Column struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	BoardID int    `json:"boardId"`
}

// Location places a task on a project board column.
type Location struct {
	ProjectID     int `json:"projectId"`
	BoardColumnID int `json:"boardColumnId"`
}

// CreateTaskRequest is the payload for creating a task.
// DueDate is passed through verbatim; the service owns date semantics.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Locations   []Location `json:"locations"`
	DueDate     string     `json:"dueDate,omitempty"`
	UserID      string     `json:"userId,omitempty"`
}

// Task is a created task.
type Task struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Service is the external directory & task service.
type Service interface {
	ListMembers(ctx context.Context) ([]Member, error)
	ListProjects(ctx context.Context) ([]Project, error)
	ListBoards(ctx context.Context, projectID int) ([]Board, error)
	ListBoardColumns(ctx context.Context, boardID int) ([]Column, error)
	CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error)
}

// APIError is a failed call to the service. Status and Message are the
// upstream values and are shown to the user unchanged.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("weeek API error (status %d): %s", e.Status, e.Message)
}
