// Package submission places a fully resolved task on its board.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alekspetrov/weeekbot/internal/directory"
	"github.com/alekspetrov/weeekbot/internal/logging"
)

// DefaultBacklogColumn is the column new tasks are placed in.
const DefaultBacklogColumn = "Backlog"

// ErrBacklogMissing is returned when the board has no backlog column.
var ErrBacklogMissing = errors.New("backlog column not found")

// Request is a resolved task. An empty AssigneeID leaves the task unassigned.
type Request struct {
	Title      string
	Deadline   string
	AssigneeID string
	ProjectID  int
	BoardID    int
}

// Result describes the created task.
type Result struct {
	TaskID   int
	ColumnID int
}

// Orchestrator performs the column lookup and task creation. It never retries.
type Orchestrator struct {
	dir     directory.Service
	backlog string
	log     *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBacklogColumn overrides the name of the column tasks are placed in.
func WithBacklogColumn(name string) Option {
	return func(o *Orchestrator) {
		if name != "" {
			o.backlog = name
		}
	}
}

// New creates an orchestrator.
func New(dir directory.Service, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		dir:     dir,
		backlog: DefaultBacklogColumn,
		log:     logging.WithComponent("submission"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit creates the task. Upstream errors are returned unchanged apart from
// wrapping, so errors.As finds *directory.APIError.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Result, error) {
	columns, err := o.dir.ListBoardColumns(ctx, req.BoardID)
	if err != nil {
		return nil, fmt.Errorf("list columns of board %d: %w", req.BoardID, err)
	}

	columnID, ok := findColumn(columns, o.backlog)
	if !ok {
		o.log.Warn("backlog column missing",
			slog.Int("board_id", req.BoardID),
			slog.String("column", o.backlog),
			slog.Int("columns", len(columns)),
		)
		return nil, fmt.Errorf("%w: board %d has no column named %q", ErrBacklogMissing, req.BoardID, o.backlog)
	}

	task, err := o.dir.CreateTask(ctx, directory.CreateTaskRequest{
		Title:       req.Title,
		Description: "",
		Locations:   []directory.Location{{ProjectID: req.ProjectID, BoardColumnID: columnID}},
		DueDate:     req.Deadline,
		UserID:      req.AssigneeID,
	})
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	o.log.Info("task created",
		slog.Int("task_id", task.ID),
		slog.Int("project_id", req.ProjectID),
		slog.Int("column_id", columnID),
	)
	return &Result{TaskID: task.ID, ColumnID: columnID}, nil
}

func findColumn(columns []directory.Column, name string) (int, bool) {
	for _, c := range columns {
		if c.Name == name {
			return c.ID, true
		}
	}
	return 0, false
}
