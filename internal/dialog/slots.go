// Package dialog implements the slot-filling conversation that turns a
// free-form task description into a resolved task-creation request.
package dialog

import (
	"time"

	"github.com/google/uuid"

	"github.com/alekspetrov/weeekbot/internal/comms"
)

// Phase describes what input a dialog is currently waiting for.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingDeadline
	PhaseAwaitingAssigneeText
	PhaseAwaitingProjectSelection
	PhaseAwaitingBoardSelection
	PhaseAwaitingAssigneeSelection
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseAwaitingDeadline:
		return "AwaitingDeadline"
	case PhaseAwaitingAssigneeText:
		return "AwaitingAssigneeText"
	case PhaseAwaitingProjectSelection:
		return "AwaitingProjectSelection"
	case PhaseAwaitingBoardSelection:
		return "AwaitingBoardSelection"
	case PhaseAwaitingAssigneeSelection:
		return "AwaitingAssigneeSelection"
	default:
		return "Unknown"
	}
}

// slotKind returns the choice kind a selection phase accepts, or "".
func (p Phase) slotKind() string {
	switch p {
	case PhaseAwaitingAssigneeSelection, PhaseAwaitingAssigneeText:
		return SlotAssignee
	case PhaseAwaitingProjectSelection:
		return SlotProject
	case PhaseAwaitingBoardSelection:
		return SlotBoard
	}
	return ""
}

// Choice kinds carried in selection tokens.
const (
	SlotAssignee = "assignee"
	SlotProject  = "project"
	SlotBoard    = "board"
)

// Slot is a field resolved in two steps: a free-text hint from extraction,
// then a concrete identifier from the directory.
// Label is the display name of the resolved entity.
type Slot[ID comparable] struct {
	Hint     string
	ID       ID
	Label    string
	Resolved bool
}

// Resolve marks the slot resolved to id.
func (s *Slot[ID]) Resolve(id ID, label string) {
	s.ID = id
	s.Label = label
	s.Resolved = true
}

// Pending reports whether a hint is present but no identifier has been chosen.
func (s Slot[ID]) Pending() bool {
	return !s.Resolved && s.Hint != ""
}

// Slots is what is known about the task being created.
type Slots struct {
	Title    string
	Deadline string
	Assignee Slot[string]
	Project  Slot[int]
	Board    Slot[int]
}

// Unassigned reports whether the assignee resolved to "nobody".
func (s Slots) Unassigned() bool {
	return s.Assignee.Resolved && s.Assignee.ID == ""
}

// Complete reports whether every slot needed for submission is resolved.
func (s Slots) Complete() bool {
	return s.Title != "" && s.Deadline != "" &&
		s.Assignee.Resolved && s.Project.Resolved && s.Board.Resolved
}

// ResolveProject sets the project and resets the board, which is scoped to it.
func (s *Slots) ResolveProject(id int, title string) {
	s.Project.Resolve(id, title)
	s.Board = Slot[int]{Hint: s.Board.Hint}
}

// ResolveBoard sets the board. It is a no-op while the project is unresolved.
func (s *Slots) ResolveBoard(id int, name string) bool {
	if !s.Project.Resolved {
		return false
	}
	s.Board.Resolve(id, name)
	return true
}

// Unassign resolves the assignee to the null-assignee sentinel.
func (s *Slots) Unassign() {
	s.Assignee.Resolve("", "")
}

// Dialog is the state of one active task-creation conversation.
type Dialog struct {
	ID             uuid.UUID
	ConversationID string
	Phase          Phase
	Slots          Slots

	// LastPrompt is re-sent when the user answers something the current
	// phase does not expect.
	LastPrompt comms.Prompt

	StartedAt time.Time
	UpdatedAt time.Time
}

// NewDialog starts a dialog for conversationID with the given title.
func NewDialog(conversationID, title string, now time.Time) *Dialog {
	return &Dialog{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Phase:          PhaseIdle,
		Slots:          Slots{Title: title},
		StartedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy of d.
func (d *Dialog) Clone() *Dialog {
	if d == nil {
		return nil
	}
	c := *d
	c.LastPrompt = clonePrompt(d.LastPrompt)
	return &c
}

func clonePrompt(p comms.Prompt) comms.Prompt {
	if p.Choices != nil {
		p.Choices = append([]comms.Choice(nil), p.Choices...)
	}
	return p
}
