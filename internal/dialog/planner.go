package dialog

import (
	"context"
	"fmt"

	"github.com/alekspetrov/weeekbot/internal/comms"
	"github.com/alekspetrov/weeekbot/internal/directory"
)

// Action is the kind of step the planner decided on.
type Action int

const (
	ActionAsk Action = iota
	ActionChoose
	ActionSubmit
	ActionAbort
)

func (a Action) String() string {
	switch a {
	case ActionAsk:
		return "ask"
	case ActionChoose:
		return "choose"
	case ActionSubmit:
		return "submit"
	case ActionAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Decision is the planner's next step. Slots carries any slots the planner
// resolved on its own; Reason is set for ActionAbort.
type Decision struct {
	Action Action
	Phase  Phase
	Prompt comms.Prompt
	Slots  Slots
	Reason string
}

// Planner decides what to ask next. Slots are resolved in a fixed order:
// deadline, assignee, project, board.
type Planner struct {
	dir        directory.Service
	maxChoices int
}

// NewPlanner creates a planner. With maxChoices > 0, a member roster larger
// than maxChoices is not offered as a list when there is no name hint; the
// user is asked to type a name instead.
func NewPlanner(dir directory.Service, maxChoices int) *Planner {
	return &Planner{dir: dir, maxChoices: maxChoices}
}

// Next returns the next step for s. Rosters are fetched fresh on every call.
// Errors are directory failures; empty rosters are decisions, not errors.
func (p *Planner) Next(ctx context.Context, s Slots) (Decision, error) {
	if s.Deadline == "" {
		return ask(s, PhaseAwaitingDeadline, msgAskDeadline), nil
	}

	if !s.Assignee.Resolved {
		members, err := p.dir.ListMembers(ctx)
		if err != nil {
			return Decision{}, fmt.Errorf("list members: %w", err)
		}
		if len(members) == 0 {
			s.Unassign()
		} else if s.Assignee.Hint != "" {
			r := Resolve(s.Assignee.Hint, members)
			switch r.Kind {
			case Resolved:
				s.Assignee.Resolve(r.Value.ID, r.Value.DisplayName())
			case Ambiguous:
				return choose(s, PhaseAwaitingAssigneeSelection,
					assigneePrompt(hintText(msgChooseAssignee, s.Assignee.Hint, r.Kind), r.Candidates)), nil
			default:
				return choose(s, PhaseAwaitingAssigneeSelection,
					rosterPrompt(hintText(msgChooseAssignee, s.Assignee.Hint, r.Kind), members)), nil
			}
		} else if p.maxChoices > 0 && len(members) > p.maxChoices {
			return ask(s, PhaseAwaitingAssigneeText, msgAskAssigneeText), nil
		} else {
			return choose(s, PhaseAwaitingAssigneeSelection, rosterPrompt(msgChooseAssignee, members)), nil
		}
	}

	if !s.Project.Resolved {
		projects, err := p.dir.ListProjects(ctx)
		if err != nil {
			return Decision{}, fmt.Errorf("list projects: %w", err)
		}
		if len(projects) == 0 {
			return abort(s, msgNoProjects), nil
		}
		r := MatchTitle(s.Project.Hint, projects, projectTitle)
		switch r.Kind {
		case Resolved:
			s.ResolveProject(r.Value.ID, r.Value.Title)
		case Ambiguous:
			return choose(s, PhaseAwaitingProjectSelection,
				projectPrompt(hintText(msgChooseProject, s.Project.Hint, r.Kind), r.Candidates)), nil
		default:
			return choose(s, PhaseAwaitingProjectSelection,
				projectPrompt(hintText(msgChooseProject, s.Project.Hint, r.Kind), projects)), nil
		}
	}

	if !s.Board.Resolved {
		boards, err := p.dir.ListBoards(ctx, s.Project.ID)
		if err != nil {
			return Decision{}, fmt.Errorf("list boards of project %d: %w", s.Project.ID, err)
		}
		if len(boards) == 0 {
			return abort(s, fmt.Sprintf(msgNoBoards, s.Project.Label)), nil
		}
		r := MatchTitle(s.Board.Hint, boards, boardName)
		switch r.Kind {
		case Resolved:
			s.ResolveBoard(r.Value.ID, r.Value.Name)
		case Ambiguous:
			return choose(s, PhaseAwaitingBoardSelection,
				boardPrompt(hintText(msgChooseBoard, s.Board.Hint, r.Kind), r.Candidates)), nil
		default:
			return choose(s, PhaseAwaitingBoardSelection,
				boardPrompt(hintText(msgChooseBoard, s.Board.Hint, r.Kind), boards)), nil
		}
	}

	return Decision{Action: ActionSubmit, Phase: PhaseIdle, Slots: s}, nil
}

func ask(s Slots, phase Phase, text string) Decision {
	return Decision{Action: ActionAsk, Phase: phase, Prompt: comms.Prompt{Text: text}, Slots: s}
}

func choose(s Slots, phase Phase, prompt comms.Prompt) Decision {
	return Decision{Action: ActionChoose, Phase: phase, Prompt: prompt, Slots: s}
}

func abort(s Slots, reason string) Decision {
	return Decision{Action: ActionAbort, Phase: PhaseIdle, Prompt: comms.Prompt{Text: reason}, Slots: s, Reason: reason}
}
