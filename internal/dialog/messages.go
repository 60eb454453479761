package dialog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alekspetrov/weeekbot/internal/comms"
	"github.com/alekspetrov/weeekbot/internal/directory"
)

const (
	msgAskDeadline      = "When is it due? (for example, \"tomorrow 18:00\")"
	msgAskAssigneeText  = "Who is responsible for this task? Send a name."
	msgChooseAssignee   = "Who is responsible for this task?"
	msgChooseProject    = "Which project does it belong to?"
	msgChooseBoard      = "Which board should it go on?"
	msgNoAssignee       = "No assignee"
	msgNothingToCancel  = "There is nothing to cancel."
	msgCancelled        = "Cancelled. What else can I do for you?"
	msgChoiceExpired    = "That choice has expired. Send a new task description to start over."
	msgOptionGone       = "That option is no longer available."
	msgNoProjects       = "There are no projects in the workspace, so the task cannot be created. Please try again later."
	msgNoBoards         = "The project %q has no boards, so the task cannot be created. Please try again later."
	msgEmptyTranscript  = "I could not recognize any speech. Please record it again."
	msgVoiceFailed      = "Something went wrong while processing the voice message. Please try again."
	msgVoiceDownload    = "Failed to download the voice message. Please try again."
	msgVoiceUnsupported = "Voice messages are not supported here. Please type the task."
	msgExpired          = "Your unfinished task %q was discarded after a period of inactivity."
)

const helpText = `I create tasks in Weeek.

Send me a task description as text or a voice message and I will fill in the rest, asking about anything that is missing.

For example:
"Prepare the November report, deadline tomorrow 18:00, assignee Ivan, project Marketing"

Send /cancel or "cancel" at any time to drop the current task.`

func transcriptMessage(text string) string {
	return fmt.Sprintf("Transcription:\n\n«%s»", text)
}

func failureMessage(err error) string {
	return fmt.Sprintf("Something went wrong: %v\nThe task was not created. Please start over.", err)
}

func summaryMessage(s Slots) string {
	assignee := s.Assignee.Label
	if s.Unassigned() || assignee == "" {
		assignee = "not assigned"
	}
	var b strings.Builder
	b.WriteString("All set:\n")
	fmt.Fprintf(&b, "Title: %s\n", s.Title)
	fmt.Fprintf(&b, "Deadline: %s\n", s.Deadline)
	fmt.Fprintf(&b, "Assignee: %s\n", assignee)
	fmt.Fprintf(&b, "Project: %s\n", s.Project.Label)
	fmt.Fprintf(&b, "Board: %s\n\n", s.Board.Label)
	b.WriteString("Creating the task in Weeek...")
	return b.String()
}

func createdMessage(title string, taskID int) string {
	return fmt.Sprintf("Task «%s» created (#%d).", title, taskID)
}

func submitFailedMessage(err error) string {
	return fmt.Sprintf("Failed to create the task in Weeek: %v\nPlease start over.", err)
}

// assigneePrompt lists exactly the given members.
func assigneePrompt(text string, members []directory.Member) comms.Prompt {
	choices := make([]comms.Choice, 0, len(members)+1)
	for _, m := range members {
		choices = append(choices, comms.Choice{
			Label: m.DisplayName(),
			Token: comms.EncodeChoice(SlotAssignee, m.ID),
		})
	}
	return comms.Prompt{Text: text, Choices: choices}
}

// rosterPrompt lists the whole roster followed by a "No assignee" choice.
func rosterPrompt(text string, members []directory.Member) comms.Prompt {
	p := assigneePrompt(text, members)
	p.Choices = append(p.Choices, comms.Choice{
		Label: msgNoAssignee,
		Token: comms.EncodeChoice(SlotAssignee, ""),
	})
	return p
}

func projectPrompt(text string, projects []directory.Project) comms.Prompt {
	choices := make([]comms.Choice, 0, len(projects))
	for _, p := range projects {
		choices = append(choices, comms.Choice{
			Label: p.Title,
			Token: comms.EncodeChoice(SlotProject, strconv.Itoa(p.ID)),
		})
	}
	return comms.Prompt{Text: text, Choices: choices}
}

func boardPrompt(text string, boards []directory.Board) comms.Prompt {
	choices := make([]comms.Choice, 0, len(boards))
	for _, b := range boards {
		choices = append(choices, comms.Choice{
			Label: b.Name,
			Token: comms.EncodeChoice(SlotBoard, strconv.Itoa(b.ID)),
		})
	}
	return comms.Prompt{Text: text, Choices: choices}
}

// hintText prefixes base with a note about an unmatched or ambiguous hint.
func hintText(base, hint string, kind ResolutionKind) string {
	switch {
	case hint == "":
		return base
	case kind == Ambiguous:
		return fmt.Sprintf("Several matches for %q. %s", hint, base)
	default:
		return fmt.Sprintf("No match for %q. %s", hint, base)
	}
}
