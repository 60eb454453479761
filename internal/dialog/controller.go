package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/alekspetrov/weeekbot/internal/comms"
	"github.com/alekspetrov/weeekbot/internal/directory"
	"github.com/alekspetrov/weeekbot/internal/extraction"
	"github.com/alekspetrov/weeekbot/internal/history"
	"github.com/alekspetrov/weeekbot/internal/logging"
	"github.com/alekspetrov/weeekbot/internal/metrics"
	"github.com/alekspetrov/weeekbot/internal/submission"
	"github.com/alekspetrov/weeekbot/internal/transcription"
)

var errIncomplete = errors.New("task fields are incomplete")

// Transcriber is the speech-to-text oracle.
type Transcriber interface {
	Transcribe(ctx context.Context, audio transcription.Audio) (*transcription.Result, error)
}

// Submitter creates a fully resolved task.
type Submitter interface {
	Submit(ctx context.Context, req submission.Request) (*submission.Result, error)
}

// Recorder stores submission outcomes.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Config wires a Controller. Transcriber, Recorder and Metrics are optional.
type Config struct {
	Directory     directory.Service
	Extractor     extraction.Extractor
	Transcriber   Transcriber
	Submitter     Submitter
	Sink          comms.Sink
	Store         *Store
	Recorder      Recorder
	Metrics       *metrics.Metrics
	CancelPhrases []string
	MaxChoices    int
	Now           func() time.Time
}

// Controller drives dialogs: it applies inbound events to the conversation's
// slots, asks the planner what to do next and talks back through the sink.
type Controller struct {
	dir           directory.Service
	extractor     extraction.Extractor
	transcriber   Transcriber
	submitter     Submitter
	sink          comms.Sink
	store         *Store
	recorder      Recorder
	metrics       *metrics.Metrics
	planner       *Planner
	cancelPhrases []string
	now           func() time.Time
	log           *slog.Logger
}

// NewController creates a controller.
func NewController(cfg Config) *Controller {
	c := &Controller{
		dir:           cfg.Directory,
		extractor:     cfg.Extractor,
		transcriber:   cfg.Transcriber,
		submitter:     cfg.Submitter,
		sink:          cfg.Sink,
		store:         cfg.Store,
		recorder:      cfg.Recorder,
		metrics:       cfg.Metrics,
		planner:       NewPlanner(cfg.Directory, cfg.MaxChoices),
		cancelPhrases: cfg.CancelPhrases,
		now:           cfg.Now,
		log:           logging.WithComponent("dialog"),
	}
	if c.store == nil {
		c.store = NewStore()
	}
	if c.submitter == nil {
		c.submitter = submission.New(cfg.Directory)
	}
	if c.cancelPhrases == nil {
		c.cancelPhrases = DefaultCancelPhrases
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Store returns the controller's conversation store.
func (c *Controller) Store() *Store {
	return c.store
}

// CancelPhrases returns the phrases treated as a cancel signal.
func (c *Controller) CancelPhrases() []string {
	return c.cancelPhrases
}

// Handle processes one event to completion. Events of one conversation must
// not be handled concurrently except for cancel, which never blocks on an
// in-flight event.
func (c *Controller) Handle(ctx context.Context, ev Event) {
	ev = Classify(ev, c.cancelPhrases)
	c.metrics.Event(ev.Kind.String())
	ctx = logging.ContextWithConversation(ctx, ev.ConversationID)

	if ev.Kind == EventCancel {
		c.cancel(ctx, ev.ConversationID)
		return
	}

	unlock := c.store.Lock(ev.ConversationID)
	defer unlock()
	defer c.recoverPanic(ctx, ev)

	d, gen := c.store.Snapshot(ev.ConversationID)
	if d != nil {
		ctx = logging.ContextWithDialog(ctx, d.ID.String())
	}

	switch ev.Kind {
	case EventHelp:
		c.send(ctx, ev.ConversationID, comms.Prompt{Text: helpText})
	case EventText:
		c.text(ctx, ev.ConversationID, d, gen, ev.Text)
	case EventVoice:
		text, ok := c.transcribe(ctx, ev)
		if !ok {
			return
		}
		c.text(ctx, ev.ConversationID, d, gen, text)
	case EventSelect:
		if d == nil {
			c.send(ctx, ev.ConversationID, comms.Prompt{Text: msgChoiceExpired})
			return
		}
		c.selectChoice(ctx, d, gen, ev)
	}
}

func (c *Controller) recoverPanic(ctx context.Context, ev Event) {
	r := recover()
	if r == nil {
		return
	}
	logging.WithContext(ctx).Error("dialog handler panicked",
		slog.Any("panic", r),
		slog.String("event", ev.Kind.String()),
	)
	if _, ok := c.store.Cancel(ev.ConversationID); ok {
		c.metrics.DialogFinished(metrics.OutcomeFailed)
		c.metrics.SetActive(c.store.Active())
	}
	c.send(ctx, ev.ConversationID, comms.Prompt{Text: failureMessage(fmt.Errorf("internal error"))})
}

func (c *Controller) cancel(ctx context.Context, conversationID string) {
	d, ok := c.store.Cancel(conversationID)
	if !ok {
		c.send(ctx, conversationID, comms.Prompt{Text: msgNothingToCancel})
		return
	}
	logging.WithContext(ctx).Info("dialog cancelled",
		slog.String("dialog_id", d.ID.String()),
		slog.String("phase", d.Phase.String()),
	)
	c.metrics.DialogFinished(metrics.OutcomeCancelled)
	c.metrics.SetActive(c.store.Active())
	c.send(ctx, conversationID, comms.Prompt{Text: msgCancelled})
}

func (c *Controller) text(ctx context.Context, conversationID string, d *Dialog, gen uint64, text string) {
	if strings.TrimSpace(text) == "" {
		if d != nil {
			c.send(ctx, conversationID, d.LastPrompt)
		}
		return
	}
	if d == nil {
		c.start(ctx, conversationID, gen, text)
		return
	}
	c.answer(ctx, d, gen, text)
}

func (c *Controller) transcribe(ctx context.Context, ev Event) (string, bool) {
	if c.transcriber == nil {
		c.send(ctx, ev.ConversationID, comms.Prompt{Text: msgVoiceUnsupported})
		return "", false
	}

	audio := ev.Audio
	if ev.FetchAudio != nil {
		var err error
		if audio, err = ev.FetchAudio(ctx); err != nil {
			c.metrics.ExternalError("download")
			logging.WithContext(ctx).Warn("voice download failed", slog.Any("error", err))
			c.send(ctx, ev.ConversationID, comms.Prompt{Text: msgVoiceDownload})
			return "", false
		}
	}

	res, err := c.transcriber.Transcribe(ctx, audio)
	if err != nil {
		c.metrics.ExternalError("transcription")
		logging.WithContext(ctx).Error("transcription failed",
			slog.String("audio", audio.Name),
			slog.Int("bytes", len(audio.Data)),
			slog.Any("error", err),
		)
		c.send(ctx, ev.ConversationID, comms.Prompt{Text: msgVoiceFailed})
		return "", false
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		c.send(ctx, ev.ConversationID, comms.Prompt{Text: msgEmptyTranscript})
		return "", false
	}
	c.send(ctx, ev.ConversationID, comms.Prompt{Text: transcriptMessage(text)})
	return text, true
}

// start seeds a new dialog from the extraction of text.
func (c *Controller) start(ctx context.Context, conversationID string, gen uint64, text string) {
	fields := c.extract(ctx, text)

	d := NewDialog(conversationID, fields.Title, c.now())
	d.Slots.Deadline = fields.Deadline
	d.Slots.Assignee.Hint = fields.Assignee
	d.Slots.Project.Hint = fields.Project
	d.Slots.Board.Hint = fields.Board

	ctx = logging.ContextWithDialog(ctx, d.ID.String())
	logging.WithContext(ctx).Info("dialog started",
		slog.String("title", d.Slots.Title),
		slog.Bool("has_deadline", d.Slots.Deadline != ""),
		slog.String("assignee_hint", d.Slots.Assignee.Hint),
		slog.String("project_hint", d.Slots.Project.Hint),
		slog.String("board_hint", d.Slots.Board.Hint),
	)
	c.metrics.DialogStarted()

	c.advance(ctx, d, gen)
}

// extract runs the extraction oracle, degrading to the raw text as title.
func (c *Controller) extract(ctx context.Context, text string) extraction.Fields {
	fallback := extraction.Fields{Title: strings.TrimSpace(text)}
	if c.extractor == nil {
		return fallback
	}

	fields, err := c.extractor.Extract(ctx, text)
	if err != nil {
		c.metrics.ExternalError("extraction")
		logging.WithContext(ctx).Warn("extraction failed, using raw text as title",
			slog.String("text", text),
			slog.Any("error", err),
		)
		return fallback
	}
	if fields == nil || strings.TrimSpace(fields.Title) == "" {
		logging.WithContext(ctx).Warn("extraction returned no title, using raw text",
			slog.String("text", text),
		)
		return fallback
	}
	return *fields
}

// answer applies free text to the slot the dialog is waiting for.
func (c *Controller) answer(ctx context.Context, d *Dialog, gen uint64, text string) {
	switch d.Phase {
	case PhaseAwaitingDeadline:
		d.Slots.Deadline = text
		c.advance(ctx, d, gen)

	case PhaseAwaitingAssigneeText, PhaseAwaitingAssigneeSelection:
		members, err := c.dir.ListMembers(ctx)
		if err != nil {
			c.fail(ctx, d, gen, fmt.Errorf("list members: %w", err))
			return
		}
		if len(members) == 0 {
			d.Slots.Unassign()
			c.advance(ctx, d, gen)
			return
		}
		r := Resolve(text, members)
		switch r.Kind {
		case Resolved:
			d.Slots.Assignee.Resolve(r.Value.ID, r.Value.DisplayName())
			c.advance(ctx, d, gen)
		case Ambiguous:
			c.present(ctx, d, gen, PhaseAwaitingAssigneeSelection,
				assigneePrompt(hintText(msgChooseAssignee, text, r.Kind), r.Candidates))
		default:
			c.present(ctx, d, gen, PhaseAwaitingAssigneeSelection,
				rosterPrompt(hintText(msgChooseAssignee, text, r.Kind), members))
		}

	case PhaseAwaitingProjectSelection:
		projects, err := c.dir.ListProjects(ctx)
		if err != nil {
			c.fail(ctx, d, gen, fmt.Errorf("list projects: %w", err))
			return
		}
		r := MatchTitle(text, projects, projectTitle)
		switch r.Kind {
		case Resolved:
			d.Slots.ResolveProject(r.Value.ID, r.Value.Title)
			c.advance(ctx, d, gen)
		case Ambiguous:
			c.present(ctx, d, gen, PhaseAwaitingProjectSelection,
				projectPrompt(hintText(msgChooseProject, text, r.Kind), r.Candidates))
		default:
			if len(projects) == 0 {
				c.advance(ctx, d, gen)
				return
			}
			c.present(ctx, d, gen, PhaseAwaitingProjectSelection,
				projectPrompt(hintText(msgChooseProject, text, r.Kind), projects))
		}

	case PhaseAwaitingBoardSelection:
		boards, err := c.dir.ListBoards(ctx, d.Slots.Project.ID)
		if err != nil {
			c.fail(ctx, d, gen, fmt.Errorf("list boards of project %d: %w", d.Slots.Project.ID, err))
			return
		}
		r := MatchTitle(text, boards, boardName)
		switch r.Kind {
		case Resolved:
			d.Slots.ResolveBoard(r.Value.ID, r.Value.Name)
			c.advance(ctx, d, gen)
		case Ambiguous:
			c.present(ctx, d, gen, PhaseAwaitingBoardSelection,
				boardPrompt(hintText(msgChooseBoard, text, r.Kind), r.Candidates))
		default:
			if len(boards) == 0 {
				c.advance(ctx, d, gen)
				return
			}
			c.present(ctx, d, gen, PhaseAwaitingBoardSelection,
				boardPrompt(hintText(msgChooseBoard, text, r.Kind), boards))
		}

	default:
		// A stored dialog is never idle; re-plan from the slots.
		c.advance(ctx, d, gen)
	}
}

// selectChoice applies a choice picked from a list.
func (c *Controller) selectChoice(ctx context.Context, d *Dialog, gen uint64, ev Event) {
	if ev.Slot != d.Phase.slotKind() {
		logging.WithContext(ctx).Debug("selection does not match phase",
			slog.String("slot", ev.Slot),
			slog.String("phase", d.Phase.String()),
		)
		c.send(ctx, d.ConversationID, d.LastPrompt)
		return
	}

	switch ev.Slot {
	case SlotAssignee:
		if ev.ChoiceID == "" {
			d.Slots.Unassign()
			break
		}
		members, err := c.dir.ListMembers(ctx)
		if err != nil {
			c.fail(ctx, d, gen, fmt.Errorf("list members: %w", err))
			return
		}
		m, ok := findMember(members, ev.ChoiceID)
		if !ok {
			c.optionGone(ctx, d)
			return
		}
		d.Slots.Assignee.Resolve(m.ID, m.DisplayName())

	case SlotProject:
		id, err := strconv.Atoi(ev.ChoiceID)
		if err != nil {
			c.optionGone(ctx, d)
			return
		}
		projects, err := c.dir.ListProjects(ctx)
		if err != nil {
			c.fail(ctx, d, gen, fmt.Errorf("list projects: %w", err))
			return
		}
		p, ok := findByID(projects, id, func(p directory.Project) int { return p.ID })
		if !ok {
			c.optionGone(ctx, d)
			return
		}
		d.Slots.ResolveProject(p.ID, p.Title)

	case SlotBoard:
		id, err := strconv.Atoi(ev.ChoiceID)
		if err != nil {
			c.optionGone(ctx, d)
			return
		}
		boards, err := c.dir.ListBoards(ctx, d.Slots.Project.ID)
		if err != nil {
			c.fail(ctx, d, gen, fmt.Errorf("list boards of project %d: %w", d.Slots.Project.ID, err))
			return
		}
		b, ok := findByID(boards, id, func(b directory.Board) int { return b.ID })
		if !ok {
			c.optionGone(ctx, d)
			return
		}
		d.Slots.ResolveBoard(b.ID, b.Name)
	}

	c.advance(ctx, d, gen)
}

func (c *Controller) optionGone(ctx context.Context, d *Dialog) {
	p := clonePrompt(d.LastPrompt)
	p.Text = msgOptionGone + " " + p.Text
	c.send(ctx, d.ConversationID, p)
}

// advance asks the planner for the next step and carries it out.
func (c *Controller) advance(ctx context.Context, d *Dialog, gen uint64) {
	dec, err := c.planner.Next(ctx, d.Slots)
	if err != nil {
		c.fail(ctx, d, gen, err)
		return
	}
	d.Slots = dec.Slots

	switch dec.Action {
	case ActionAsk, ActionChoose:
		c.present(ctx, d, gen, dec.Phase, dec.Prompt)

	case ActionAbort:
		if !c.store.Clear(d.ConversationID, gen) {
			c.stale(ctx, d)
			return
		}
		logging.WithContext(ctx).Warn("dialog aborted",
			slog.String("phase", d.Phase.String()),
			slog.String("reason", dec.Reason),
		)
		c.metrics.DialogFinished(metrics.OutcomeAborted)
		c.metrics.SetActive(c.store.Active())
		c.send(ctx, d.ConversationID, dec.Prompt)

	case ActionSubmit:
		if !d.Slots.Complete() {
			c.fail(ctx, d, gen, errIncomplete)
			return
		}
		c.submit(ctx, d, gen)
	}
}

// present stores the dialog in phase and sends the prompt.
func (c *Controller) present(ctx context.Context, d *Dialog, gen uint64, phase Phase, p comms.Prompt) {
	d.Phase = phase
	d.LastPrompt = p
	d.UpdatedAt = c.now()
	if !c.store.Save(d.ConversationID, gen, d) {
		c.stale(ctx, d)
		return
	}
	c.metrics.Phase(phase.String())
	c.metrics.SetActive(c.store.Active())
	c.send(ctx, d.ConversationID, p)
}

// submit clears the dialog and hands the slots to the submitter. The
// outcome is reported whatever happens afterwards.
func (c *Controller) submit(ctx context.Context, d *Dialog, gen uint64) {
	if !c.store.Clear(d.ConversationID, gen) {
		c.stale(ctx, d)
		return
	}
	c.metrics.SetActive(c.store.Active())
	c.send(ctx, d.ConversationID, comms.Prompt{Text: summaryMessage(d.Slots)})

	req := submission.Request{
		Title:      d.Slots.Title,
		Deadline:   d.Slots.Deadline,
		AssigneeID: d.Slots.Assignee.ID,
		ProjectID:  d.Slots.Project.ID,
		BoardID:    d.Slots.Board.ID,
	}

	started := c.now()
	res, err := c.submitter.Submit(ctx, req)
	c.metrics.ObserveSubmit(c.now().Sub(started))

	entry := history.Entry{
		DialogID:       d.ID.String(),
		ConversationID: d.ConversationID,
		Title:          d.Slots.Title,
		Deadline:       d.Slots.Deadline,
		AssigneeID:     d.Slots.Assignee.ID,
		AssigneeName:   d.Slots.Assignee.Label,
		ProjectID:      d.Slots.Project.ID,
		ProjectTitle:   d.Slots.Project.Label,
		BoardID:        d.Slots.Board.ID,
		BoardName:      d.Slots.Board.Label,
		CreatedAt:      c.now(),
	}

	if err != nil {
		entry.Status = history.StatusFailed
		entry.Error = err.Error()
		c.record(ctx, entry)

		if !errors.Is(err, submission.ErrBacklogMissing) {
			c.metrics.ExternalError("submission")
		}
		c.metrics.DialogFinished(metrics.OutcomeFailed)
		logging.WithContext(ctx).Error("task submission failed",
			slog.String("title", req.Title),
			slog.Int("project_id", req.ProjectID),
			slog.Int("board_id", req.BoardID),
			slog.Any("error", err),
		)
		c.send(ctx, d.ConversationID, comms.Prompt{Text: submitFailedMessage(err)})
		return
	}

	entry.Status = history.StatusCreated
	entry.TaskID = res.TaskID
	c.record(ctx, entry)

	c.metrics.DialogFinished(metrics.OutcomeSubmitted)
	logging.WithContext(ctx).Info("task submitted", slog.Int("task_id", res.TaskID))
	c.send(ctx, d.ConversationID, comms.Prompt{Text: createdMessage(d.Slots.Title, res.TaskID)})
}

// fail ends the dialog after an unexpected collaborator error.
func (c *Controller) fail(ctx context.Context, d *Dialog, gen uint64, err error) {
	c.metrics.ExternalError("directory")
	logging.WithContext(ctx).Error("dialog failed",
		slog.String("phase", d.Phase.String()),
		slog.Any("slots", d.Slots),
		slog.Any("error", err),
	)
	if !c.store.Clear(d.ConversationID, gen) {
		c.stale(ctx, d)
		return
	}
	c.metrics.DialogFinished(metrics.OutcomeFailed)
	c.metrics.SetActive(c.store.Active())
	c.send(ctx, d.ConversationID, comms.Prompt{Text: failureMessage(err)})
}

// stale logs work discarded because the dialog was cancelled meanwhile.
func (c *Controller) stale(ctx context.Context, d *Dialog) {
	logging.WithContext(ctx).Info("dialog changed while handling event, discarding result",
		slog.String("phase", d.Phase.String()),
	)
}

func (c *Controller) record(ctx context.Context, e history.Entry) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(ctx, e); err != nil {
		logging.WithContext(ctx).Warn("failed to record submission", slog.Any("error", err))
	}
}

func (c *Controller) send(ctx context.Context, conversationID string, p comms.Prompt) {
	if c.sink == nil || p.Text == "" {
		return
	}
	if err := c.sink.Send(ctx, conversationID, p); err != nil {
		logging.WithContext(ctx).Warn("failed to send prompt", slog.Any("error", err))
	}
}

func findMember(members []directory.Member, id string) (directory.Member, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return directory.Member{}, false
}

func findByID[T any](items []T, id int, key func(T) int) (T, bool) {
	for _, it := range items {
		if key(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}
