package dialog

import (
	"context"
	"sync"

	"github.com/alekspetrov/weeekbot/internal/comms"
	"github.com/alekspetrov/weeekbot/internal/directory"
	"github.com/alekspetrov/weeekbot/internal/extraction"
	"github.com/alekspetrov/weeekbot/internal/history"
	"github.com/alekspetrov/weeekbot/internal/transcription"
)

type fakeDirectory struct {
	mu       sync.Mutex
	members  []directory.Member
	projects []directory.Project
	boards   map[int][]directory.Board
	columns  map[int][]directory.Column

	membersErr error
	projectErr error

	// membersGate, when set, blocks ListMembers until it is closed;
	// membersEntered is signalled first.
	membersGate    chan struct{}
	membersEntered chan struct{}

	created []directory.CreateTaskRequest
	calls   map[string]int
}

func (f *fakeDirectory) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *fakeDirectory) ListMembers(ctx context.Context) ([]directory.Member, error) {
	f.count("members")
	if f.membersGate != nil {
		if f.membersEntered != nil {
			f.membersEntered <- struct{}{}
		}
		<-f.membersGate
	}
	return f.members, f.membersErr
}

func (f *fakeDirectory) ListProjects(ctx context.Context) ([]directory.Project, error) {
	f.count("projects")
	return f.projects, f.projectErr
}

func (f *fakeDirectory) ListBoards(ctx context.Context, projectID int) ([]directory.Board, error) {
	f.count("boards")
	return f.boards[projectID], nil
}

func (f *fakeDirectory) ListBoardColumns(ctx context.Context, boardID int) ([]directory.Column, error) {
	f.count("columns")
	return f.columns[boardID], nil
}

func (f *fakeDirectory) CreateTask(ctx context.Context, req directory.CreateTaskRequest) (*directory.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return &directory.Task{ID: 1000 + len(f.created), Title: req.Title}, nil
}

// standardDirectory has two members, two projects and boards with and
// without a Backlog column.
func standardDirectory() *fakeDirectory {
	return &fakeDirectory{
		members: []directory.Member{
			{ID: "u-1", FirstName: "Ivan", LastName: "Petrov", Email: "ivan.p@example.com"},
			{ID: "u-2", FirstName: "Maria", LastName: "Sidorova"},
		},
		projects: []directory.Project{
			{ID: 1, Title: "Marketing"},
			{ID: 2, Title: "Engineering"},
		},
		boards: map[int][]directory.Board{
			1: {{ID: 11, Name: "Campaigns", ProjectID: 1}},
			2: {{ID: 21, Name: "Sprint", ProjectID: 2}, {ID: 22, Name: "Bugs", ProjectID: 2}},
		},
		columns: map[int][]directory.Column{
			11: {{ID: 111, Name: "Backlog", BoardID: 11}},
			21: {{ID: 211, Name: "Backlog", BoardID: 21}, {ID: 212, Name: "Done", BoardID: 21}},
			22: {{ID: 221, Name: "Triage", BoardID: 22}},
		},
	}
}

type fakeSink struct {
	mu      sync.Mutex
	prompts map[string][]comms.Prompt
}

func (s *fakeSink) Send(ctx context.Context, conversationID string, p comms.Prompt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prompts == nil {
		s.prompts = make(map[string][]comms.Prompt)
	}
	s.prompts[conversationID] = append(s.prompts[conversationID], p)
	return nil
}

func (s *fakeSink) all(conversationID string) []comms.Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]comms.Prompt(nil), s.prompts[conversationID]...)
}

func (s *fakeSink) last(conversationID string) comms.Prompt {
	all := s.all(conversationID)
	if len(all) == 0 {
		return comms.Prompt{}
	}
	return all[len(all)-1]
}

func staticExtractor(fields extraction.Fields) extraction.Extractor {
	return extraction.ExtractorFunc(func(context.Context, string) (*extraction.Fields, error) {
		f := fields
		return &f, nil
	})
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f fakeTranscriber) Transcribe(context.Context, transcription.Audio) (*transcription.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &transcription.Result{Text: f.text}, nil
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (r *memoryRecorder) Record(ctx context.Context, e history.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func tokens(p comms.Prompt) []string {
	out := make([]string, len(p.Choices))
	for i, c := range p.Choices {
		out[i] = c.Token
	}
	return out
}

func transcriptionAudio() transcription.Audio {
	return transcription.Audio{Name: "voice.oga", Data: []byte("OggS")}
}
