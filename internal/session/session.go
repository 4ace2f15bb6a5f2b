// Package session runs one viewer session per client connection. Commands
// are queued and processed strictly one at a time by the session's own
// goroutine, so replies always come back in submission order.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/mviewer/internal/metrics"
	"github.com/lehigh-university-libraries/mviewer/internal/models"
	"github.com/lehigh-university-libraries/mviewer/internal/montage"
	"github.com/lehigh-university-libraries/mviewer/internal/samplelog"
)

const (
	viewFile  = "view.json"
	pickFile  = "pick.json"
	queueSize = 64
)

// Responder delivers a reply to the client
type Responder func(msg string)

type Options struct {
	ID string
	// WorkspaceRoot is the parent of the per-session artifact directory
	WorkspaceRoot string
	Toolkit       montage.Toolkit
	// Template is copied as the starting view; nil means defaults
	Template   *models.ViewState
	PickRadius int
	// ArchiveDir receives <id>.parquet on close when samples were taken
	ArchiveDir string
	Respond    Responder
	// OnClose runs after the workspace has been removed
	OnClose func(id string)
}

type request struct {
	line  string
	reply chan []string
}

// Summary is the listing form of a session
type Summary struct {
	ID          string             `json:"id"`
	DisplayMode models.DisplayMode `json:"display_mode"`
	ImageFile   string             `json:"image_file"`
	Commands    int                `json:"commands"`
	Samples     int                `json:"samples"`
	CreatedAt   time.Time          `json:"created_at"`
}

type Session struct {
	id         string
	workspace  string
	toolkit    montage.Toolkit
	radius     int
	archiveDir string
	respond    Responder
	onClose    func(string)
	samples    *samplelog.Log
	createdAt  time.Time

	// owned by the actor goroutine
	view      *models.ViewState
	inspected string

	sendMu   sync.Mutex
	closed   bool
	commands chan request
	done     chan struct{}

	viewMu    sync.RWMutex
	published *models.ViewState
	processed int

	closeOnce sync.Once
	closeErr  error
}

// New creates the workspace directory and starts the session goroutine
func New(opts Options) (*Session, error) {
	if opts.Toolkit == nil {
		return nil, fmt.Errorf("session requires a toolkit")
	}
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("invalid session id %q", id)
	}

	workspace := filepath.Join(opts.WorkspaceRoot, id)
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	view := models.NewViewState()
	if opts.Template != nil {
		view = opts.Template.Clone()
	}

	radius := opts.PickRadius
	if radius <= 0 {
		radius = 31
	}

	respond := opts.Respond
	if respond == nil {
		respond = func(string) {}
	}

	s := &Session{
		id:         id,
		workspace:  workspace,
		toolkit:    opts.Toolkit,
		radius:     radius,
		archiveDir: opts.ArchiveDir,
		respond:    respond,
		onClose:    opts.OnClose,
		samples:    samplelog.New(),
		createdAt:  time.Now(),
		view:       view,
		published:  view.Clone(),
		commands:   make(chan request, queueSize),
		done:       make(chan struct{}),
	}

	metrics.SessionOpened()
	slog.Info("Session started", "session", id, "workspace", workspace)

	go s.run()
	return s, nil
}

func (s *Session) ID() string        { return s.id }
func (s *Session) Workspace() string { return s.workspace }

// View returns a copy of the view as of the last completed command
func (s *Session) View() *models.ViewState {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.published.Clone()
}

func (s *Session) Summary() Summary {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return Summary{
		ID:          s.id,
		DisplayMode: s.published.DisplayMode,
		ImageFile:   s.published.ImageFile,
		Commands:    s.processed,
		Samples:     s.samples.Len(),
		CreatedAt:   s.createdAt,
	}
}

// Samples returns the pick measurements taken so far
func (s *Session) Samples() []samplelog.Sample {
	return s.samples.Samples()
}

// Submit queues a command; replies go to the session's Responder
func (s *Session) Submit(line string) error {
	return s.enqueue(request{line: line})
}

// Do queues a command and waits for it to finish, returning the replies it
// produced. Replies are also sent to the Responder.
func (s *Session) Do(ctx context.Context, line string) ([]string, error) {
	req := request{line: line, reply: make(chan []string, 1)}
	if err := s.enqueue(req); err != nil {
		return nil, err
	}
	select {
	case msgs := <-req.reply:
		return msgs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) enqueue(req request) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.commands <- req
	return nil
}

// Close stops accepting commands, lets queued ones finish, then removes the
// workspace and writes the sample archive. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.sendMu.Lock()
		s.closed = true
		close(s.commands)
		s.sendMu.Unlock()

		<-s.done

		var errs []error
		if s.archiveDir != "" {
			path := filepath.Join(s.archiveDir, s.id+".parquet")
			wrote, err := s.samples.WriteParquet(path)
			if err != nil {
				errs = append(errs, err)
			} else if wrote {
				slog.Info("Archived pick samples", "session", s.id, "path", path, "rows", s.samples.Len())
			}
		}
		if err := os.RemoveAll(s.workspace); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove workspace: %w", err))
		}
		s.closeErr = errors.Join(errs...)

		metrics.SessionClosed()
		slog.Info("Session closed", "session", s.id, "commands", s.processed)

		if s.onClose != nil {
			s.onClose(s.id)
		}
	})
	return s.closeErr
}

// Done is closed once the session goroutine has exited
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) run() {
	defer close(s.done)
	for req := range s.commands {
		s.process(req)
	}
}

func (s *Session) process(req request) {
	start := time.Now()
	var replies []string
	emit := func(msg string) {
		replies = append(replies, msg)
		s.respond(msg)
	}

	name, outcome := s.execute(req.line, emit)
	metrics.ObserveCommand(name, outcome, time.Since(start))

	s.viewMu.Lock()
	s.published = s.view.Clone()
	s.processed++
	s.viewMu.Unlock()

	if req.reply != nil {
		req.reply <- replies
	}
}

// execute runs one command and reports its name and outcome label
func (s *Session) execute(line string, emit func(string)) (string, string) {
	cmd, err := Parse(line)
	if err != nil {
		emit("ERROR: " + err.Error())
		return "invalid", metrics.OutcomeError
	}

	h, err := lookup(cmd)
	if err != nil {
		emit("ERROR: " + err.Error())
		return "invalid", metrics.OutcomeError
	}

	slog.Debug("Processing command", "session", s.id, "command", cmd.Name, "args", cmd.Args)

	err = h.run(s, context.Background(), cmd, emit)

	var reported *montage.ReportedError
	switch {
	case err == nil:
		return cmd.Name, metrics.OutcomeOK
	case errors.Is(err, ErrNoChannelConfigured):
		emit(NoImagesMessage)
		return cmd.Name, metrics.OutcomeInfo
	case errors.As(err, &reported):
		emit(reported.Error())
		if reported.Warning {
			return cmd.Name, metrics.OutcomeWarning
		}
		return cmd.Name, metrics.OutcomeError
	default:
		slog.Warn("Command failed", "session", s.id, "command", cmd.Name, "err", err)
		emit("ERROR: " + err.Error())
		return cmd.Name, metrics.OutcomeError
	}
}

func (s *Session) path(name string) string {
	return filepath.Join(s.workspace, name)
}

// ArtifactPath resolves a file name inside the workspace. Only plain names
// are accepted.
func (s *Session) ArtifactPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	return s.path(name), nil
}
