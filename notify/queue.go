package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MrEthical07/natours"
	"github.com/MrEthical07/natours/account"
	"github.com/hibiken/asynq"
)

const (
	// TaskWelcome is the asynq task type of the welcome mail.
	TaskWelcome = "email:welcome"
	// MailQueue is the asynq queue mail tasks run on.
	MailQueue = "mail"
)

type welcomePayload struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
}

// NewWelcomeTask builds the task for a.
func NewWelcomeTask(a account.Account) (*asynq.Task, error) {
	body, err := json.Marshal(welcomePayload{AccountID: a.ID, Email: a.Email, Name: a.Name})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWelcome, body, asynq.Queue(MailQueue), asynq.MaxRetry(3)), nil
}

// WelcomeQueue implements natours.WelcomeSender by enqueueing a task.
type WelcomeQueue struct {
	client *asynq.Client
}

// NewWelcomeQueue connects to the queue Redis at redisURL.
func NewWelcomeQueue(redisURL string) (*WelcomeQueue, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse queue redis url: %w", err)
	}
	return &WelcomeQueue{client: asynq.NewClient(opt)}, nil
}

// EnqueueWelcome queues the welcome mail for a.
func (q *WelcomeQueue) EnqueueWelcome(ctx context.Context, a account.Account) error {
	task, err := NewWelcomeTask(a)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue welcome: %w", err)
	}
	return nil
}

// Close releases the queue client.
func (q *WelcomeQueue) Close() error {
	return q.client.Close()
}

// WelcomeMessage renders the welcome mail for name at email.
func WelcomeMessage(email, name, baseURL string) natours.Message {
	first := strings.TrimSpace(name)
	if i := strings.IndexByte(first, ' '); i > 0 {
		first = first[:i]
	}
	text := fmt.Sprintf("Hi %s,\n\nWelcome to Natours, we're glad to have you.\n", first)
	if baseURL != "" {
		text += fmt.Sprintf("\nUpload a profile photo at %s/me to get started.\n", strings.TrimRight(baseURL, "/"))
	}
	return natours.Message{To: email, Subject: "Welcome to the Natours Family!", Text: text}
}

// Worker consumes mail tasks.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	notifier natours.Notifier
	baseURL  string
	logger   *slog.Logger
}

// NewWorker builds a worker that delivers queued mail through notifier.
func NewWorker(redisURL string, notifier natours.Notifier, baseURL string, logger *slog.Logger) (*Worker, error) {
	if notifier == nil {
		return nil, errors.New("notifier is nil")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse queue redis url: %w", err)
	}
	w := newWorker(notifier, baseURL, logger)
	w.server = asynq.NewServer(opt, asynq.Config{
		Concurrency: 2,
		Queues:      map[string]int{MailQueue: 1},
	})
	return w, nil
}

func newWorker(notifier natours.Notifier, baseURL string, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		mux:      asynq.NewServeMux(),
		notifier: notifier,
		baseURL:  baseURL,
		logger:   logger,
	}
	w.mux.HandleFunc(TaskWelcome, w.handleWelcome)
	return w
}

// Start runs the worker in the background.
func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

// Shutdown waits for in-flight tasks and stops the worker.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleWelcome(ctx context.Context, task *asynq.Task) error {
	var p welcomePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode welcome payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.Email == "" {
		return fmt.Errorf("welcome payload without email: %w", asynq.SkipRetry)
	}
	if err := w.notifier.Send(ctx, WelcomeMessage(p.Email, p.Name, w.baseURL)); err != nil {
		w.logger.WarnContext(ctx, "welcome mail failed", slog.String("account_id", p.AccountID), slog.Any("error", err))
		return err
	}
	return nil
}

var _ natours.WelcomeSender = (*WelcomeQueue)(nil)
