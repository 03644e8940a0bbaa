// Package delivery owns the bot's running/stopped lifecycle and chooses how
// updates reach the router: a registered webhook (push) or long-polling (pull).
//
// In push mode a reconciliation job compares the webhook URL Telegram reports
// against the configured one every interval and re-registers on drift.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kukucorn/ai-running-coach/internal/scheduler"
)

type Mode string

const (
	ModePush Mode = "push"
	ModePull Mode = "pull"
)

type State int

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// AllowedUpdates restricts delivery to the update kinds the router handles.
var AllowedUpdates = []string{tgbotapi.UpdateTypeMessage, tgbotapi.UpdateTypeCallbackQuery}

// Platform is the part of *tgbotapi.BotAPI used to manage delivery.
type Platform interface {
	GetMe() (tgbotapi.User, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetWebhookInfo() (tgbotapi.WebhookInfo, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// UpdateHandler consumes delivered updates.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u tgbotapi.Update) error
}

type Options struct {
	Mode              Mode
	WebhookURL        string
	ReconcileInterval time.Duration
	PollTimeout       int
	// OnShutdown runs last in Stop, after delivery has been torn down.
	OnShutdown func()
}

type Manager struct {
	platform Platform
	handler  UpdateHandler
	opts     Options

	// lifeMu serializes Start/Stop; mu guards the fields read by accessors
	// and by the reconciliation job.
	lifeMu        sync.Mutex
	mu            sync.Mutex
	state         State
	registeredURL string

	sched      *scheduler.Scheduler
	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

func New(platform Platform, handler UpdateHandler, opts Options) *Manager {
	if opts.ReconcileInterval <= 0 {
		opts.ReconcileInterval = 60 * time.Second
	}
	return &Manager{platform: platform, handler: handler, opts: opts}
}

func (m *Manager) Mode() Mode { return m.opts.Mode }

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RegisteredURL is the webhook URL last registered by this process.
func (m *Manager) RegisteredURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registeredURL
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) setRegistered(url string) {
	m.mu.Lock()
	m.registeredURL = url
	m.mu.Unlock()
}

// Start initializes the client and begins delivery in the configured mode.
func (m *Manager) Start(ctx context.Context) error {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	if st := m.State(); st != Stopped {
		return fmt.Errorf("delivery already %s", st)
	}
	m.setState(Starting)

	if err := m.start(ctx); err != nil {
		m.setState(Stopped)
		return err
	}
	m.setState(Running)
	log.Printf("🚀 Delivery running in %s mode", m.opts.Mode)
	return nil
}

func (m *Manager) start(ctx context.Context) error {
	me, err := m.platform.GetMe()
	if err != nil {
		return fmt.Errorf("init telegram client: %w", err)
	}
	log.Printf("Authorized on account @%s", me.UserName)
	if err := ctx.Err(); err != nil {
		return err
	}

	switch m.opts.Mode {
	case ModePush:
		if m.opts.WebhookURL == "" {
			return errors.New("push mode requires a webhook URL")
		}
		if err := m.register(m.opts.WebhookURL); err != nil {
			return err
		}
		m.setRegistered(m.opts.WebhookURL)
		log.Printf("Webhook registered at %s", redact(m.opts.WebhookURL))

		m.sched = scheduler.New()
		m.sched.Every("webhook-reconcile", m.opts.ReconcileInterval, m.Reconcile)
		m.sched.Start()
		return nil
	case ModePull:
		// getUpdates is refused while a webhook is set
		if _, err := m.platform.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			return fmt.Errorf("delete webhook before polling: %w", err)
		}
		u := tgbotapi.NewUpdate(0)
		u.Timeout = m.opts.PollTimeout
		u.AllowedUpdates = AllowedUpdates
		updates := m.platform.GetUpdatesChan(u)

		pollCtx, cancel := context.WithCancel(context.Background())
		m.pollCancel = cancel
		m.pollDone = make(chan struct{})
		go m.consume(pollCtx, updates, m.pollDone)
		return nil
	default:
		return fmt.Errorf("unknown delivery mode %q", m.opts.Mode)
	}
}

func (m *Manager) consume(ctx context.Context, updates tgbotapi.UpdatesChannel, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := Dispatch(ctx, m.handler, u); err != nil {
				log.Printf("failed to handle polled update %d: %v", u.UpdateID, err)
			}
		}
	}
}

// ErrHandlerPanic marks an error recovered from a panicking handler.
var ErrHandlerPanic = errors.New("update handler panicked")

// Dispatch hands u to h, converting a handler panic into an error wrapping
// ErrHandlerPanic.
func Dispatch(ctx context.Context, h UpdateHandler, u tgbotapi.Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: update %d: %v", ErrHandlerPanic, u.UpdateID, r)
		}
	}()
	return h.HandleUpdate(ctx, u)
}

// Reconcile runs one drift check. It re-registers the webhook when Telegram
// reports a different URL and does nothing when they match or in pull mode.
func (m *Manager) Reconcile(ctx context.Context) error {
	if m.opts.Mode != ModePush || ctx.Err() != nil {
		return nil
	}
	info, err := m.platform.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("get webhook info: %w", err)
	}
	if info.URL == m.opts.WebhookURL {
		return nil
	}
	log.Printf("⚠️ Webhook drift: telegram reports %q, re-registering %s", redact(info.URL), redact(m.opts.WebhookURL))
	if err := m.register(m.opts.WebhookURL); err != nil {
		return err
	}
	m.setRegistered(m.opts.WebhookURL)
	log.Printf("✅ Webhook corrected")
	return nil
}

func (m *Manager) register(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	wh.AllowedUpdates = AllowedUpdates
	if _, err := m.platform.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// Stop tears delivery down and blocks until background work has exited.
// ctx bounds only the wait for the poll consumer.
func (m *Manager) Stop(ctx context.Context) error {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	if m.State() != Running {
		return nil
	}
	m.setState(Stopping)

	var stopErr error
	switch m.opts.Mode {
	case ModePush:
		m.sched.Stop()
		if _, err := m.platform.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			log.Printf("failed to delete webhook: %v", err)
			stopErr = fmt.Errorf("delete webhook: %w", err)
		}
		m.setRegistered("")
	case ModePull:
		m.platform.StopReceivingUpdates()
		m.pollCancel()
		select {
		case <-m.pollDone:
		case <-ctx.Done():
			log.Printf("gave up waiting for the poll loop: %v", ctx.Err())
		}
	}

	if m.opts.OnShutdown != nil {
		m.opts.OnShutdown()
	}
	m.setState(Stopped)
	log.Printf("Delivery stopped")
	return stopErr
}

// redact hides the last path segment, which carries the bot token.
func redact(url string) string {
	i := strings.LastIndexByte(url, '/')
	if i < 0 || i == len(url)-1 {
		return url
	}
	return url[:i+1] + "***"
}
