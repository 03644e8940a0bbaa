package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kukucorn/ai-running-coach/internal/duration"
	"github.com/kukucorn/ai-running-coach/internal/llm"
	"github.com/kukucorn/ai-running-coach/internal/storage"
)

// Responder generates coach replies. Implementations never fail; errors are
// folded into the returned text.
type Responder interface {
	Generate(ctx context.Context, userMessage string, history []llm.Message) string
	Analyze(ctx context.Context, distanceKm float64, d, pace time.Duration) string
}

// Outcome is the terminal state of one dispatched update.
type Outcome int

const (
	Handled Outcome = iota
	Rejected
)

func (o Outcome) String() string {
	if o == Handled {
		return "handled"
	}
	return "rejected"
}

// InboundUpdate is the normalized form of a text message update.
type InboundUpdate struct {
	UpdateID    int
	ChatID      int64
	UserID      int64
	Username    string
	DisplayName string
	Text        string
}

// Router maps inbound text to a handler and sends exactly one reply per
// update, except for commands addressed to another bot, which get none.
type Router struct {
	s        Sender
	coach    Responder
	store    storage.Store
	username string
	now      func() time.Time
}

// NewRouter builds a router. username is the bot's own handle, used to skip
// "/cmd@otherbot" messages in group chats.
func NewRouter(s Sender, coach Responder, store storage.Store, username string) *Router {
	return &Router{s: s, coach: coach, store: store, username: username, now: time.Now}
}

// Normalize extracts an InboundUpdate from a text message. ok is false for
// anything else (callback queries, media, service messages).
func Normalize(u tgbotapi.Update) (InboundUpdate, bool) {
	msg := u.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return InboundUpdate{}, false
	}
	in := InboundUpdate{UpdateID: u.UpdateID, ChatID: msg.Chat.ID, UserID: msg.Chat.ID, Text: msg.Text}
	if from := msg.From; from != nil {
		in.UserID = from.ID
		in.Username = from.UserName
		in.DisplayName = from.FirstName
	}
	if in.DisplayName == "" {
		in.DisplayName = in.Username
	}
	if in.DisplayName == "" {
		in.DisplayName = strconv.FormatInt(in.UserID, 10)
	}
	return in, true
}

// HandleUpdate normalizes u and dispatches it. The returned error is only
// ever a failure to deliver the reply.
func (r *Router) HandleUpdate(ctx context.Context, u tgbotapi.Update) error {
	if cq := u.CallbackQuery; cq != nil {
		if _, err := r.s.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			log.Printf("failed to answer callback query %s: %v", cq.ID, err)
		}
		return nil
	}
	in, ok := Normalize(u)
	if !ok {
		log.Printf("Ignoring update %d without text message", u.UpdateID)
		return nil
	}
	outcome, err := r.Dispatch(ctx, in)
	log.Printf("Update %d from %d (@%s) %s", in.UpdateID, in.UserID, in.Username, outcome)
	return err
}

// Dispatch runs the handler selected by the message text.
func (r *Router) Dispatch(ctx context.Context, in InboundUpdate) (Outcome, error) {
	cmd, err := ParseCommand(in.Text, r.username)
	if err != nil {
		return Rejected, r.reply(in.ChatID, rejectionText(err))
	}

	switch c := cmd.(type) {
	case StartCommand:
		return Handled, r.handleStart(ctx, in)
	case HelpCommand:
		return Handled, r.reply(in.ChatID, helpText)
	case RecordCommand:
		return r.handleRecord(ctx, in, c)
	case FreeTextCommand:
		return Handled, r.handleFreeText(ctx, in, c)
	case UnknownCommand:
		log.Printf("Unknown command /%s from %d", c.Name, in.UserID)
		return Rejected, r.reply(in.ChatID, unknownCommandText)
	case ForeignCommand:
		log.Printf("Skipping /%s addressed to @%s", c.Name, c.Bot)
		return Rejected, nil
	default:
		return Rejected, fmt.Errorf("unhandled command type %T", cmd)
	}
}

func rejectionText(err error) string {
	switch {
	case errors.Is(err, ErrRecordUsage):
		return recordUsageText
	case errors.Is(err, duration.ErrZeroDistance):
		return zeroDistanceText
	default:
		return recordFormatText
	}
}

func (r *Router) handleStart(ctx context.Context, in InboundUpdate) error {
	sendErr := r.reply(in.ChatID, welcomeText(in.DisplayName))

	u := storage.User{ID: in.UserID, Username: in.Username, DisplayName: in.DisplayName, UpdatedAt: r.now().UTC()}
	if err := r.store.UpsertUser(ctx, u); err != nil {
		log.Printf("failed to save user %d: %v", in.UserID, err)
	}
	return sendErr
}

func (r *Router) handleRecord(ctx context.Context, in InboundUpdate, c RecordCommand) (Outcome, error) {
	d := c.Duration.Std()
	pace, err := duration.Pace(d, c.DistanceKm)
	if err != nil {
		return Rejected, r.reply(in.ChatID, rejectionText(err))
	}

	w := storage.Workout{
		UserID:     in.UserID,
		DistanceKm: c.DistanceKm,
		Duration:   d,
		PacePerKm:  pace,
		RecordedAt: r.now().UTC(),
	}
	if err := r.store.InsertWorkout(ctx, w); err != nil {
		log.Printf("failed to save workout for %d: %v", in.UserID, err)
		return Rejected, r.reply(in.ChatID, persistErrorText)
	}

	feedback := r.coach.Analyze(ctx, c.DistanceKm, d, pace)
	return Handled, r.reply(in.ChatID, recordSavedPrefix+feedback)
}

func (r *Router) handleFreeText(ctx context.Context, in InboundUpdate, c FreeTextCommand) error {
	// conversation history is not fetched; the prompt carries only this message
	resp := r.coach.Generate(ctx, c.Body, nil)

	conv := storage.Conversation{UserID: in.UserID, UserMessage: c.Body, BotResponse: resp, CreatedAt: r.now().UTC()}
	if err := r.store.InsertConversation(ctx, conv); err != nil {
		log.Printf("failed to save conversation for %d: %v", in.UserID, err)
	}
	return r.reply(in.ChatID, resp)
}

func (r *Router) reply(chatID int64, text string) error {
	if _, err := r.s.Send(tgbotapi.NewMessage(chatID, clip(text))); err != nil {
		log.Printf("failed to send message to %d: %v", chatID, err)
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
