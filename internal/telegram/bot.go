// Package telegram adapts the lookup service to the Telegram Bot API using
// long polling.
package telegram

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/dan1650/plates-bot/internal/lookup"
	"github.com/dan1650/plates-bot/internal/observability"
	"github.com/dan1650/plates-bot/internal/render"
	"github.com/dan1650/plates-bot/internal/workerpool"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Config holds dispatcher settings.
type Config struct {
	PollTimeout int           // seconds
	JobTimeout  time.Duration // per lookup; 0 disables
}

// Bot reads updates on one goroutine and hands storage work to a pool.
type Bot struct {
	api    API
	svc    *lookup.Service
	pool   *workerpool.Pool
	logger *observability.Logger
	cfg    Config
	now    func() time.Time
}

// New creates a bot.
func New(api API, svc *lookup.Service, pool *workerpool.Pool, logger *observability.Logger, cfg Config) *Bot {
	if logger == nil {
		logger = observability.Nop()
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 60
	}
	return &Bot{
		api:    api,
		svc:    svc,
		pool:   pool,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Run dispatches updates until ctx is cancelled or the update channel closes,
// then waits for in-flight jobs to reply.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.PollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().Int("workers", b.pool.Size()).Msg("Bot is polling for updates")

	defer b.pool.Wait()
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.Dispatch(ctx, update)
		}
	}
}

// Dispatch routes a single update. Rate limiting and classification run on
// the caller's goroutine; lookups and selections are queued on the pool and
// Dispatch does not wait for them.
func (b *Bot) Dispatch(ctx context.Context, update tgbotapi.Update) {
	ctx = observability.ContextWithTraceID(ctx, uuid.NewString())

	switch {
	case update.CallbackQuery != nil:
		b.onCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.onMessage(ctx, update.Message)
	}
}

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID
	log := b.logger.WithContext(ctx).WithUser(userID)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			log.Info().Str("user", displayName(msg.From)).Int64("chat_id", chatID).Msg("/start")
			b.replyHTML(ctx, chatID, render.WelcomeText, MainKeyboard())
		case "help":
			log.Info().Str("user", displayName(msg.From)).Int64("chat_id", chatID).Msg("/help")
			b.replyHTML(ctx, chatID, render.HelpText, MainKeyboard())
		}
		return
	}

	switch msg.Text {
	case ButtonHelp:
		log.Info().Str("user", displayName(msg.From)).Str("text", msg.Text).Msg("Text button")
		b.replyHTML(ctx, chatID, render.HelpText, MainKeyboard())
		return
	case ButtonExamples:
		log.Info().Str("user", displayName(msg.From)).Str("text", msg.Text).Msg("Text button")
		b.replyHTML(ctx, chatID, render.ExamplesText, MainKeyboard())
		return
	}

	if !b.svc.Admit(userID, b.now()) {
		log.Debug().Msg("Rate limited, dropping message")
		return
	}

	text := strings.TrimSpace(msg.Text)
	log.Info().
		Str("user", displayName(msg.From)).
		Int64("chat_id", chatID).
		Str("text", text).
		Msg("Text received")

	intent := b.svc.Classify(text)
	if intent.Kind == lookup.IntentUnrecognized {
		b.replyHTML(ctx, chatID, render.UnrecognizedText, MainKeyboard())
		return
	}

	b.sendTyping(chatID)

	jobCtx, cancel := b.jobContext(ctx)
	err := b.pool.Submit(jobCtx, func(ctx context.Context) {
		defer cancel()
		out, err := b.svc.Lookup(ctx, userID, intent)
		if err != nil {
			b.replyHTML(ctx, chatID, render.DatabaseError(err), nil)
			return
		}
		b.present(ctx, chatID, out)
	})
	if err != nil {
		cancel()
		log.Warn().Err(err).Msg("Lookup not scheduled")
	}
}

// jobContext derives the context of a pool job. Jobs outlive the dispatcher's
// cancellation so that in-flight lookups still answer during shutdown; only
// JobTimeout bounds them.
func (b *Bot) jobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if b.cfg.JobTimeout > 0 {
		return context.WithTimeout(ctx, b.cfg.JobTimeout)
	}
	return context.WithCancel(ctx)
}

func (b *Bot) present(ctx context.Context, chatID int64, out *lookup.Outcome) {
	label := out.Intent.Label()
	switch out.Kind {
	case lookup.OutcomeNoMatch:
		b.replyHTML(ctx, chatID, render.NoMatch(label), MainKeyboard())
	case lookup.OutcomeSingle:
		rec := out.Records[0]
		b.replyHTML(ctx, chatID, render.Card(rec), ResultKeyboard(rec.Plate()))
	case lookup.OutcomeMultiple:
		b.replyHTML(ctx, chatID, render.ChooserHeader(len(out.Records), label), ChooserKeyboard(out.Choices))
	case lookup.OutcomeUnrecognized:
		b.replyHTML(ctx, chatID, render.UnrecognizedText, MainKeyboard())
	}
}

func (b *Bot) onCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.logger.WithContext(ctx).Debug().Err(err).Msg("Failed to answer callback")
	}
	if q.Message == nil || q.Message.Chat == nil || q.From == nil {
		return
	}
	chatID := q.Message.Chat.ID
	userID := q.From.ID

	prefix, arg, ok := parseCallback(q.Data)
	if !ok {
		return
	}

	switch prefix {
	case CopyPrefix:
		b.send(ctx, tgbotapi.NewMessage(chatID, arg))

	case ShowPrefix:
		jobCtx, cancel := b.jobContext(ctx)
		err := b.pool.Submit(jobCtx, func(ctx context.Context) {
			defer cancel()
			rec, err := b.svc.Select(ctx, userID, arg)
			if err != nil {
				b.replyHTML(ctx, chatID, render.SelectionExpiredText, nil)
				return
			}
			b.replyHTML(ctx, chatID, render.Card(rec), ResultKeyboard(rec.Plate()))
		})
		if err != nil {
			cancel()
			b.logger.WithContext(ctx).WithUser(userID).Warn().Err(err).Msg("Selection not scheduled")
		}
	}
}

func (b *Bot) replyHTML(ctx context.Context, chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	b.send(ctx, msg)
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.WithContext(ctx).Error().Err(err).Msg("Failed to send reply")
	}
}

// sendTyping shows the typing indicator. Failures are ignored.
func (b *Bot) sendTyping(chatID int64) {
	_, _ = b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
