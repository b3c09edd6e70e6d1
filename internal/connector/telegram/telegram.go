// Package telegram wraps the query surface in a Telegram bot. Each
// chat gets its own conversation session, so follow-up questions keep
// their context.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/coursemind-io/coursemind/internal/rag"
)

// Config holds Telegram connector configuration.
type Config struct {
	Token     string  // bot token from @BotFather
	AllowFrom []int64 // allowed Telegram user IDs (empty = allow all)
}

// Connector long-polls Telegram and answers each message through the
// query orchestrator.
type Connector struct {
	bot    *tgbotapi.BotAPI
	config Config
	rag    *rag.System
	logger *slog.Logger
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[int64]string // chat ID -> session ID
}

// New creates a new Telegram connector.
func New(cfg Config, system *rag.System, logger *slog.Logger) (*Connector, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("telegram bot authorized", "username", bot.Self.UserName)

	return &Connector{
		bot:      bot,
		config:   cfg,
		rag:      system,
		logger:   logger,
		sessions: make(map[int64]string),
	}, nil
}

func (c *Connector) Name() string { return "telegram" }

// Start begins long-polling for updates. Blocks until the context is
// cancelled.
func (c *Connector) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := c.bot.GetUpdatesChan(u)

	c.logger.Info("telegram connector started", "bot", c.bot.Self.UserName)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			c.handleMessage(ctx, update.Message)

		case <-ctx.Done():
			c.bot.StopReceivingUpdates()
			c.logger.Info("telegram connector stopped")
			return ctx.Err()
		}
	}
}

// Stop gracefully shuts down the connector.
func (c *Connector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *Connector) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !c.allowed(msg.From) {
		c.logger.Warn("message from disallowed user", "user", msg.From.ID)
		return
	}

	chatID := msg.Chat.ID
	if msg.Text == "/start" || msg.Text == "/new" {
		c.mu.Lock()
		delete(c.sessions, chatID)
		c.mu.Unlock()
		c.reply(chatID, "Hi! Ask me anything about the course materials.")
		return
	}

	c.mu.Lock()
	sessionID := c.sessions[chatID]
	c.mu.Unlock()

	result, err := c.rag.Query(ctx, msg.Text, sessionID)
	if err != nil {
		c.logger.Error("telegram query failed", "chat", chatID, "error", err)
		c.reply(chatID, "Sorry, something went wrong answering that.")
		return
	}

	c.mu.Lock()
	c.sessions[chatID] = result.SessionID
	c.mu.Unlock()

	c.reply(chatID, formatAnswer(result))
}

func (c *Connector) allowed(from *tgbotapi.User) bool {
	if len(c.config.AllowFrom) == 0 {
		return true
	}
	if from == nil {
		return false
	}
	for _, id := range c.config.AllowFrom {
		if id == from.ID {
			return true
		}
	}
	return false
}

func (c *Connector) reply(chatID int64, text string) {
	if strings.TrimSpace(text) == "" {
		text = "I could not find an answer to that."
	}
	tgMsg := tgbotapi.NewMessage(chatID, text)
	tgMsg.ParseMode = tgbotapi.ModeMarkdown
	tgMsg.DisableWebPagePreview = true
	if _, err := c.bot.Send(tgMsg); err != nil {
		// Markdown in answers can trip Telegram's parser; retry plain.
		tgMsg.ParseMode = ""
		if _, err := c.bot.Send(tgMsg); err != nil {
			c.logger.Error("telegram send failed", "chat", chatID, "error", err)
		}
	}
}

// formatAnswer appends the source list to the answer text.
func formatAnswer(result *rag.Result) string {
	if len(result.Sources) == 0 {
		return result.Answer
	}
	var b strings.Builder
	b.WriteString(result.Answer)
	b.WriteString("\n\nSources:\n")
	for _, s := range result.Sources {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	return strings.TrimRight(b.String(), "\n")
}
