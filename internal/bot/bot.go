package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/baiserke/promobot/internal/config"
	"github.com/baiserke/promobot/internal/model"
	"github.com/baiserke/promobot/internal/service"
)

// Allocator hands out promo codes for verified usernames.
type Allocator interface {
	Allocate(ctx context.Context, username string) (service.AllocationResult, error)
}

// Exporter is the ledger surface the export flow needs.
type Exporter interface {
	AllCodes(ctx context.Context) ([]model.PromoCode, error)
}

// Gateway connects Telegram chats to the allocation and export flows.
type Gateway struct {
	api            *tgbotapi.BotAPI
	allocator      Allocator
	exporter       Exporter
	sessions       *sessions
	exportPassword string
	pollTimeout    int
}

// New creates the gateway and authenticates the bot.
func New(cfg config.TelegramConfig, allocator Allocator, exporter Exporter) (*Gateway, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}
	api.Debug = cfg.Debug

	return &Gateway{
		api:            api,
		allocator:      allocator,
		exporter:       exporter,
		sessions:       newSessions(),
		exportPassword: cfg.ExportPassword,
		pollTimeout:    cfg.PollTimeout,
	}, nil
}

// Run polls for updates until ctx is cancelled. One message is handled to
// completion before the next is read, so allocations are serialized.
func (g *Gateway) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = g.pollTimeout
	updates := g.api.GetUpdatesChan(u)

	log.Printf("Bot @%s is polling for updates", g.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			g.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			g.handleMessage(ctx, update.Message)
		}
	}
}

func (g *Gateway) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch {
	case msg.IsCommand() && msg.Command() == "start":
		g.sessions.reset(chatID)
		g.send(chatID, startMessage)
		g.send(chatID, askUsernameMessage)
	case msg.IsCommand() && msg.Command() == "export":
		g.sessions.armPassword(chatID)
		g.send(chatID, askPasswordMessage)
	case g.sessions.consumePassword(chatID):
		g.handlePasswordReply(ctx, chatID, text)
	case msg.IsCommand():
		// Unknown commands are ignored.
	default:
		g.handleUsername(ctx, chatID, text)
	}
}

// handlePasswordReply is the single place the export secret is compared.
// The attempt was already consumed, so a mismatch means asking /export again.
func (g *Gateway) handlePasswordReply(ctx context.Context, chatID int64, text string) {
	if text != g.exportPassword {
		g.send(chatID, wrongPasswordMessage)
		return
	}

	rows, err := g.exporter.AllCodes(ctx)
	if err != nil {
		log.Printf("Failed to load ledger for export: %v", err)
		g.send(chatID, exportFailedMessage)
		return
	}

	data, err := renderLedgerCSV(rows)
	if err != nil {
		log.Printf("Failed to render ledger export: %v", err)
		g.send(chatID, exportFailedMessage)
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  exportFileName,
		Bytes: data,
	})
	if _, err := g.api.Send(doc); err != nil {
		log.Printf("Failed to send export document: %v", err)
	}
}

func (g *Gateway) handleUsername(ctx context.Context, chatID int64, text string) {
	username := service.NormalizeUsername(text)
	if username == "" {
		g.send(chatID, askUsernameMessage)
		return
	}

	g.send(chatID, fmt.Sprintf(checkingMessageFmt, username))

	result, err := g.allocator.Allocate(ctx, username)
	if err != nil {
		log.Printf("Allocation for %q failed: %v", username, err)
		g.send(chatID, serviceErrorMessage)
		return
	}

	switch result.Status {
	case service.StatusAlreadyAssigned:
		g.send(chatID, fmt.Sprintf(alreadyAssignedMessageFmt, result.Code))
	case service.StatusNotQualified:
		g.send(chatID, failMessage)
	case service.StatusExhausted:
		g.send(chatID, exhaustedMessage)
	case service.StatusGranted:
		reply := tgbotapi.NewMessage(chatID, fmt.Sprintf(successMessageFmt, result.Code))
		reply.ParseMode = tgbotapi.ModeMarkdown
		if _, err := g.api.Send(reply); err != nil {
			log.Printf("Error sending message: %v", err)
		}
	}
}

func (g *Gateway) send(chatID int64, text string) {
	if _, err := g.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}
