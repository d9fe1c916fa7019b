package emit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/livebet/internal/pkg/models"
)

// Min interval between any two Telegram messages to the same chat to avoid
// 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

// TelegramEmitter sends signals to a Telegram chat. Signals go through a
// buffered queue drained by one background sender that enforces the send
// interval; Emit never blocks the scanner loop.
type TelegramEmitter struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	mu       sync.Mutex
	lastSend time.Time

	queue     chan *models.Signal
	queueDone chan struct{}
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewTelegramEmitter(token string, chatID int64) (*TelegramEmitter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		return nil, fmt.Errorf("telegram bot self-check: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	emitter := &TelegramEmitter{
		bot:       bot,
		chatID:    chatID,
		queue:     make(chan *models.Signal, 100),
		queueDone: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	emitter.wg.Add(1)
	go emitter.sender()

	slog.Info("Telegram emitter initialized", "chat_id", chatID)
	return emitter, nil
}

func (e *TelegramEmitter) Emit(ctx context.Context, signal *models.Signal) error {
	select {
	case <-e.ctx.Done():
		return fmt.Errorf("telegram emitter stopped")
	case <-ctx.Done():
		return ctx.Err()
	case e.queue <- signal:
		return nil
	default:
		slog.Warn("Telegram queue is full, dropping signal", "match", signal.MatchName)
		return fmt.Errorf("telegram queue is full")
	}
}

// Close stops the emitter after draining queued messages.
func (e *TelegramEmitter) Close() {
	e.cancel()
	<-e.queueDone
	e.wg.Wait()
}

func (e *TelegramEmitter) sender() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			// Drain remaining messages before exit
			for {
				select {
				case signal := <-e.queue:
					e.send(signal)
				default:
					close(e.queueDone)
					return
				}
			}
		case signal := <-e.queue:
			e.send(signal)
		}
	}
}

func (e *TelegramEmitter) send(signal *models.Signal) {
	msg := tgbotapi.NewMessage(e.chatID, e.formatSignal(signal))
	msg.ParseMode = tgbotapi.ModeMarkdown

	e.mu.Lock()
	if elapsed := time.Since(e.lastSend); elapsed < telegramSendInterval {
		wait := telegramSendInterval - elapsed
		e.mu.Unlock()
		select {
		case <-e.ctx.Done():
			slog.Warn("Telegram send: cancelled during rate-limit wait", "match", signal.MatchName)
			return
		case <-time.After(wait):
		}
		e.mu.Lock()
	}
	e.lastSend = time.Now()
	_, err := e.bot.Send(msg)
	e.mu.Unlock()

	if err != nil {
		slog.Error("Telegram send failed", "match", signal.MatchName, "error", err)
		return
	}
	delay := time.Since(signal.CreatedAt)
	slog.Info("Telegram send: success",
		"match", signal.MatchName,
		"delay_since_detection_sec", delay.Seconds(),
		"queue_length", len(e.queue))
}

func (e *TelegramEmitter) formatSignal(s *models.Signal) string {
	var b strings.Builder

	b.WriteString("🎯 *Live Signal*\n\n")
	b.WriteString(fmt.Sprintf("*%s*\n", escapeMarkdown(s.MatchName)))
	b.WriteString(fmt.Sprintf("_%s_\n\n", escapeMarkdown(s.Reason)))

	b.WriteString(fmt.Sprintf("📌 Main: %s (%s) @ *%.2f* — stake %.0f\n",
		escapeMarkdown(s.MainMarket), s.MainSide, s.MainOdds, s.MainStake))
	if s.HasHedge() {
		b.WriteString(fmt.Sprintf("🛡 Hedge: %s (%s) @ *%.2f* — stake %.0f\n",
			escapeMarkdown(*s.HedgeMarket), *s.HedgeSide, *s.HedgeOdds, *s.HedgeStake))
	}

	b.WriteString("\n💰 P&L:\n")
	b.WriteString(fmt.Sprintf("  A (main wins): %+.2f\n", s.PnL.A))
	b.WriteString(fmt.Sprintf("  B (hedge wins): %+.2f\n", s.PnL.B))
	if s.PnL.C != nil {
		note := ""
		if !s.PnL.CApplicable {
			note = " (not applicable)"
		}
		b.WriteString(fmt.Sprintf("  C (both win): %+.2f%s\n", *s.PnL.C, note))
	}
	b.WriteString(fmt.Sprintf("  D (both lose): %+.2f\n", s.PnL.D))

	snap := s.SourceSnapshot
	b.WriteString(fmt.Sprintf("\n🏓 Set: %d:%d", snap.CurrentSet.P1, snap.CurrentSet.P2))
	if len(snap.Sets) > 0 {
		var sets []string
		for _, set := range snap.Sets {
			sets = append(sets, fmt.Sprintf("%d:%d", set.P1, set.P2))
		}
		b.WriteString(fmt.Sprintf(" (sets: %s)", strings.Join(sets, ", ")))
	}
	b.WriteString(fmt.Sprintf("\n🕐 %s\n", s.CreatedAt.Format("2006-01-02 15:04:05 UTC")))

	return b.String()
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
