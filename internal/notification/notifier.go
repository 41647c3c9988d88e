// Package notification delivers price alert events to external channels
// (log, webhooks, Telegram). Delivery failures are the caller's to log;
// they never affect the poll cycle.
package notification

import (
	"context"
	"fmt"
	"log"

	"github.com/TCSthecoder/Scraper/internal/model"
)

// Level represents the severity of a notification.
type Level string

const (
	Info    Level = "INFO"
	Warning Level = "WARNING"
)

// Message is a rendered notification.
type Message struct {
	Level Level  `json:"level"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// FromEvent renders an alert event into a notification message.
func FromEvent(ev model.AlertEvent) Message {
	direction := "above"
	if ev.Kind == model.AlertLow {
		direction = "below"
	}
	return Message{
		Level: Warning,
		Title: fmt.Sprintf("%s price alert", ev.Asset),
		Body:  fmt.Sprintf("%s price (%g) is %s %g", ev.Asset, ev.Price, direction, ev.Threshold),
	}
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers a message. Returns error if delivery fails.
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes alerts to the process log, mirroring the durable
// log's view of the same cycle. Always enabled.
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	log.Printf("[notify] [%s] ALERT: %s", msg.Level, msg.Body)
	return nil
}

// Multi fans one message out to several backends; the first failure is
// returned but all backends are attempted.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, msg Message) error {
	var firstErr error
	for _, n := range m {
		if err := n.Send(ctx, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
