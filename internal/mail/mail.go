package mail

import (
	"context"
	"fmt"

	"github.com/pocketplan/pocketplan/internal/config"
	log "github.com/sirupsen/logrus"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the sender selected by cfg.Provider.
func New(ctx context.Context, cfg config.Mail) (Sender, error) {
	switch cfg.Provider {
	case "", "log":
		log.Info("Mail provider is 'log', messages are written to the log only")
		return &LogSender{}, nil
	case "gmail":
		return NewGmailSender(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

// LogSender writes messages to the log. Used in development and tests.
type LogSender struct{}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	log.WithFields(log.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info(msg.Body)
	return nil
}

// RecordingSender keeps every message in memory.
type RecordingSender struct {
	Sent []Message
	Err  error
}

func (s *RecordingSender) Send(_ context.Context, msg Message) error {
	if s.Err != nil {
		return s.Err
	}
	s.Sent = append(s.Sent, msg)
	return nil
}

func (s *RecordingSender) Last() (Message, bool) {
	if len(s.Sent) == 0 {
		return Message{}, false
	}
	return s.Sent[len(s.Sent)-1], true
}
