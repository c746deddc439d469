package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	"github.com/pocketplan/pocketplan/internal/config"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailSender sends through the Gmail API as the account that granted the refresh token.
type GmailSender struct {
	from    string
	service *gmail.Service
}

func NewGmailSender(ctx context.Context, cfg config.Mail) (*GmailSender, error) {
	if cfg.ClientId == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("gmail mail provider requires clientid, clientsecret and refreshtoken")
	}
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientId,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
	}
	tokenSource := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("unable to create gmail client: %w", err)
	}
	return &GmailSender{from: cfg.From, service: service}, nil
}

func (s *GmailSender) Send(ctx context.Context, msg Message) error {
	raw := composeMessage(s.from, msg)
	_, err := s.service.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}).Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to send mail to %s: %w", msg.To, err)
		log.Error(err)
		return err
	}
	log.Debugf("mail %q sent to %s", msg.Subject, msg.To)
	return nil
}

func composeMessage(from string, msg Message) string {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return b.String()
}
