package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"sync"

	"google.golang.org/api/gmail/v1"
)

// Message is a plain-text email.
type Message struct {
	To      []string
	Cc      []string
	Subject string
	Body    string
}

// Gmail sends mail as the authenticated user.
type Gmail struct {
	svc        *gmail.Service
	creds      Credentials
	senderName string

	mu     sync.Mutex
	sender string
}

// NewGmail builds a sender. When senderAddress is empty the account address
// is looked up on the first send.
func NewGmail(ctx context.Context, creds Credentials, senderName, senderAddress string) (*Gmail, error) {
	opts, err := creds.ClientOptions(ctx, gmail.GmailSendScope, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	return &Gmail{svc: svc, creds: creds, senderName: senderName, sender: senderAddress}, nil
}

func (g *Gmail) Send(ctx context.Context, msg Message) error {
	ctx, cancel := g.creds.withTimeout(ctx)
	defer cancel()

	from, err := g.from(ctx)
	if err != nil {
		return err
	}
	raw, err := BuildRaw(from, msg)
	if err != nil {
		return err
	}
	_, err = g.svc.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send to %s: %w", strings.Join(msg.To, ", "), err)
	}
	return nil
}

func (g *Gmail) from(ctx context.Context) (mail.Address, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sender == "" {
		profile, err := g.svc.Users.GetProfile("me").Context(ctx).Do()
		if err != nil {
			return mail.Address{}, fmt.Errorf("gmail profile: %w", err)
		}
		g.sender = profile.EmailAddress
	}
	return mail.Address{Name: g.senderName, Address: g.sender}, nil
}

// BuildRaw renders msg as an RFC 5322 message with a quoted-printable UTF-8
// body.
func BuildRaw(from mail.Address, msg Message) ([]byte, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("message has no recipient")
	}
	var buf bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }

	header("From", from.String())
	header("To", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		header("Cc", strings.Join(msg.Cc, ", "))
	}
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="UTF-8"`)
	header("Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(strings.ReplaceAll(msg.Body, "\n", "\r\n"))); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
