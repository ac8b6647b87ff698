package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/mail"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"PolicyDigest/internal/config"
	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/ports"
)

// Reader pulls unread newsletters through the Gmail API.
type Reader struct {
	svc   *gmailapi.Service
	user  string
	query string
}

var _ ports.MailSource = (*Reader)(nil)

// NewReader authenticates with the OAuth client file and a previously saved
// token. Obtaining the token interactively is out of scope for the server.
func NewReader(ctx context.Context, cfg config.GmailConfig) (*Reader, error) {
	creds, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read gmail credentials: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(creds, gmailapi.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse gmail credentials: %w", err)
	}

	rawToken, err := os.ReadFile(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("read gmail token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(rawToken, &token); err != nil {
		return nil, fmt.Errorf("parse gmail token: %w", err)
	}

	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, &token)))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	return NewReaderWithService(svc, cfg.User, cfg.Query), nil
}

// NewReaderWithService wraps an already configured service.
func NewReaderWithService(svc *gmailapi.Service, user, query string) *Reader {
	if user == "" {
		user = "me"
	}
	if query == "" {
		query = "is:unread"
	}
	return &Reader{svc: svc, user: user, query: query}
}

// Unread returns every unread message that carries an HTML body.
func (r *Reader) Unread(ctx context.Context) ([]domain.Message, error) {
	list, err := r.svc.Users.Messages.List(r.user).Q(r.query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	out := make([]domain.Message, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := r.svc.Users.Messages.Get(r.user, ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("get message %s: %w", ref.Id, err)
		}
		html := htmlBody(msg.Payload)
		if html == "" {
			continue
		}
		subject := header(msg.Payload, "Subject")
		if subject == "" {
			subject = "(no subject)"
		}
		out = append(out, domain.Message{
			ID:      msg.Id,
			Subject: subject,
			From:    sender(header(msg.Payload, "From")),
			HTML:    html,
		})
	}
	return out, nil
}

func header(part *gmailapi.MessagePart, name string) string {
	if part == nil {
		return ""
	}
	for _, h := range part.Headers {
		if strings.EqualFold(h.Name, name) {
			return strings.TrimSpace(h.Value)
		}
	}
	return ""
}

// sender prefers the display name of a From header.
func sender(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return from
	}
	if addr.Name != "" {
		return addr.Name
	}
	return addr.Address
}

// htmlBody walks the MIME tree depth-first for the first text/html part.
func htmlBody(part *gmailapi.MessagePart) string {
	if part == nil {
		return ""
	}
	if strings.EqualFold(part.MimeType, "text/html") && part.Body != nil && part.Body.Data != "" {
		return decodeBody(part.Body.Data)
	}
	for _, child := range part.Parts {
		if html := htmlBody(child); html != "" {
			return html
		}
	}
	return ""
}

func decodeBody(data string) string {
	if raw, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(raw)
	}
	if raw, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(raw)
	}
	return ""
}
