package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// sendgridSender posts messages to the SendGrid v3 mail send API.  The
// endpoint is configurable so tests can point it at a local server.
type sendgridSender struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

type sgAddress struct {
	Email string `json:"email"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgRequest struct {
	Personalizations []struct {
		To []sgAddress `json:"to"`
	} `json:"personalizations"`
	From    sgAddress   `json:"from"`
	Subject string      `json:"subject"`
	Content []sgContent `json:"content"`
}

func (s *sendgridSender) Send(ctx context.Context, msg Message) error {
	payload := sgRequest{
		From:    sgAddress{Email: msg.From},
		Subject: msg.Subject,
	}
	payload.Personalizations = make([]struct {
		To []sgAddress `json:"to"`
	}, 1)
	payload.Personalizations[0].To = []sgAddress{{Email: msg.To}}
	// Plain text part must precede HTML per the provider contract.
	if msg.Text != "" {
		payload.Content = append(payload.Content, sgContent{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		payload.Content = append(payload.Content, sgContent{Type: "text/html", Value: msg.HTML})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("provider error: status %d", resp.StatusCode)
	}
	return nil
}
