// Package notify forwards refreshed reference prices to the application API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"reference-price-updater/internal/prices"
)

const tokenSubject = "price-updater"

// StatusError is returned when the API answers with anything but 200.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

type payload struct {
	Prices    prices.Table `json:"prices"`
	Timestamp string       `json:"timestamp"`
}

// Notifier POSTs price tables to Endpoint. When SigningKey is set the bearer
// token is a short-lived HS256 JWT, otherwise Token is sent as is.
type Notifier struct {
	Endpoint   string
	Token      string
	SigningKey []byte
	Client     *http.Client
}

func New(endpoint, token, signingKey string) *Notifier {
	n := &Notifier{
		Endpoint: endpoint,
		Token:    token,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
	if signingKey != "" {
		n.SigningKey = []byte(signingKey)
	}
	return n
}

func (n *Notifier) bearer(now time.Time) (string, error) {
	if len(n.SigningKey) == 0 {
		return n.Token, nil
	}
	claims := jwt.RegisteredClaims{
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(n.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Send posts the table. It succeeds only on HTTP 200.
func (n *Notifier) Send(ctx context.Context, table prices.Table, now time.Time) error {
	body, err := json.Marshal(payload{Prices: table, Timestamp: now.Format(time.RFC3339)})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	token, err := n.bearer(now)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}
