package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrDeclined возвращается, когда платёжный шлюз отклонил операцию.
var ErrDeclined = errors.New("payment declined")

// Intent описывает платёжное намерение на стороне шлюза.
type Intent struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
}

// Gateway реализует клиента внешнего платёжного шлюза.
// Все суммы передаются в основной валюте платформы.
type Gateway struct {
	baseURL    string
	apiKey     string
	currency   string
	httpClient *http.Client
}

// NewGateway создаёт экземпляр клиента.
func NewGateway(baseURL, apiKey, currency string) *Gateway {
	return &Gateway{
		baseURL:  baseURL,
		apiKey:   apiKey,
		currency: currency,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateIntent создаёт платёжное намерение на сумму заказа.
func (g *Gateway) CreateIntent(ctx context.Context, orderID uuid.UUID, amount float64) (*Intent, error) {
	payload := map[string]any{
		"order_id": orderID.String(),
		"amount":   amount,
		"currency": g.currency,
	}

	var intent Intent
	if err := g.post(ctx, "intents", payload, &intent); err != nil {
		return nil, err
	}

	return &intent, nil
}

// Capture списывает средства по ранее созданному намерению.
func (g *Gateway) Capture(ctx context.Context, intentID string) error {
	return g.post(ctx, "intents/"+intentID+"/capture", map[string]any{}, nil)
}

// Refund возвращает часть или всю сумму клиенту.
func (g *Gateway) Refund(ctx context.Context, intentID string, amount float64) error {
	payload := map[string]any{
		"amount":   amount,
		"currency": g.currency,
	}
	return g.post(ctx, "intents/"+intentID+"/refund", payload, nil)
}

// Payout перечисляет средства мастеру при расчёте.
func (g *Gateway) Payout(ctx context.Context, fixerID uuid.UUID, amount float64) error {
	payload := map[string]any{
		"recipient_id": fixerID.String(),
		"amount":       amount,
		"currency":     g.currency,
	}
	return g.post(ctx, "payouts", payload, nil)
}

// post выполняет HTTP запрос к шлюзу и декодирует ответ в out.
func (g *Gateway) post(ctx context.Context, path string, payload any, out any) error {
	if g.baseURL == "" {
		return fmt.Errorf("payments: baseURL не задан")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := g.baseURL
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	url += path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 402 — отказ шлюза, различимый вызывающим кодом.
	if resp.StatusCode == http.StatusPaymentRequired {
		return ErrDeclined
	}
	if resp.StatusCode >= 400 {
		var errorBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errorBody)
		return fmt.Errorf("payments: код ответа %d: %v", resp.StatusCode, errorBody)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return err
	}

	return nil
}
