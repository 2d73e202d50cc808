package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// AfroMessageAdapter talks to the AfroMessage bulk SMS API.
type AfroMessageAdapter struct {
	Token       string
	SenderID    string
	CallbackURL string
	httpClient  *http.Client
}

func NewAfroMessageAdapter(token, senderID, callbackURL string) *AfroMessageAdapter {
	return &AfroMessageAdapter{
		Token:       token,
		SenderID:    senderID,
		CallbackURL: callbackURL,
		httpClient:  http.DefaultClient,
	}
}

const afroSendURL = "https://api.afromessage.com/api/send"

func (a *AfroMessageAdapter) Send(ctx context.Context, req SendRequest) (SendResponse, error) {
	payload := map[string]any{
		"sender":   a.SenderID,
		"to":       req.Phone,
		"message":  req.Body,
		"callback": a.CallbackURL,
		"ref":      req.ClientRef,
	}

	body, _ := json.Marshal(payload)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, afroSendURL, bytes.NewBuffer(body))
	if err != nil {
		return SendResponse{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.Token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return SendResponse{}, fmt.Errorf("afromessage send request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return SendResponse{}, fmt.Errorf("afromessage send failed: http=%d body=%s", resp.StatusCode, string(raw))
	}

	var res struct {
		Acknowledge string `json:"acknowledge"`
		Response    struct {
			MessageID string `json:"message_id"`
			Errors    string `json:"errors"`
		} `json:"response"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return SendResponse{}, fmt.Errorf("afromessage send: decode response: %w", err)
	}

	if res.Acknowledge != "success" {
		return SendResponse{
			Accepted: false,
			Error:    res.Response.Errors,
		}, nil
	}

	return SendResponse{
		ProviderRef: res.Response.MessageID,
		Accepted:    true,
	}, nil
}

// ParseDeliveryReport decodes the gateway's status callback body. AfroMessage
// posts {"message_id": ..., "status": "DELIVERED"|"FAILED"|..., "reason": ...}.
func ParseDeliveryReport(body io.Reader) (DeliveryReport, error) {
	var payload struct {
		MessageID string `json:"message_id"`
		Status    string `json:"status"`
		Reason    string `json:"reason"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return DeliveryReport{}, fmt.Errorf("decode delivery report: %w", err)
	}
	if payload.MessageID == "" {
		return DeliveryReport{}, fmt.Errorf("delivery report missing message_id")
	}

	report := DeliveryReport{
		ProviderRef: payload.MessageID,
		Reason:      payload.Reason,
	}
	switch strings.ToUpper(payload.Status) {
	case "DELIVERED":
		report.Status = "delivered"
	case "FAILED", "UNDELIVERED", "REJECTED":
		report.Status = "failed"
	default:
		return DeliveryReport{}, fmt.Errorf("unknown delivery status %q", payload.Status)
	}
	return report, nil
}
