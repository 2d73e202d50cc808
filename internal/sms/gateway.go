package sms

import "context"

// SendRequest is one outbound text message.
type SendRequest struct {
	Phone     string
	Body      string
	ClientRef string // our reference, echoed back in delivery reports
}

// SendResponse carries the gateway's acknowledgement for a single message.
type SendResponse struct {
	ProviderRef string
	Accepted    bool
	Error       string
}

// Gateway defines a common interface for SMS providers.
type Gateway interface {
	Send(ctx context.Context, req SendRequest) (SendResponse, error)
}

// DeliveryReport is the parsed payload of a provider's status callback.
type DeliveryReport struct {
	ProviderRef string
	Status      string // delivered | failed
	Reason      string
}
