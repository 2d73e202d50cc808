package notifications

import (
	"context"

	"github.com/9ssi7/exponent"
)

// expoBatchSize is Expo's documented per-request message limit.
const expoBatchSize = 100

// ExpoAdapter sends pushes through the Expo push service. Case fan-out can
// target many devices at once, so Publish splits oversized batches.
type ExpoAdapter struct {
	client *exponent.Client
}

func NewExpoAdapter(c *exponent.Client) *ExpoAdapter {
	return &ExpoAdapter{client: c}
}

func (a *ExpoAdapter) Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	var responses []*exponent.MessageResponse

	for start := 0; start < len(msgs); start += expoBatchSize {
		end := start + expoBatchSize
		if end > len(msgs) {
			end = len(msgs)
		}

		res, err := a.client.Publish(ctx, msgs[start:end])
		if err != nil {
			return responses, err
		}
		responses = append(responses, res...)
	}

	return responses, nil
}

func (a *ExpoAdapter) PublishSingle(ctx context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error) {
	return a.client.PublishSingle(ctx, msg)
}
