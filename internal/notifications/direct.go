package notifications

import (
	"context"
	"errors"

	"fitih/internal/store"

	"github.com/9ssi7/exponent"
)

// SendDirectNotification delivers a manually composed notification to all of
// the user's registered devices.
func SendDirectNotification(ctx context.Context, push PushSender, storage *store.Storage, userID int64, title, body string) error {
	tokens, err := storage.PushTokens.GetTokensByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return errors.New("no push tokens")
	}

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
		})
	}

	_, err = push.Publish(ctx, msgs)
	return err
}
