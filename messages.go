package wander

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/microcosm-cc/bluemonday"

	"github.com/devsashidhar/wander/delta"
	"github.com/devsashidhar/wander/event"
	"github.com/devsashidhar/wander/log"
	"github.com/devsashidhar/wander/store"
)

const (
	messageTitle    = "New Message"
	messageBodyTmpl = "%s: %s"
)

// user-supplied message text must not carry markup into the push payload
var messageSanitizer = bluemonday.StrictPolicy()

func messageBody(senderName, text string) string {
	return fmt.Sprintf(messageBodyTmpl, senderName, messageSanitizer.Sanitize(text))
}

func init() {
	functions.CloudEvent("SendMessageNotification", SendMessageNotification)
}

// SendMessageNotification watches chats/{chatId}/messages/{messageId}
// and notifies the receiver of newly-created messages. Edits and
// read-flag flips run through the same trigger but produce no delta.
func SendMessageNotification(ctx context.Context, e cloudevents.Event) error {
	logger := log.LoggerFromContext(ctx)

	fe, err := event.Parse(e)
	if err != nil {
		logger.Error("undecodable message event", slog.String(errorMsgLogField, err.Error()))
		return nil
	}

	d := delta.DetectMessage(fe)
	if d == nil {
		logger.Info("not a new message", slog.String(messageIDLogField, fe.Value.ID()))
		return nil
	}
	logger = logger.With(
		slog.String(chatIDLogField, d.ChatID),
		slog.String(messageIDLogField, d.MessageID),
		slog.String(userIDLogField, d.ReceiverID),
	)
	ctx = log.WithLogger(ctx, logger)

	st, err := store.New(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	claimed, err := st.ClaimDispatch(ctx, d.Signature())
	if err != nil {
		return err
	}
	if !claimed {
		logger.Info("duplicate delivery, already dispatched", slog.String(signatureLogField, d.Signature()))
		return nil
	}

	return notifyUser(ctx, st, d.ReceiverID, messageTitle, messageBody(username(ctx, st, d.SenderID), d.Text))
}
