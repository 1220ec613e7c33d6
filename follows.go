package wander

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/devsashidhar/wander/delta"
	"github.com/devsashidhar/wander/event"
	"github.com/devsashidhar/wander/log"
	"github.com/devsashidhar/wander/store"
)

const (
	followTitle    = "You have a new follower!"
	followBodyTmpl = "%s is now following you."
)

func followBody(followerName string) string {
	return fmt.Sprintf(followBodyTmpl, followerName)
}

func init() {
	functions.CloudEvent("SendFollowNotification", SendFollowNotification)
}

// SendFollowNotification watches users/{userId} updates and notifies
// every user newly added to the following array. Each addition gets its
// own dispatch claim, an in-app notification entry and a push.
func SendFollowNotification(ctx context.Context, e cloudevents.Event) error {
	logger := log.LoggerFromContext(ctx)

	fe, err := event.Parse(e)
	if err != nil {
		logger.Error("undecodable user event", slog.String(errorMsgLogField, err.Error()))
		return nil
	}

	follows := delta.DetectFollows(fe)
	if len(follows) == 0 {
		logger.Info("no new followees", slog.String(userIDLogField, fe.Value.ID()))
		return nil
	}

	st, err := store.New(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	body := followBody(username(ctx, st, follows[0].FollowerID))

	for _, f := range follows {
		fLogger := logger.With(
			slog.String("followerID", f.FollowerID),
			slog.String(userIDLogField, f.FollowedID),
		)
		fCtx := log.WithLogger(ctx, fLogger)

		claimed, err := st.ClaimDispatch(fCtx, f.Signature())
		if err != nil {
			return err
		}
		if !claimed {
			fLogger.Info("duplicate delivery, already dispatched", slog.String(signatureLogField, f.Signature()))
			continue
		}

		// best effort: the push still goes out if the log write fails
		if err := st.LogFollowNotification(fCtx, f.FollowedID, body); err != nil {
			fLogger.Error("persisting follow notification", slog.String(errorMsgLogField, err.Error()))
		}

		if err := notifyUser(fCtx, st, f.FollowedID, followTitle, body); err != nil {
			return err
		}
	}
	return nil
}
