package wander

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/devsashidhar/wander/delta"
	"github.com/devsashidhar/wander/event"
	"github.com/devsashidhar/wander/log"
	"github.com/devsashidhar/wander/push"
	"github.com/devsashidhar/wander/store"
)

const (
	likeTitle    = "New Like on Your Post!"
	likeBodyTmpl = "Your post of %s now has %d likes."
)

func likeBody(location string, total int) string {
	return fmt.Sprintf(likeBodyTmpl, location, total)
}

func init() {
	functions.CloudEvent("SendLikeNotification", SendLikeNotification)
}

// SendLikeNotification watches posts/{postId} updates and pushes to the
// post owner when the likes array grows. A per-post cooldown record
// throttles bursts, and a dispatch claim suppresses platform
// redeliveries of the same event.
func SendLikeNotification(ctx context.Context, e cloudevents.Event) error {
	logger := log.LoggerFromContext(ctx)

	fe, err := event.Parse(e)
	if err != nil {
		// malformed payloads never heal on retry
		logger.Error("undecodable post event", slog.String(errorMsgLogField, err.Error()))
		return nil
	}

	d := delta.DetectLike(fe)
	if d == nil {
		logger.Info("no new likes", slog.String(postIDLogField, fe.Value.ID()))
		return nil
	}
	logger = logger.With(
		slog.String(postIDLogField, d.PostID),
		slog.String(userIDLogField, d.OwnerID),
	)
	ctx = log.WithLogger(ctx, logger)
	logger.Info("like growth detected", slog.Int("likeCount", d.Total))

	st, err := store.New(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	now := time.Now()
	ok, err := st.ShouldNotifyLikes(ctx, d.PostID, d.Total, now)
	if err != nil {
		return err
	}
	if !ok {
		logger.Info("like notification throttled")
		return nil
	}

	claimed, err := st.ClaimDispatch(ctx, d.Signature())
	if err != nil {
		return err
	}
	if !claimed {
		logger.Info("duplicate delivery, already dispatched", slog.String(signatureLogField, d.Signature()))
		return nil
	}

	if err := notifyUser(ctx, st, d.OwnerID, likeTitle, likeBody(d.LocationName, d.Total)); err != nil {
		return err
	}

	// cooldown state is committed only after the dispatch path ran, so
	// a failed invocation stays eligible on redelivery
	if err := st.RecordLikeNotification(ctx, d.PostID, d.Total, now); err != nil {
		logger.Error("recording like notification", slog.String(errorMsgLogField, err.Error()))
	}
	return nil
}

// notifyUser fetches the target's tokens, prunes the dead ones and fans
// the notification out to the rest. Missing users and empty token lists
// end the invocation quietly.
func notifyUser(ctx context.Context, st *store.Store, userID, title, body string) error {
	logger := log.LoggerFromContext(ctx)

	user, err := st.User(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		logger.Info("target user not found", slog.String(userIDLogField, userID))
		return nil
	}
	if err != nil {
		return err
	}
	if len(user.FCMTokens) == 0 {
		logger.Info("no tokens registered", slog.String(userIDLogField, userID))
		return nil
	}

	gw, err := push.New(ctx)
	if err != nil {
		return err
	}
	tokens, err := validTokens(ctx, st, gw, userID, user.FCMTokens)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		logger.Info("no valid tokens left", slog.String(userIDLogField, userID))
		return nil
	}

	gw.Notify(ctx, tokens, title, body)
	logger.Info("notification dispatched",
		slog.String(userIDLogField, userID),
		slog.Int(tokenCountLogField, len(tokens)),
	)
	return nil
}
