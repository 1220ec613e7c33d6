package wander

import (
	"context"
	"errors"
	"log/slog"

	"github.com/devsashidhar/wander/log"
	"github.com/devsashidhar/wander/push"
	"github.com/devsashidhar/wander/store"
)

const (
	errorMsgLogField   = "errorMsg"
	postIDLogField     = "postID"
	userIDLogField     = "userID"
	chatIDLogField     = "chatID"
	messageIDLogField  = "messageID"
	signatureLogField  = "signature"
	tokenCountLogField = "tokenCount"

	fallbackUsername = "Someone"
)

// validTokens runs the probe-then-prune sequence for one user: every
// cached token gets a silent probe, dead ones are removed from the user
// document, and the surviving set is returned for the actual dispatch.
func validTokens(ctx context.Context, st *store.Store, gw *push.Gateway, userID string, tokens []string) ([]string, error) {
	logger := log.LoggerFromContext(ctx)

	res, err := gw.Probe(ctx, tokens)
	if err != nil {
		return nil, err
	}
	if len(res.Unregistered) > 0 {
		if err := st.RemoveTokens(ctx, userID, res.Unregistered); err != nil {
			return nil, err
		}
		logger.Info("pruned dead tokens",
			slog.String(userIDLogField, userID),
			slog.Int(tokenCountLogField, len(res.Unregistered)),
		)
	}
	return res.Valid, nil
}

// username fetches a user's handle for notification bodies, degrading
// to a placeholder when the user is gone or unnamed.
func username(ctx context.Context, st *store.Store, userID string) string {
	user, err := st.User(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.LoggerFromContext(ctx).Error("fetching username",
				slog.String(userIDLogField, userID),
				slog.String(errorMsgLogField, err.Error()),
			)
		}
		return fallbackUsername
	}
	if user.Username == "" {
		return fallbackUsername
	}
	return user.Username
}
