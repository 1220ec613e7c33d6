package wander

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/devsashidhar/wander/auth"
	"github.com/devsashidhar/wander/contract"
	"github.com/devsashidhar/wander/log"
	"github.com/devsashidhar/wander/store"
)

func init() {
	functions.HTTP("LikeCheck", LikeCheck)
}

// LikeCheck lets the app request an on-demand like notification for one
// of the caller's posts. It runs through the same cooldown record as
// the trigger, so the two paths cannot double-notify.
func LikeCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	token, err := auth.Authenticate(r)
	if err != nil {
		logger.Error("error while authenticating", slog.String(errorMsgLogField, err.Error()))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	logger = logger.With(slog.String(userIDLogField, token.UID))

	data, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("error while reading request body", slog.String(errorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var req contract.LikeCheckRequest
	if err := json.Unmarshal(data, &req); err != nil || req.PostID == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	logger = logger.With(slog.String(postIDLogField, req.PostID))
	ctx = log.WithLogger(ctx, logger)

	st, err := store.New(ctx)
	if err != nil {
		logger.Error("error while connecting to firestore", slog.String(errorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer st.Close()

	post, err := st.Post(ctx, req.PostID)
	if err != nil {
		logger.Error("error while fetching post", slog.String(errorMsgLogField, err.Error()))
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if post.UserID != token.UID {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	resp := contract.LikeCheckResponse{LikeCount: len(post.Likes)}
	if len(post.Likes) > 0 {
		now := time.Now()
		ok, err := st.ShouldNotifyLikes(ctx, req.PostID, len(post.Likes), now)
		if err != nil {
			logger.Error("error while checking cooldown", slog.String(errorMsgLogField, err.Error()))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if ok {
			loc := post.LocationName
			if loc == "" {
				loc = "an unknown location"
			}
			if err := notifyUser(ctx, st, post.UserID, likeTitle, likeBody(loc, len(post.Likes))); err != nil {
				logger.Error("error while dispatching", slog.String(errorMsgLogField, err.Error()))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if err := st.RecordLikeNotification(ctx, req.PostID, len(post.Likes), now); err != nil {
				logger.Error("error while recording notification", slog.String(errorMsgLogField, err.Error()))
			}
			resp.Notified = true
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("error while encoding response", slog.String(errorMsgLogField, err.Error()))
	}
}
