package wander

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/devsashidhar/wander/auth"
	"github.com/devsashidhar/wander/contract"
	"github.com/devsashidhar/wander/log"
	"github.com/devsashidhar/wander/store"
)

func init() {
	functions.HTTP("RegisterToken", RegisterToken)
}

// RegisterToken adds (or, on sign-out, removes) one push-delivery token
// on the caller's user document. The app calls it on every launch, so
// the add path must tolerate repeats; ArrayUnion takes care of that.
func RegisterToken(w http.ResponseWriter, r *http.Request) {
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
	ctx = log.WithLogger(ctx, logger)

	var req contract.RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	st, err := store.New(ctx)
	if err != nil {
		logger.Error("error while connecting to firestore", slog.String(errorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer st.Close()

	if req.Remove {
		err = st.RemoveTokens(ctx, token.UID, []string{req.Token})
	} else {
		err = st.AddToken(ctx, token.UID, req.Token)
	}
	if err != nil {
		logger.Error("error while updating tokens", slog.String(errorMsgLogField, err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	logger.Info("token registration updated", slog.Bool("removed", req.Remove))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(contract.RegisterTokenResponse{Status: "ok"})
}
