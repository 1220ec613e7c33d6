package contract

type LikeCheckRequest struct {
	PostID string `json:"post_id"`
}

type LikeCheckResponse struct {
	Notified  bool `json:"notified"`
	LikeCount int  `json:"like_count"`
}

type RegisterTokenRequest struct {
	Token  string `json:"token"`
	Remove bool   `json:"remove,omitempty"`
}

type RegisterTokenResponse struct {
	Status string `json:"status"`
}
