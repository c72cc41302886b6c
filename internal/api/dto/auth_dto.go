package dto

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the standard response for successful authentication.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// UserInfo describes the authenticated caller on /auth/me.
type UserInfo struct {
	Username      string `json:"username"`
	Authenticated bool   `json:"authenticated"`
	RequestID     string `json:"request_id,omitempty"`
	CDNValidated  bool   `json:"cdn_validated"`
}
