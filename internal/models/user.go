package models

// LoginRequest carries directory credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned by login and renew.
type LoginResponse struct {
	Token     string               `json:"token"`
	ExpiresAt int64                `json:"expires_at"`
	User      DirectoryUser        `json:"user"`
	Profile   AuthorizationProfile `json:"profile"`
}
