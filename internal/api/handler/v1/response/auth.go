package response

import "github.com/ecoquest/ecoquest-api/internal/domain"

type AuthResponse struct {
	Token     string      `json:"access_token"`
	TokenType string      `json:"token_type"`
	User      domain.User `json:"user"`
}

func NewAuthResponse(token string, user domain.User) AuthResponse {
	return AuthResponse{
		Token:     token,
		TokenType: "bearer",
		User:      user,
	}
}
