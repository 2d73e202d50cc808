package auth

type Authenticator interface {
	GenerateTokens(userID int64, email string, role Role) (string, string, error)
	ValidateAccessToken(token string) (*Claims, error)
	ValidateRefreshToken(token string) (*Claims, error)
}
