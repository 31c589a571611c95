package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jpsjoberg/deckport.ai-sub002/internal/config"
)

// ErrInvalidToken is returned when a token fails signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// UserContext identifies the authenticated player behind a connection.
type UserContext struct {
	PlayerID  string
	ConsoleID string
}

// Verifier validates bearer tokens issued by the platform auth service.
type Verifier struct {
	secret []byte
	issuer string
	skew   jwt.ParserOption
}

// NewVerifier creates a token verifier from auth configuration.
func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
		skew:   jwt.WithLeeway(cfg.ClockSkew),
	}
}

// Verify parses and validates a token, returning the player identity carried
// in its claims. Tokens must be HS256 signed, carry the expected issuer, and
// name the player in the subject claim. The console id claim is optional.
func (v *Verifier) Verify(tokenString string) (*UserContext, error) {
	token, err := jwt.Parse(tokenString,
		func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return v.secret, nil
		},
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		v.skew,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	playerID, _ := claims["sub"].(string)
	if playerID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	consoleID, _ := claims["console_id"].(string)

	return &UserContext{PlayerID: playerID, ConsoleID: consoleID}, nil
}
