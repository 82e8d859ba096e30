package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-systems/custodia-backend/internal/domain"
	"github.com/custodia-systems/custodia-backend/internal/logger"
)

// TokenManager issues and validates the signed bearer tokens that carry
// the actor identity between requests.
type TokenManager struct {
	secret []byte
	expiry time.Duration
}

// NewTokenManager creates a new TokenManager instance
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), expiry: expiry}
}

type actorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token for the authenticated actor
func (tm *TokenManager) Issue(actor domain.Actor) (string, error) {
	claims := actorClaims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tm.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// Validate parses a token and returns the subject user ID
func (tm *TokenManager) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &actorClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*actorClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("token carries no subject")
	}
	return claims.Subject, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	ID    string `json:"id"`
	Role  string `json:"role"`
}

// handleLogin authenticates against the user directory and issues a token
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	actor, err := s.Users.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		// Unknown user and wrong password are reported identically
		logger.FromContext(r.Context()).Warn("Login failed", "username", req.Username)
		sendJSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := s.Tokens.Issue(actor)
	if err != nil {
		logger.FromContext(r.Context()).Error("Token signing failed", "error", err)
		sendJSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, loginResponse{Token: token, ID: actor.ID, Role: string(actor.Role)})
}
