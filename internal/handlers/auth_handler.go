package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// tokenTTL is how long an operator login lasts. Nothing is persisted;
// restart the process and everyone logs in again.
const tokenTTL = 8 * time.Hour

// AuthHandler guards the front-end with a single operator password
// (a bcrypt hash from the credential source). No hash configured means the
// guard is off, for local runs.
type AuthHandler struct {
	passwordHash string

	mu     sync.Mutex
	tokens map[string]time.Time
}

func NewAuthHandler(passwordHash string) *AuthHandler {
	return &AuthHandler{
		passwordHash: passwordHash,
		tokens:       make(map[string]time.Time),
	}
}

// Login handles POST /api/login and hands out a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "invalid method", 405)
		return
	}

	var creds struct {
		Password string `json:"password"`
	}
	json.NewDecoder(r.Body).Decode(&creds)

	if h.passwordHash == "" {
		http.Error(w, "login disabled", 404)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(creds.Password)) != nil {
		http.Error(w, "wrong password", 401)
		return
	}

	token := uuid.New().String()
	h.mu.Lock()
	h.tokens[token] = time.Now().Add(tokenTTL)
	h.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

// Authorized checks the request's bearer token. Always true when no
// password hash is configured.
func (h *AuthHandler) Authorized(r *http.Request) bool {
	if h.passwordHash == "" {
		return true
	}

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	expires, ok := h.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(expires) {
		delete(h.tokens, token)
		return false
	}
	return true
}
