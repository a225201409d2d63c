package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// Service checks the admin shared secret. There are no sessions or tokens:
// every admin request carries the secret in the X-Admin-Auth header.
type Service interface {
	Check(password string) bool
}

type service struct {
	password string
	hash     string
}

// NewService builds the checker. When a bcrypt hash is configured it wins
// over the plain password.
func NewService(password, hash string) Service {
	return &service{password: password, hash: hash}
}

func (s *service) Check(password string) bool {
	if password == "" {
		return false
	}
	if s.hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.hash), []byte(password)) == nil
	}
	if s.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.password), []byte(password)) == 1
}

// Middleware rejects requests whose X-Admin-Auth header does not match the
// configured admin secret.
func Middleware(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !svc.Check(r.Header.Get("X-Admin-Auth")) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
