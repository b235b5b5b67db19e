package controller

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/YanFialkovitz/app-dados-sensores/internal/utils"
)

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (c *sensorControllerImpl) tokenAccepted(token string) bool {
	if token == "" {
		return false
	}
	if len(c.tokens) == 0 {
		return true
	}
	for _, t := range c.tokens {
		if subtle.ConstantTimeCompare([]byte(t), []byte(token)) == 1 {
			return true
		}
	}
	return false
}

func (c *sensorControllerImpl) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.tokenAccepted(bearerToken(r)) {
			slog.Warn("sensor api: rejected token", "method", r.Method, "remote", r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", `Bearer realm="dados-sensores"`)
			utils.WriteError(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
