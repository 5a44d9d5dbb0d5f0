package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vytor/vocabflash/internal/errors"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/source"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

type contextKey string

const (
	sourceContextKey contextKey = "source"
	sourceCookieName            = "source_url"
	sourceQueryParam            = "src"
)

func sourceFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sourceContextKey).(string); ok {
		return v
	}
	return ""
}

// sourceMiddleware resolves the active card source: the src query parameter,
// then the source cookie, then the configured default. Only http(s) URLs are
// accepted; an unusable cookie is cleared and ignored.
func (s *Server) sourceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		src := strings.TrimSpace(r.URL.Query().Get(sourceQueryParam))
		if src == "" {
			if cookie, err := r.Cookie(sourceCookieName); err == nil && cookie.Value != "" {
				v, err := url.QueryUnescape(cookie.Value)
				if err == nil {
					err = source.ValidateURL(v)
				}
				if err != nil {
					log.Warn("invalid source cookie, clearing")
					clearSourceCookie(w)
				} else {
					src = v
				}
			}
		}
		if src == "" {
			src = s.DefaultSource
		}
		if src == "" {
			handleError(w, r, errors.NewBadRequestError("no card source selected"))
			return
		}
		if err := source.ValidateURL(src); err != nil {
			handleError(w, r, errors.NewValidationError(sourceQueryParam, err.Error()))
			return
		}

		ctx := context.WithValue(r.Context(), sourceContextKey, src)
		ctx = logger.NewContext(ctx, logger.FromContext(ctx).WithField("source", src))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clearSourceCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:    sourceCookieName,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
		MaxAge:  -1,
	})
}

func setSourceCookie(w http.ResponseWriter, src string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sourceCookieName,
		Value:    url.QueryEscape(src),
		Path:     "/",
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// generateRequestID creates a random request ID.
func generateRequestID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// loggingMiddleware logs HTTP requests with timing, status codes, and request IDs.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		log := logger.Default().WithFields(map[string]any{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		if r.RemoteAddr != "" {
			log = log.WithField("remote_addr", r.RemoteAddr)
		}

		ctx := logger.NewContext(r.Context(), log)
		r = r.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		log.Debug("request started")
		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		log = log.WithFields(map[string]any{
			"status":      wrapped.status,
			"size":        wrapped.size,
			"duration_ms": duration.Milliseconds(),
		})

		if wrapped.status >= 500 {
			log.Error("request completed with server error")
		} else if wrapped.status >= 400 {
			log.Warn("request completed with client error")
		} else {
			log.Info("request completed")
		}
	})
}

// recoveryMiddleware recovers from panics and logs them.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log := logger.FromContext(r.Context())
				log.Error("panic recovered: %v", rec)
				writeError(w, errors.NewInternalError(nil))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
