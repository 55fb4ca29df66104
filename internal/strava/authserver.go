package strava

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// waitForCode runs a short-lived callback server on addr and blocks until
// the OAuth redirect delivers an authorization code, the timeout passes, or
// ctx is cancelled.
func waitForCode(ctx context.Context, addr string, timeout time.Duration, log *slog.Logger) (string, error) {
	codeCh := make(chan string, 1)

	r := chi.NewRouter()
	r.Use(requestLogging(log))
	r.Get("/callback", func(w http.ResponseWriter, req *http.Request) {
		code := req.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code parameter", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "Authorization received. You can close this window.")
		select {
		case codeCh <- code:
		default:
		}
	})

	srv := &http.Server{Addr: addr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	select {
	case code := <-codeCh:
		return code, nil
	case err := <-errCh:
		return "", fmt.Errorf("callback server on %s: %w", addr, err)
	case <-time.After(timeout):
		return "", fmt.Errorf("timed out after %s waiting for the OAuth redirect", timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// requestLogging logs each callback-server request.
func requestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug("callback request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start).String(),
			)
		})
	}
}
