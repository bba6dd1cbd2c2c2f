package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"car-scout/config"
)

const serviceName = "car-scout"

// NewRouter wires the routes under the middleware chain. CORS sits outside the
// router so preflight requests never reach method matching. Only searches
// draw from the rate limit.
func NewRouter(h *Handler, cfg *config.Config) http.Handler {
	limit := RateLimit(rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RateBurst))

	r := mux.NewRouter()
	r.Handle("/search", limit(http.HandlerFunc(h.Search))).Methods(http.MethodPost)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	return Chain(r,
		Recover(h.Logger, h.Reporter),
		Logger(h.Logger),
		CORS(cfg.CORSOrigin),
		OTel(serviceName),
	)
}

// Serve listens on addr until ctx is done, then drains in-flight requests
// for up to grace.
func Serve(ctx context.Context, addr string, handler http.Handler, grace time.Duration, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "listen")
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutdown")
	}
	return nil
}
