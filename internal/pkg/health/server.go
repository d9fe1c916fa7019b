// Package health exposes scanner state over HTTP: liveness, latest match
// snapshots, recent signals, the websocket signal stream and the operator
// endpoint for replacing strategy settings at runtime.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Vodeneev/livebet/internal/scanner/emit"
	"github.com/Vodeneev/livebet/internal/scanner/store"
)

// Options carries the injected collaborators. Store is required; the rest
// are optional and their endpoints 404/204 when absent.
type Options struct {
	Service string
	Store   *store.MatchStore
	Ring    *emit.Ring
	Hub     *emit.WSHub
	// Strategy endpoints; either may be nil depending on the binary.
	Momentum MomentumSettings
	Favorite FavoriteSettings
}

type Server struct {
	opts Options
}

func Run(ctx context.Context, addr string, readHeaderTimeout time.Duration, opts Options) {
	if readHeaderTimeout <= 0 {
		slog.Error("read_header_timeout must be specified in config")
		os.Exit(1)
	}

	s := &Server{opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("/ping", s.handlePing)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/matches", s.handleMatches)
	mux.HandleFunc("/match", s.handleMatch)
	mux.HandleFunc("/signals", s.handleSignals)
	mux.HandleFunc("/strategy", s.handleStrategy)
	if opts.Hub != nil {
		mux.HandleFunc("/ws", opts.Hub.ServeWS)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("State server listening", "service", opts.Service, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("State server error", "service", opts.Service, "error", err)
		}
	}()
}

func AddrFor(port int) string {
	if port <= 0 {
		slog.Error("port must be greater than 0")
		os.Exit(1)
	}
	return fmt.Sprintf(":%d", port)
}
