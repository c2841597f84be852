package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"voice-elevator-simulator/internal/config"
	"voice-elevator-simulator/pkg/contact"
)

//go:embed static/*
var staticFiles embed.FS

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web widget",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort != "" {
			cfg.Server.Port = servePort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "listen port (overrides config and $PORT)")
}

// server holds what every websocket session shares.
type server struct {
	cfg      *config.Config
	sessions atomic.Int64
}

// newHandler builds the HTTP routes.
func newHandler(cfg *config.Config) (http.Handler, error) {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, err
	}
	s := &server{cfg: cfg}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(staticFS)))
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/api/contact", contact.Handler(newContactSender(cfg)))
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux, nil
}

// newContactSender returns nil (form disabled) when EmailJS is not set up.
func newContactSender(cfg *config.Config) contact.Sender {
	sender, err := contact.NewEmailJS(cfg.Contact.EmailJS, nil)
	if err != nil {
		slog.Warn("Contact form disabled", "reason", err)
		return nil
	}
	return sender
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","sessions":%d}`+"\n", s.sessions.Load())
}

func serve(ctx context.Context, cfg *config.Config) error {
	handler, err := newHandler(cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting voice elevator web server", "addr", srv.Addr)
		slog.Info("Open http://localhost:" + cfg.Server.Port + " in your browser")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
