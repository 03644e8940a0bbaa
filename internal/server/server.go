// Package server exposes the webhook endpoint and liveness probes.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kukucorn/ai-running-coach/internal/delivery"
)

const runningMessage = "러닝 코치 봇이 실행 중입니다."

var fallbackErrorResponse = []byte(`{"detail":"Internal Server Error"}`)

type Options struct {
	Addr         string
	AppName      string
	Token        string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	opts    Options
	handler delivery.UpdateHandler
	srv     *http.Server
}

func New(handler delivery.UpdateHandler, opts Options) *Server {
	s := &Server{opts: opts, handler: handler}
	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: opts.ReadTimeout,
		ReadTimeout:       opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
	}
	return s
}

// Routes builds the request multiplexer.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/{token}", s.handleWebhook)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start serves in the background. A listener failure other than a clean
// shutdown is reported on the returned channel.
func (s *Server) Start() <-chan error {
	errc := make(chan error, 1)
	go func() {
		log.Printf("🌐 HTTP server listening on %s", s.opts.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http server: %w", err)
		}
		close(errc)
	}()
	return errc
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.Token)) != 1 {
		writeJSONResponse(w, http.StatusUnauthorized, map[string]string{"detail": "Unauthorized"})
		return
	}

	var u tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		log.Printf("failed to decode webhook body: %v", err)
		writeJSONResponse(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}
	err := delivery.Dispatch(r.Context(), s.handler, u)
	switch {
	case errors.Is(err, delivery.ErrHandlerPanic):
		log.Printf("❌ webhook update %d: %v", u.UpdateID, err)
		writeJSONResponse(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	case err != nil:
		// side effects already ran; a non-2xx status would make Telegram redeliver
		log.Printf("webhook update %d handled but reply failed: %v", u.UpdateID, err)
	}
	writeJSONResponse(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"app":     s.opts.AppName,
		"message": runningMessage,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// writeJSONResponse marshals before touching headers so an encoding failure
// still produces a well-formed 500.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response any) {
	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("failed to marshal JSON response: %v", err)
		data = fallbackErrorResponse
		statusCode = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(data); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}
