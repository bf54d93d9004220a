package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"finsense-go/internal/actionable"
	"finsense-go/internal/aggregator"
	"finsense-go/internal/chat"
	"finsense-go/internal/config"
	"finsense-go/internal/insights"
	"finsense-go/internal/llm"
	"finsense-go/internal/logger"
	"finsense-go/internal/processor"
)

type askRequest struct {
	Pack     string `json:"pack"`
	Question string `json:"question"`
}

type quarterView struct {
	aggregator.QuarterRollup
	Card actionable.ActionCard `json:"action_card"`
}

type packsResponse struct {
	Packs    []string      `json:"packs"`
	Quarters []quarterView `json:"quarters"`
}

type server struct {
	proc *processor.Processor
	log  *logger.Logger
}

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "finsense-api").Info("starting service")

	cfg, err := config.Load("", "")
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	log.WithField("insights_dir", cfg.InsightsDir()).Info("serving insight packs")

	client, err := llm.New(cfg.LLM)
	if err != nil {
		log.WithError(err).Fatal("failed to create llm client")
	}
	client = llm.WithRetry(client, llm.DefaultRetryOptions(cfg.LLM.MaxRetries), log)

	s := &server{
		proc: processor.New(chat.New(client, cfg.LLM, log), cfg.InsightsDir()),
		log:  log,
	}

	addr := fmt.Sprintf(":%s", envOr("PORT", "8080"))
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("GET /packs", s.packs)
	mux.HandleFunc("POST /ask", s.ask)
	return mux
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	s.log.WithRequest(r).Debug("health check")
	fmt.Fprint(w, "ok")
}

func (s *server) packs(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "packs")

	packs, err := s.proc.Packs()
	if err != nil {
		reqLog.WithField("error", err.Error()).Error("list packs failed")
		http.Error(w, "could not list insight packs", http.StatusInternalServerError)
		return
	}
	resp := packsResponse{Packs: []string{}, Quarters: []quarterView{}}
	for _, p := range packs {
		resp.Packs = append(resp.Packs, chat.Label(p))
	}
	for _, r := range aggregator.Rollup(packs) {
		resp.Quarters = append(resp.Quarters, quarterView{QuarterRollup: r, Card: actionable.Generate(r)})
	}
	reqLog.WithField("count", len(packs)).Info("packs listed")
	writeJSON(w, http.StatusOK, resp, reqLog)
}

func (s *server) ask(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "ask")

	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		reqLog.Warn("bad request body")
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Pack == "" || req.Question == "" {
		http.Error(w, "pack and question are required", http.StatusBadRequest)
		return
	}
	reqLog = reqLog.WithField("pack", req.Pack)

	res, err := s.proc.Ask(r.Context(), req.Pack, req.Question)
	reqLog = reqLog.WithField("duration_ms", res.DurationMs)
	if err != nil {
		reqLog.WithField("error", err.Error()).Warn("ask failed")
	} else {
		reqLog.Info("ask answered")
	}
	writeJSON(w, statusFor(err), res, reqLog)
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrEmptyQuestion), errors.Is(err, insights.ErrInvalidPackName):
		return http.StatusBadRequest
	case errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, llm.ErrAuth):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any, reqLog *logrus.Entry) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		reqLog.WithField("error", err.Error()).Error("failed to write response")
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
