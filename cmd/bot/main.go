package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/brandpulse/mentions-bot/internal/aggregator"
	"github.com/brandpulse/mentions-bot/internal/cache"
	"github.com/brandpulse/mentions-bot/internal/config"
	"github.com/brandpulse/mentions-bot/internal/digest"
	"github.com/brandpulse/mentions-bot/internal/notifications"
	"github.com/brandpulse/mentions-bot/internal/scheduler"
	"github.com/brandpulse/mentions-bot/internal/sentiment"
	"github.com/brandpulse/mentions-bot/internal/sources"
	"github.com/brandpulse/mentions-bot/internal/storage"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Infof("Starting BrandPulse Mentions Bot for brand %q", cfg.Brand)

	// The snapshot archive is optional; the serving path never needs it.
	var archive storage.Archive
	if cfg.StorageAccount != "" {
		archive, err = storage.NewAzureArchive(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize snapshot archive: %v", err)
		}
	}

	var notifier notifications.Notifier
	if cfg.TeamsWebhookURL != "" || cfg.NotificationEmail != "" {
		notifier = notifications.NewService(cfg)
	}

	mentionCache := cache.New(cfg.CacheTTL, cfg.CacheMaxStaleAge)
	enricher := sentiment.NewEnricher(buildScorer(cfg), cfg.SentimentBatchSize, cfg.SentimentBatchDelay)

	agg := aggregator.New(mentionCache, buildSources(cfg), enricher, cfg.FetchBatchSize, cfg.FetchBatchDelay)
	digestService := digest.NewService(cfg, agg, archive, notifier)

	schedulerService := scheduler.NewService(cfg, digestService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", metricsHandler(agg)).Methods("GET")
	router.HandleFunc("/trigger", triggerHandler(digestService)).Methods("POST")
	router.HandleFunc("/api/mentions", mentionsHandler(cfg, agg)).Methods("GET")
	router.HandleFunc("/api/mentions/{source}", sourceMentionsHandler(cfg, agg)).Methods("GET")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // live fetches can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func buildSources(cfg *config.Config) []sources.Source {
	return []sources.Source{
		sources.NewRedditSource(cfg.RedditClientID, cfg.RedditClientSecret),
		sources.NewTwitterSource(cfg.TwitterBearerToken),
		sources.NewYouTubeSource(cfg.YouTubeAPIKey),
		sources.NewTemptaliaSource(),
		sources.NewMakeupAlleySource(),
		sources.NewGoogleNewsSource(),
	}
}

func buildScorer(cfg *config.Config) sentiment.Scorer {
	switch cfg.SentimentProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			// Missing credentials degrade to the neutral default
			// instead of failing startup.
			logrus.Warn("OPENAI_API_KEY not set; sentiment will default to neutral")
			return nil
		}
		return sentiment.NewOpenAIScorer(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.SentimentTimeout)
	case "vader":
		return sentiment.NewVaderScorer()
	default:
		return nil
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func metricsHandler(agg *aggregator.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, agg.MetricsSnapshot())
	}
}

func triggerHandler(digestService *digest.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			if err := digestService.Run(); err != nil {
				logrus.Errorf("Manual monitoring trigger failed: %v", err)
			}
		}()

		writeJSON(w, http.StatusOK, map[string]string{"message": "Monitoring run triggered"})
	}
}

func mentionsHandler(cfg *config.Config, agg *aggregator.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := agg.Aggregate(r.Context(), requestFromQuery(cfg, r))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		// Partial source failures still produce a 200 with a populated
		// errors array; rendering that is the caller's concern.
		writeJSON(w, http.StatusOK, result)
	}
}

func sourceMentionsHandler(cfg *config.Config, agg *aggregator.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := agg.FetchSource(r.Context(), mux.Vars(r)["source"], requestFromQuery(cfg, r))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func requestFromQuery(cfg *config.Config, r *http.Request) aggregator.Request {
	q := r.URL.Query()

	req := aggregator.Request{
		Sources:          splitParam(q.Get("sources")),
		Terms:            splitParam(q.Get("terms")),
		Brand:            cfg.Brand,
		MaxPerSource:     cfg.MaxPerSource,
		DaysBack:         cfg.DaysBack,
		IncludeSentiment: cfg.SentimentProvider != "off",
	}

	if brand := q.Get("brand"); brand != "" {
		req.Brand = brand
	}
	if len(req.Terms) == 0 {
		req.Terms = cfg.Keywords
	}
	if max, err := strconv.Atoi(q.Get("max")); err == nil && max > 0 {
		req.MaxPerSource = max
	}
	if days, err := strconv.Atoi(q.Get("days")); err == nil && days > 0 {
		req.DaysBack = days
	}
	if include, err := strconv.ParseBool(q.Get("sentiment")); err == nil {
		req.IncludeSentiment = include
	}

	return req
}

func splitParam(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
