package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"diagnosis-agent/internal/agent"
	"diagnosis-agent/internal/config"
	"diagnosis-agent/internal/diagnosis"
	"diagnosis-agent/internal/medical"
	"diagnosis-agent/internal/platform/logger"
	"diagnosis-agent/internal/platform/telegram"
	"diagnosis-agent/internal/report"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "diagnosis-agent")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Infrastructure
	db, err := connectDB(ctx, cfg.Database.URL, log)
	if err != nil {
		log.Fatal("could not connect to database", zap.Error(err))
	}
	defer db.Close()

	runMigrations(cfg.Database.MigrationsPath, cfg.Database.URL, log)

	// 2. Clients
	generator, err := newGenerator(ctx, cfg.Generation, log)
	if err != nil {
		log.Fatal("could not create generation client", zap.Error(err))
	}

	var notifier diagnosis.Notifier
	if cfg.Telegram.NotificationsEnabled() {
		tgClient := telegram.NewClient(cfg.Telegram.APIURL, cfg.Telegram.BotToken)
		notifier = report.NewService(tgClient, cfg.Telegram.DoctorChatID, cfg.Report.FontPaths, log.Named("report"))
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN or DOCTOR_CHAT_ID is not set, urgent reports will not be forwarded")
	}

	// 3. Services
	builder := medical.NewBuilder(medical.NewRecordStore(db), medical.NewProfileStore(db))
	opts := diagnosis.DefaultOptions()
	opts.Questionnaire = stageParams(cfg.Generation, cfg.Generation.Questionnaire)
	opts.Diagnosis = stageParams(cfg.Generation, cfg.Generation.Diagnosis)

	diagnosisSvc := diagnosis.NewService(builder, generator, notifier, opts, log.Named("diagnosis"))
	diagnosisHandler := diagnosis.NewHandler(diagnosisSvc, log.Named("http"))

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS for frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, "+diagnosis.SubjectHeader)
			if r.Method == http.MethodOptions {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		diagnosis.RegisterRoutes(r, diagnosisHandler)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("provider", cfg.Generation.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := diagnosisSvc.Drain(shutdownCtx); err != nil {
		log.Error("pending doctor notifications abandoned", zap.Error(err))
	}
}

func connectDB(ctx context.Context, url string, log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}

	const attempts = 10
	for i := 1; i <= attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			log.Info("connected to database")
			return db, nil
		}
		log.Info("waiting for database", zap.Int("attempt", i), zap.Int("of", attempts), zap.Error(err))

		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	db.Close()
	return nil, err
}

func runMigrations(path, dbURL string, log *zap.Logger) {
	m, err := migrate.New("file://"+path, dbURL)
	if err != nil {
		log.Error("migration init failed", zap.Error(err))
		return
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Error("migration up failed", zap.Error(err))
		return
	}
	log.Info("migrations applied")
}

func newGenerator(ctx context.Context, cfg config.GenerationConfig, log *zap.Logger) (agent.Generator, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return agent.NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.Timeout, log.Named("gemini"))
	default:
		if cfg.APIKey == "" {
			log.Warn("generation API key is not set, requests will be rejected upstream")
		}
		return agent.NewOpenAIClient(agent.OpenAIConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, log.Named("openai")), nil
	}
}

func stageParams(g config.GenerationConfig, s config.StageConfig) diagnosis.GenerationParams {
	return diagnosis.GenerationParams{
		Model:            g.StageModel(s),
		Temperature:      s.Temperature,
		MaxTokens:        s.MaxTokens,
		TopP:             s.TopP,
		FrequencyPenalty: s.FrequencyPenalty,
		PresencePenalty:  s.PresencePenalty,
	}
}
