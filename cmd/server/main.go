package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/mlevkov/shotcoach/internal/ai"
	"github.com/mlevkov/shotcoach/internal/api"
	"github.com/mlevkov/shotcoach/internal/coach"
	"github.com/mlevkov/shotcoach/internal/database"
	"github.com/mlevkov/shotcoach/internal/storage"
)

func main() {
	loadConfig()

	localStorage, err := storage.NewLocalStorage(viper.GetString("upload.dir"))
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	db, err := database.NewDB(database.Config{
		Type:       viper.GetString("db.type"),
		Host:       viper.GetString("db.host"),
		Port:       viper.GetInt("db.port"),
		User:       viper.GetString("db.user"),
		Password:   viper.GetString("db.password"),
		Name:       viper.GetString("db.name"),
		SQLitePath: viper.GetString("db.path"),
	})
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	if err := db.RunMigrations(viper.GetString("db.migrations")); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	videoRepo := database.NewVideoRepository(db)
	adviceRepo := database.NewAdviceRepo(db)
	reportRepo := database.NewReportRepo(db)

	var client ai.Client
	if apiKey := viper.GetString("gemini.api_key"); apiKey != "" {
		opts := []ai.GeminiOption{}
		if model := viper.GetString("gemini.model"); model != "" {
			opts = append(opts, ai.WithModel(model))
		}
		if endpoint := viper.GetString("gemini.endpoint"); endpoint != "" {
			opts = append(opts, ai.WithEndpoint(endpoint))
		}
		client = ai.NewGeminiClient(apiKey, opts...)
	} else {
		log.Printf("GEMINI_API_KEY not set; coaching runs with rule-based mock feedback")
	}
	analyzer := ai.NewAnalyzer(client)

	var frameExtractor api.FrameExtractor
	if fe, err := ai.NewFrameExtractor(); err != nil {
		log.Printf("Warning: frame extractor unavailable, full-video analysis disabled: %v", err)
	} else {
		frameExtractor = fe
	}

	manager := coach.NewManager(analyzer, adviceRepo, coach.Config{
		BatchSize:      viper.GetInt("pipeline.batch_size"),
		HistorySize:    viper.GetInt("pipeline.history_size"),
		Stride:         viper.GetInt("pipeline.stride"),
		MaxConcurrent:  viper.GetInt("pipeline.max_concurrent"),
		DrainInterval:  viper.GetDuration("pipeline.drain_interval"),
		MaxRetries:     viper.GetInt("pipeline.max_retries"),
		RetryBackoff:   viper.GetDuration("pipeline.retry_backoff"),
		RequestTimeout: viper.GetDuration("pipeline.request_timeout"),
		GateFrames:     viper.GetInt("pipeline.gate_frames"),
		GateThreshold:  viper.GetFloat64("pipeline.gate_threshold"),
	})

	app := &api.App{
		Storage:        localStorage,
		DB:             db,
		VideoRepo:      videoRepo,
		AdviceRepo:     adviceRepo,
		ReportRepo:     reportRepo,
		Analyzer:       analyzer,
		FrameExtractor: frameExtractor,
		Coach:          manager,
		MaxUploadSize:  viper.GetInt64("upload.max_size"),
	}

	router := api.NewRouter(app, api.NewSessionHandlers(manager, videoRepo))

	server := &http.Server{
		Addr:    ":" + viper.GetString("http.port"),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on port %s", viper.GetString("http.port"))
		log.Printf("Upload directory: %s", viper.GetString("upload.dir"))
		log.Printf("Database type: %s", viper.GetString("db.type"))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

func loadConfig() {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("http.port", "8080")
	viper.SetDefault("upload.dir", "./uploads")
	viper.SetDefault("upload.max_size", int64(100<<20))
	viper.SetDefault("db.type", "sqlite")
	viper.SetDefault("db.path", "./shotcoach.db")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("db.user", "shotcoach")
	viper.SetDefault("db.password", "shotcoach_dev")
	viper.SetDefault("db.name", "shotcoach")
	viper.SetDefault("db.migrations", "./migrations")
	viper.SetDefault("gemini.model", "")
	viper.SetDefault("gemini.endpoint", "")
	viper.SetDefault("pipeline.batch_size", coach.DefaultBatchSize)
	viper.SetDefault("pipeline.history_size", coach.DefaultHistorySize)
	viper.SetDefault("pipeline.stride", coach.DefaultStride)
	viper.SetDefault("pipeline.max_concurrent", coach.DefaultMaxConcurrent)
	viper.SetDefault("pipeline.drain_interval", coach.DefaultDrainInterval)
	viper.SetDefault("pipeline.max_retries", coach.DefaultMaxRetries)
	viper.SetDefault("pipeline.retry_backoff", coach.DefaultRetryBackoff)
	viper.SetDefault("pipeline.request_timeout", coach.DefaultRequestTimeout)
	viper.SetDefault("pipeline.gate_frames", coach.DefaultGateFrames)
	viper.SetDefault("pipeline.gate_threshold", coach.DefaultGateThreshold)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.BindEnv("gemini.api_key", "GEMINI_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatalf("Could not read config file: %v", err)
		}
		log.Println("No config.yaml found, using defaults and environment")
	}
}
