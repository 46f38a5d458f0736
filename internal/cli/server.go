package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vocab-quiz/internal/app"
	"vocab-quiz/internal/config"
	"vocab-quiz/internal/domain"
	"vocab-quiz/internal/infra/file"
	"vocab-quiz/internal/infra/memory"
	pgloader "vocab-quiz/internal/infra/postgres"
	redisstore "vocab-quiz/internal/infra/redis"
	"vocab-quiz/internal/infra/remote"
	"vocab-quiz/internal/quiz"
	transport "vocab-quiz/internal/transport/http"
)

const defaultResultsURL = "http://localhost:5000/learn/finish"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	httpClient := &http.Client{Timeout: config.Duration(cfg.Results.Timeout, 10*time.Second)}
	loader := vocabLoader(cfg, pool, httpClient, logger)

	vocabTTL := config.Duration(cfg.Vocab.TTL, 10*time.Minute)
	var source quiz.QuestionSource
	if redisClient != nil {
		source = redisstore.NewVocabRepository(redisClient, loader, vocabTTL)
	} else {
		source = memory.NewVocabRepository(loader, vocabTTL)
	}

	quizDuration := config.Duration(cfg.Quiz.Duration, quiz.DefaultDuration)
	var store app.SessionRepository
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, markerTTL(redisTTL, quizDuration))
	} else {
		store = memory.NewSessionStore()
	}

	resultsURL := cfg.Results.URL
	if resultsURL == "" {
		resultsURL = defaultResultsURL
	}
	sink := remote.NewSink(resultsURL, httpClient)

	service := app.NewQuizService(store, source, sink, logger,
		quiz.WithDuration(quizDuration),
		quiz.WithTickInterval(config.Duration(cfg.Quiz.Tick, time.Second)),
		quiz.WithSubmitTimeout(httpClient.Timeout+5*time.Second),
		quiz.WithSubmitKey(submitKey(cfg.Quiz.SubmitKey)),
	)
	wsHandler := transport.NewWSHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	// No WriteTimeout: websocket connections stay open for the whole quiz.
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		logger.WithField("port", finalPort).Info("starting vocab quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// vocabLoader picks the vocabulary origin: postgres, then the vocab url,
// then a local file, then the built-in sample.
func vocabLoader(cfg config.Config, pool *pgxpool.Pool, client *http.Client, log logrus.FieldLogger) memory.VocabLoader {
	switch {
	case pool != nil:
		log.Info("vocabulary from postgres")
		return pgloader.NewVocabLoader(pool)
	case cfg.Vocab.URL != "":
		log.WithField("url", cfg.Vocab.URL).Info("vocabulary from remote api")
		return remote.NewSource(cfg.Vocab.URL, client)
	case cfg.Vocab.File != "":
		log.WithField("file", cfg.Vocab.File).Info("vocabulary from file")
		return file.NewVocabLoader(cfg.Vocab.File)
	}
	log.Warn("no vocabulary source configured, serving the built-in sample")
	return memory.NewStaticVocabLoader(sampleVocab())
}

// markerTTL keeps session markers alive for at least a full quiz plus the
// time needed to submit results.
func markerTTL(configured, quizDuration time.Duration) time.Duration {
	if floor := quizDuration + time.Minute; configured < floor {
		return floor
	}
	return configured
}

func submitKey(raw string) string {
	if raw == "" {
		return quiz.DefaultSubmitKey
	}
	return raw
}

// sampleVocab keeps the service usable without any backing store.
func sampleVocab() []domain.Question {
	return []domain.Question{
		{ID: "1", Word: "abandon", Pos: "v.", Meaning: "to leave behind for good"},
		{ID: "2", Word: "brief", Pos: "adj.", Meaning: "lasting a short time"},
		{ID: "3", Word: "candid", Pos: "adj.", Meaning: "truthful and straightforward"},
		{ID: "4", Word: "diligence", Pos: "n.", Meaning: "careful and persistent effort"},
		{ID: "5", Word: "quickly", Pos: "adv.", Meaning: "at a fast speed"},
	}
}
