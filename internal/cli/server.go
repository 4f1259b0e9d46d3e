package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/config"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
	pgstore "live-quiz-service/internal/infra/postgres"
	redisinfra "live-quiz-service/internal/infra/redis"
	transport "live-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the live quiz server",
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

	log := newLogger(cfg)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.CatalogLoader = memory.NewStaticCatalogLoader(sampleCatalogs())
	if pool != nil {
		loader = pgstore.NewCatalogLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var catalogs app.CatalogRepository
	if redisClient != nil {
		catalogs = redisinfra.NewCatalogRepository(redisClient, loader, quizTTL)
	} else {
		catalogs = memory.NewCatalogRepository(loader, quizTTL)
	}

	var store app.DurableStore = memory.NewDurableStore()
	if pool != nil {
		store = pgstore.NewDurableStore(pool)
	}

	scheduler := app.NewScheduler()
	factory := &app.SessionFactory{
		Catalogs: catalogs,
		Deps: app.SessionDeps{
			Scheduler:    scheduler,
			Store:        store,
			Logger:       log,
			ResultsDelay: config.TTLDuration(cfg.Session.ResultsDelay, 5*time.Second),
		},
	}

	var registry app.SessionRegistry = memory.NewRegistry(factory)
	if redisClient != nil {
		registry = redisinfra.NewRegistry(registry, redisClient, redisTTL)
	}
	scheduler.OnExpire(func(sessionID string, questionIndex int) {
		if session, ok := registry.Get(sessionID); ok {
			session.HandleExpiry(questionIndex)
		}
	})

	gateway := transport.NewGateway(registry, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", gateway.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting live quiz service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newLogger(cfg config.Config) zerolog.Logger {
	if cfg.Log.Pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// sampleCatalogs provides demo quiz data; swap the loader with the
// Postgres-backed one in production.
func sampleCatalogs() map[string]domain.Catalog {
	return map[string]domain.Catalog{
		"quiz-1": {
			QuizID: "quiz-1",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Type:   domain.TypeSingleChoice,
					Prompt: "What is 2 + 2?",
					Options: []domain.Option{
						{ID: "o1", Text: "3"},
						{ID: "o2", Text: "4"},
						{ID: "o3", Text: "5"},
					},
					TimeLimitSec:     30,
					Points:           10,
					Penalty:          5,
					CorrectOptionIDs: []string{"o2"},
				},
				{
					ID:           "q2",
					Type:         domain.TypeTrueFalse,
					Prompt:       "The earth orbits the sun.",
					Options:      []domain.Option{{ID: "true", Text: "True"}, {ID: "false", Text: "False"}},
					TimeLimitSec: 15,
					Points:       5,
					CorrectOptionIDs: []string{
						"true",
					},
				},
			},
		},
	}
}
