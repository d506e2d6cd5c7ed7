package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hack-arena/internal/app"
	"hack-arena/internal/config"
	"hack-arena/internal/domain"
	"hack-arena/internal/infra/memory"
	pgstore "hack-arena/internal/infra/postgres"
	redisstore "hack-arena/internal/infra/redis"
	transport "hack-arena/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the arena server",
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
	roomTTL := config.TTLDuration(cfg.Redis.TTL, 4*time.Hour)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var backing app.QuizStore = memory.NewQuizStore(sampleQuizzes())
	if pool != nil {
		backing = pgstore.NewQuizStore(pool)
	}

	var quizzes app.QuizStore
	if redisClient != nil {
		quizzes = redisstore.NewQuizCache(redisClient, backing, quizTTL)
	} else {
		quizzes = memory.NewQuizCache(backing, quizTTL)
	}

	var rooms app.RoomRepository = memory.NewRoomStore()
	if redisClient != nil {
		rooms = redisstore.NewRoomStore(redisClient, roomTTL)
	}

	hub := transport.NewHub()
	engine := app.NewGameEngine(rooms, memory.NewConnRegistry(), quizzes, hub, app.Settings{
		RewardEvery:       cfg.Game.RewardEvery,
		SpeedupEvery:      cfg.Game.SpeedupEvery,
		SpeedStep:         cfg.Game.SpeedStep,
		MinigameMaxPoints: cfg.Game.MinigameMaxPoints,
	})
	quizService := app.NewQuizService(quizzes, cfg.AdminKeys)

	router := transport.NewRouter(
		transport.NewAPIHandler(quizService),
		transport.NewWSHandler(engine, hub),
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting hack-arena on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds the in-memory store when no postgres is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:          "quiz-1",
			Title:       "General Knowledge",
			Description: "A quick warm-up round",
			Questions: []domain.Question{
				{
					Text:          "What is 2 + 2?",
					Options:       []string{"3", "4", "5", "22"},
					CorrectAnswer: 1,
					TimeLimit:     20,
				},
				{
					Text:          "Which planet is closest to the sun?",
					Options:       []string{"Venus", "Earth", "Mercury", "Mars"},
					CorrectAnswer: 2,
					TimeLimit:     20,
				},
				{
					Text:          "How many bits are in a byte?",
					Options:       []string{"4", "8", "16", "32"},
					CorrectAnswer: 1,
					TimeLimit:     15,
				},
			},
			CreatedAt: time.Now(),
		},
	}
}
