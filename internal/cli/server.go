package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"lms-challenge-service/internal/app"
	"lms-challenge-service/internal/config"
	"lms-challenge-service/internal/domain"
	"lms-challenge-service/internal/infra/memory"
	pgstore "lms-challenge-service/internal/infra/postgres"
	rediscache "lms-challenge-service/internal/infra/redis"
	"lms-challenge-service/internal/ranking"
	transport "lms-challenge-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the leaderboard and challenge server",
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
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		loader   memory.QuestionLoader
		attempts app.AttemptRepository
	)
	if pool != nil {
		loader = pgstore.NewQuestionLoader(pool)
		attempts = pgstore.NewAttemptRepository(pool)
	} else {
		log.Printf("postgres not configured, serving the sample course from memory")
		loader = memory.NewStaticQuestionLoader(sampleQuestions())
		store := memory.NewAttemptStore()
		store.AddChapter("course-1", "chapter-1", true)
		attempts = store
	}

	questionTTL := config.TTLDuration(cfg.Challenge.QuestionTTL, 10*time.Minute)
	boardTTL := config.TTLDuration(cfg.Ranking.CacheTTL, 30*time.Second)
	var (
		questions app.QuestionRepository
		boards    app.LeaderboardCache
		runs      app.RunRepository
	)
	if redisClient != nil {
		questions = rediscache.NewQuestionRepository(redisClient, loader, questionTTL)
		boards = rediscache.NewLeaderboardCache(redisClient, boardTTL)
		runs = rediscache.NewRunStore(redisClient, redisTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL)
		boards = memory.NewLeaderboardCache(boardTTL)
		runs = memory.NewRunStore()
	}

	rankingCfg := cfg.RankingConfig()
	log.Printf("ranking: mastery %d, perfect %d, policy %s", rankingCfg.MasteryThreshold, rankingCfg.PerfectScore, rankingCfg.Policy)
	leaderboards := app.NewLeaderboardService(attempts, boards, ranking.New(rankingCfg))
	challenges := app.NewChallengeService(runs, questions, attempts, leaderboards)

	janitor, err := startJanitor(ctx, challenges, cfg)
	if err != nil {
		return err
	}
	defer janitor.Stop()

	feedbackDelay := config.TTLDuration(cfg.Challenge.FeedbackDelay, 1500*time.Millisecond)
	challengeHandler := transport.NewChallengeHandler(challenges, feedbackDelay, time.Second)
	leaderboardHandler := transport.NewLeaderboardHandler(leaderboards)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/leaderboard", leaderboardHandler.ServeLeaderboard)
	mux.HandleFunc("/api/leaderboard/me", leaderboardHandler.ServeStanding)
	mux.HandleFunc("/api/powers", transport.ServePowers)
	mux.HandleFunc("/ws/challenge", challengeHandler.ServeWS)
	mux.HandleFunc("/ws/leaderboard", leaderboardHandler.ServeWS)

	// No WriteTimeout: websocket connections stay open for a whole challenge.
	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting challenge service on :%s", finalPort)
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

// startJanitor schedules eviction of runs whose player went quiet.
func startJanitor(ctx context.Context, challenges *app.ChallengeService, cfg config.Config) (*cron.Cron, error) {
	schedule := cfg.Challenge.SweepSchedule
	if schedule == "" {
		schedule = "@every 1m"
	}
	idle := config.TTLDuration(cfg.Challenge.IdleTimeout, 15*time.Minute)

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		challenges.EvictIdle(ctx, idle)
	}); err != nil {
		return nil, fmt.Errorf("sweep schedule %q: %w", schedule, err)
	}
	c.Start()
	return c, nil
}

// sampleQuestions backs the demo chapter when no database is configured.
func sampleQuestions() map[string][]domain.Question {
	qs := []domain.Question{
		{ID: "q1", Prompt: "What is 2 + 2?", Answer: "4", Hint: "Count on your fingers.", Options: []string{"3", "4", "5", "22"}},
		{ID: "q2", Prompt: "Which keyword starts a goroutine?", Answer: "go", Hint: "It is also the language name.", Options: []string{"async", "go", "spawn", "thread"}},
		{ID: "q3", Prompt: "What does HTTP status 404 mean?", Answer: "Not Found", Hint: "The page is missing.", Options: []string{"Forbidden", "Not Found", "Bad Gateway", "Created"}},
		{ID: "q4", Prompt: "Which data structure is FIFO?", Answer: "Queue", Hint: "Think of a line at a shop.", Options: []string{"Stack", "Queue", "Tree", "Heap"}},
		{ID: "q5", Prompt: "How many bits are in a byte?", Answer: "8", Hint: "Two nibbles.", Options: []string{"4", "8", "16", "32"}},
	}
	return map[string][]domain.Question{"chapter-1": qs}
}
