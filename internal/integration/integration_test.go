package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"hack-arena/internal/app"
	"hack-arena/internal/domain"
	"hack-arena/internal/infra/memory"
	pgstore "hack-arena/internal/infra/postgres"
	pgmigrations "hack-arena/internal/infra/postgres/migrations"
	infraredis "hack-arena/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// collectEmitter records events in place of a websocket hub.
type collectEmitter struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *collectEmitter) ToConn(_ string, ev domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collectEmitter) ToRoom(_ string, ev domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collectEmitter) Subscribe(_, _ string)   {}
func (c *collectEmitter) Unsubscribe(_, _ string) {}
func (c *collectEmitter) CloseRoom(_ string)      {}

func (c *collectEmitter) last(eventType string) (domain.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if c.events[i].Type == eventType {
			return c.events[i], true
		}
	}
	return domain.Event{}, false
}

func TestGameFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuiz(t, ctx, pgURL, sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	quizzes := infraredis.NewQuizCache(redisClient, pgstore.NewQuizStore(pool), 5*time.Minute)
	rooms := infraredis.NewRoomStore(redisClient, 5*time.Minute)
	emitter := &collectEmitter{}
	engine := app.NewGameEngine(rooms, memory.NewConnRegistry(), quizzes, emitter, app.Settings{
		TickInterval: time.Hour,
	})

	pin, err := engine.CreateRoom(ctx, "quiz-1", "host")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := engine.JoinRoom(pin, "Alice", "red", "c1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := engine.JoinRoom(pin, "Bob", "blue", "c2"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := engine.StartGame(pin, "host", 5); err != nil {
		t.Fatalf("start: %v", err)
	}

	questionEv, ok := emitter.last(domain.EventNewQuestion)
	if !ok {
		t.Fatalf("expected a question to be dispatched")
	}
	question := questionEv.Payload.(domain.NewQuestionPayload)
	correct := -1
	for i, opt := range question.Question.Options {
		if opt == "4" {
			correct = i
		}
	}
	if correct == -1 {
		t.Fatalf("correct option missing from %v", question.Question.Options)
	}

	engine.SubmitAnswer(pin, "c2", correct, 0)

	resultEv, ok := emitter.last(domain.EventAnswerResult)
	if !ok {
		t.Fatalf("expected answer result")
	}
	result := resultEv.Payload.(domain.AnswerResultPayload)
	if !result.Correct || result.NewTotal != 2000 {
		t.Fatalf("expected correct answer worth 2000, got %+v", result)
	}

	scoresEv, ok := emitter.last(domain.EventScoreUpdate)
	if !ok {
		t.Fatalf("expected scoreboard update")
	}
	scores := scoresEv.Payload.(domain.ScoreUpdatePayload).Scores
	if len(scores) != 2 || scores[0].Nickname != "Bob" {
		t.Fatalf("expected bob leading, got %+v", scores)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "arena", "POSTGRES_PASSWORD": "arenapass", "POSTGRES_DB": "arenadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://arena:arenapass@%s:%s/arenadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuiz(t *testing.T, ctx context.Context, dsn string, quiz domain.Quiz) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO quizzes (id, data) VALUES (? , ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, quiz.ID, string(data)); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Integration Quiz",
		Questions: []domain.Question{
			{
				Text:          "What is 2 + 2?",
				Options:       []string{"3", "4", "5", "22"},
				CorrectAnswer: 1,
				TimeLimit:     20,
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
