package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
	pgstore "live-quiz-service/internal/infra/postgres"
	pgmigrations "live-quiz-service/internal/infra/postgres/migrations"
	infraredis "live-quiz-service/internal/infra/redis"
)

func TestSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedCatalog(t, ctx, pgURL, sampleCatalog())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	catalogs := infraredis.NewCatalogRepository(redisClient, pgstore.NewCatalogLoader(pool), 5*time.Minute)
	store := pgstore.NewDurableStore(pool)

	scheduler := app.NewScheduler()
	factory := &app.SessionFactory{
		Catalogs: catalogs,
		Deps: app.SessionDeps{
			Scheduler:    scheduler,
			Store:        store,
			Logger:       zerolog.Nop(),
			ResultsDelay: 20 * time.Millisecond,
		},
	}
	registry := infraredis.NewRegistry(memory.NewRegistry(factory), redisClient, 5*time.Minute)
	scheduler.OnExpire(func(sessionID string, questionIndex int) {
		if session, ok := registry.Get(sessionID); ok {
			session.HandleExpiry(questionIndex)
		}
	})

	session, err := registry.Create(ctx, "s1", "quiz-1")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	alice, err := session.Join("", "Alice")
	if err != nil {
		t.Fatalf("join alice: %v", err)
	}
	bob, err := session.Join("", "Bob")
	if err != nil {
		t.Fatalf("join bob: %v", err)
	}
	if err := session.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	ack, err := session.SubmitAnswer(alice.ID, domain.Answer{Type: domain.TypeSingleChoice, OptionID: "o2"}, 1200)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !ack.IsCorrect || ack.TotalScore != 10 {
		t.Fatalf("expected correct with total 10, got %+v", ack)
	}

	// Close the question; Bob gets the synthesized penalty response.
	if err := session.EndQuestionEarly(); err != nil {
		t.Fatalf("end early: %v", err)
	}

	// Durable writes are asynchronous; wait for both response rows.
	waitForCount(t, ctx, pool, `SELECT count(*) FROM responses WHERE session_id='s1'`, 2)
	waitForCount(t, ctx, pool, `SELECT count(*) FROM score_deltas WHERE session_id='s1'`, 2)

	var bobPoints int
	err = pool.QueryRow(ctx,
		`SELECT points FROM responses WHERE session_id='s1' AND participant_id=$1`, bob.ID).Scan(&bobPoints)
	if err != nil {
		t.Fatalf("query bob response: %v", err)
	}
	if bobPoints != -5 {
		t.Fatalf("expected bob penalized -5, got %d", bobPoints)
	}
}

func waitForCount(t *testing.T, ctx context.Context, pool *pgxpool.Pool, query string, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		var got int
		if err := pool.QueryRow(ctx, query).Scan(&got); err == nil && got >= want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %q to reach %d", query, want)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
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
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
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

func seedCatalog(t *testing.T, ctx context.Context, dsn string, catalog domain.Catalog) {
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

	data, err := json.Marshal(catalog)
	if err != nil {
		t.Fatalf("marshal catalog: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO quizzes (id, data) VALUES (? , ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, catalog.QuizID, string(data)); err != nil {
		t.Fatalf("insert catalog: %v", err)
	}
}

func sampleCatalog() domain.Catalog {
	return domain.Catalog{
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
