package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang-jwt/jwt/v5"
	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vncsmyrnk/busvote/internal/adapters/auth/jwtauth"
	handler "github.com/vncsmyrnk/busvote/internal/adapters/handler/http"
	"github.com/vncsmyrnk/busvote/internal/adapters/notify"
	"github.com/vncsmyrnk/busvote/internal/adapters/notify/telegram"
	repository "github.com/vncsmyrnk/busvote/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/busvote/internal/core/domain"
	"github.com/vncsmyrnk/busvote/internal/core/services"
	"github.com/vncsmyrnk/busvote/internal/core/tally"
	"github.com/vncsmyrnk/busvote/internal/guard"
	"github.com/vncsmyrnk/busvote/internal/logger"
)

const jwtSecret = "test-secret"

type TestApp struct {
	DB       *sql.DB
	Server   *httptest.Server
	Client   *http.Client
	Telegram *fakeTelegram

	container testcontainers.Container
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	dbName := "testdb"
	user := "user"
	password := "password"

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

// applyMigrations runs the embedded migrations the same way cmd/migrations does.
func applyMigrations(db *sql.DB) error {
	m, err := repository.NewMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// setupTestApp wires the real repositories and services against a fresh
// database, with Telegram replaced by a local fake.
func setupTestApp(t *testing.T) *TestApp {
	t.Helper()
	ctx := context.Background()

	container, connStr, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	require.NoError(t, applyMigrations(db))

	tg := newFakeTelegram()
	log := logger.Discard()

	userService := services.NewUserService(repository.NewUserRepository(db))
	votingService := services.NewVotingService(
		repository.NewTopicRepository(db),
		repository.NewVoteRepository(db),
		repository.NewBusRepository(db),
		notify.NewFanout(telegram.NewNotifier(tg.server.URL, "bot-token", "driver-chat", tg.server.Client())),
		notify.NewMemoryLedger(),
		services.VotingConfig{Threshold: 1, Weights: tally.DefaultWeights, NotificationTTL: time.Hour},
		log,
	)

	router := handler.NewHandler(handler.RouterConfig{
		Auth:           handler.NewAuthenticator(jwtauth.NewVerifier(jwtSecret), userService, guard.DefaultGrace, log),
		Users:          handler.NewUserHandler(userService),
		Voting:         handler.NewVotingHandler(votingService),
		Stream:         handler.NewStreamHandler(votingService, time.Minute, nil, nil, log),
		AllowedOrigins: []string{"http://localhost:5173"},
		Log:            log,
	})
	server := httptest.NewServer(router)

	client := server.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &TestApp{
		DB:        db,
		Server:    server,
		Client:    client,
		Telegram:  tg,
		container: container,
	}
}

func (a *TestApp) Teardown(t *testing.T) {
	t.Helper()
	a.Server.Close()
	a.Telegram.server.Close()
	a.DB.Close()
	require.NoError(t, testcontainers.TerminateContainer(a.container))
}

func createProfile(t *testing.T, db *sql.DB, role domain.Role, region string) *domain.User {
	t.Helper()

	user := &domain.User{
		ID:     uuid.New(),
		Email:  gofakeit.Email(),
		Name:   gofakeit.Name(),
		Role:   role,
		Region: region,
	}
	var regionArg any
	if region != "" {
		regionArg = region
	}
	_, err := db.Exec("INSERT INTO profiles (id, email, name, role, region) VALUES ($1, $2, $3, $4, $5)",
		user.ID, user.Email, user.Name, user.Role, regionArg)
	require.NoError(t, err)
	return user
}

func createToken(t *testing.T, user *domain.User, ttl time.Duration) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  string(user.Role),
		"exp":   time.Now().Add(ttl).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signedToken
}

func createBus(t *testing.T, db *sql.DB) *domain.Bus {
	t.Helper()

	bus := &domain.Bus{
		ID:       uuid.New(),
		Number:   gofakeit.Numerify("KA-##-F-####"),
		Name:     gofakeit.Company(),
		Capacity: gofakeit.IntRange(30, 60),
		Route:    gofakeit.Street(),
		Status:   "active",
	}
	_, err := db.Exec("INSERT INTO buses (id, bus_number, name, capacity, route, status) VALUES ($1, $2, $3, $4, $5, $6)",
		bus.ID, bus.Number, bus.Name, bus.Capacity, bus.Route, bus.Status)
	require.NoError(t, err)
	return bus
}

// fakeTelegram records sendMessage calls.
type fakeTelegram struct {
	server *httptest.Server

	mu       sync.Mutex
	messages []string
}

func newFakeTelegram() *fakeTelegram {
	f := &fakeTelegram{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		f.messages = append(f.messages, body.Text)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	return f
}

func (f *fakeTelegram) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}
