//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"inventory-ledger/cmd/bootstrap"
	"inventory-ledger/cmd/bootstrap/components"
	"inventory-ledger/internal/infra/db"
	"inventory-ledger/internal/pkg/config"
	"inventory-ledger/tests/common/dbtest"

	"github.com/docker/go-connections/nat"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/fx"
)

const (
	pgUser     = "ledger"
	pgPassword = "ledgerpass"
	pgPort     = "5432/tcp"
	redisPort  = "6379/tcp"
)

const migrationFile = "migrations/001_initial_schema.sql"

// Containers are shared by every suite of the test process.
var (
	containersOnce sync.Once
	containersErr  error
	postgresC      testcontainers.Container
	redisC         testcontainers.Container
)

type endpoint struct {
	Host string
	Port nat.Port
}

func (e endpoint) Addr() string {
	return e.Host + ":" + e.Port.Port()
}

// Environment is the running ledger wired against real Postgres and Redis.
type Environment struct {
	Pool   *pgxpool.Pool
	Router *gin.Engine
	Config config.Config
}

func newEnvironment(t *testing.T) Environment {
	gin.SetMode(gin.TestMode)
	pg, rd := ensureContainers(t)

	dbConfig := createLedgerDatabase(t, pg)
	pool := connect(t, dbConfig)
	require.NoError(t, migrate(pool), "apply schema")
	require.NoError(t, dbtest.ResetDB(pool), "reset ledger tables")

	cfg := ledgerConfig(dbConfig, rd)
	router, app := startLedger(t, cfg)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Stop(ctx); err != nil {
			slog.Warn("ledger app did not stop cleanly", "error", err.Error())
		}
	})

	slog.Info("e2e ledger ready", "database", dbConfig.DBName, "postgres", pg.Addr(), "redis", rd.Addr())
	return Environment{Pool: pool, Router: router, Config: cfg}
}

func ensureContainers(t *testing.T) (endpoint, endpoint) {
	containersOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()

		postgresC, containersErr = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: postgresRequest(),
			Started:          true,
		})
		if containersErr != nil {
			return
		}
		redisC, containersErr = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{redisPort},
				WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
				Labels:       map[string]string{"purpose": "inventory-ledger-e2e"},
			},
			Started: true,
		})
	})
	require.NoError(t, containersErr, "start e2e containers")

	pg, err := mappedEndpoint(postgresC, pgPort)
	require.NoError(t, err, "resolve postgres endpoint")
	rd, err := mappedEndpoint(redisC, redisPort)
	require.NoError(t, err, "resolve redis endpoint")
	return pg, rd
}

// postgresRequest trades durability for speed: data lives on tmpfs and nothing is fsynced.
func postgresRequest() testcontainers.ContainerRequest {
	return testcontainers.ContainerRequest{
		Image:        "postgres:17",
		ExposedPorts: []string{pgPort},
		Env: map[string]string{
			"POSTGRES_USER":     pgUser,
			"POSTGRES_PASSWORD": pgPassword,
			"POSTGRES_DB":       "postgres",
		},
		Tmpfs: map[string]string{"/var/lib/postgresql/data": "rw,size=512m"},
		Cmd: []string{
			"postgres",
			"-c", "fsync=off",
			"-c", "full_page_writes=off",
			"-c", "synchronous_commit=off",
			"-c", "shared_buffers=256MB",
			"-c", "max_connections=200",
			"-c", "log_statement=none",
		},
		WaitingFor: wait.ForSQL(pgPort, "pgx", func(host string, port nat.Port) string {
			return adminDSN(endpoint{Host: host, Port: port})
		}).WithStartupTimeout(60 * time.Second),
		Labels: map[string]string{"purpose": "inventory-ledger-e2e"},
	}
}

func adminDSN(pg endpoint) string {
	return fmt.Sprintf("postgres://%s:%s@%s/postgres?sslmode=disable", pgUser, pgPassword, pg.Addr())
}

// createLedgerDatabase gives each suite its own database, dropped when the suite ends.
func createLedgerDatabase(t *testing.T, pg endpoint) config.DBConfig {
	name := "ledger_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	admin, err := pgxpool.New(ctx, adminDSN(pg))
	require.NoError(t, err, "connect as admin")
	defer admin.Close()

	// a freshly started server may still refuse CREATE DATABASE for a moment
	var createErr error
	for attempt := 0; attempt < 5; attempt++ {
		if _, createErr = admin.Exec(ctx, "CREATE DATABASE "+name); createErr == nil {
			break
		}
		slog.Warn("create database failed", "database", name, "attempt", attempt+1, "error", createErr.Error())
		time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
	}
	require.NoError(t, createErr, "create ledger database")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		admin, err := pgxpool.New(ctx, adminDSN(pg))
		if err != nil {
			slog.Warn("drop database skipped", "database", name, "error", err.Error())
			return
		}
		defer admin.Close()
		if _, err := admin.Exec(ctx, "DROP DATABASE IF EXISTS "+name+" WITH (FORCE)"); err != nil {
			slog.Warn("drop database failed", "database", name, "error", err.Error())
		}
	})

	return config.DBConfig{
		Host:     pg.Host,
		Port:     pg.Port.Port(),
		User:     pgUser,
		Password: pgPassword,
		DBName:   name,
		SSLMode:  "disable",
		TimeZone: "UTC",
		MaxConns: 20,
	}
}

func connect(t *testing.T, dbConfig config.DBConfig) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, closePool, err := db.Connect(ctx, dbConfig)
	require.NoError(t, err, "connect to ledger database")
	t.Cleanup(closePool)
	return pool
}

// migrate applies the schema, looking for it from the package directory upwards.
func migrate(pool *pgxpool.Pool) error {
	var (
		schema []byte
		err    error
	)
	path := migrationFile
	for range 4 {
		if schema, err = os.ReadFile(path); err == nil {
			break
		}
		path = filepath.Join("..", path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", migrationFile, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		return fmt.Errorf("apply %s: %w", path, err)
	}
	return nil
}

// ledgerConfig runs the postgres store with Redis coordination and the log sink; Kafka stays off.
func ledgerConfig(dbConfig config.DBConfig, rd endpoint) config.Config {
	cfg := config.NewTestConfig()
	cfg.DB = dbConfig
	cfg.Store.Driver = "postgres"
	cfg.Redis.Addr = rd.Addr()
	cfg.Expiry.LeaseKey = "e2e:" + dbConfig.DBName + ":expiry-sweep"
	return cfg
}

func startLedger(t *testing.T, cfg config.Config) (*gin.Engine, *fx.App) {
	var router *gin.Engine
	app := fx.New(
		fx.Module("e2e-config",
			fx.Supply(cfg),
			bootstrap.ConfigPartsModule,
		),
		fx.Provide(func() *gin.Engine { return gin.New() }),
		bootstrap.LoggerModule,
		bootstrap.ObservabilityModule,
		bootstrap.DBModule,
		bootstrap.MessagingModule,
		components.UseCaseModule,
		components.HandlerModule,
		bootstrap.WorkerModule,
		fx.Populate(&router),
		fx.NopLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx), "start ledger app")
	require.NotNil(t, router, "router was not built")
	return router, app
}

func mappedEndpoint(c testcontainers.Container, port string) (endpoint, error) {
	ctx := context.Background()
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	if err != nil {
		return endpoint{}, err
	}
	host, err := c.Host(ctx)
	if err != nil {
		return endpoint{}, err
	}
	return endpoint{Host: host, Port: mapped}, nil
}

// SharedSuite starts one ledger per suite. Each test works on its own items and orders: the
// event store caches aggregates, so tables are not truncated between tests.
type SharedSuite struct {
	suite.Suite
	Router *gin.Engine
	DB     *pgxpool.Pool
	Config config.Config
}

func (s *SharedSuite) SetupSuite() {
	env := newEnvironment(s.T())
	s.DB = env.Pool
	s.Router = env.Router
	s.Config = env.Config
}

// UniqueID returns an id unique to this run, e.g. "sku-3f2a9c1e".
func (s *SharedSuite) UniqueID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
