//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"photoshare/backend/internal/infrastructure/postgres"
)

func TestPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Postgres Store Integration Suite")
}

type testEnv struct {
	ctx       context.Context
	container testcontainers.Container
	db        *postgres.Database
	users     *postgres.UserRepository
	cards     *postgres.CardRepository
}

var env *testEnv

var _ = BeforeSuite(func() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("photoshare_test"),
		tcpostgres.WithUsername("photoshare"),
		tcpostgres.WithPassword("photoshare"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	Expect(err).NotTo(HaveOccurred())

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())

	migrator, err := postgres.NewMigrator(connStr)
	Expect(err).NotTo(HaveOccurred())
	Expect(migrator.Up()).To(Succeed())
	version, dirty, err := migrator.Version()
	Expect(err).NotTo(HaveOccurred())
	Expect(dirty).To(BeFalse())
	Expect(version).To(BeNumerically(">=", 1))
	Expect(migrator.Close()).To(Succeed())

	db, err := postgres.New(ctx, connStr)
	Expect(err).NotTo(HaveOccurred())

	env = &testEnv{
		ctx:       ctx,
		container: container,
		db:        db,
		users:     postgres.NewUserRepository(db.Pool),
		cards:     postgres.NewCardRepository(db.Pool),
	}
})

var _ = AfterSuite(func() {
	if env == nil {
		return
	}
	env.db.Close()
	_ = env.container.Terminate(env.ctx)
})

func truncate() {
	_, err := env.db.Pool.Exec(env.ctx, `TRUNCATE cards, users`)
	Expect(err).NotTo(HaveOccurred())
}
