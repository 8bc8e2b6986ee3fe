//go:build integration

package persistence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/fincore/internal/domain/finance"
	"github.com/erp/fincore/internal/domain/integration"
	"github.com/erp/fincore/internal/domain/shared"
	"github.com/erp/fincore/internal/infrastructure/migration"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgres starts a throwaway PostgreSQL container and applies the
// embedded SQL migrations, so the tests run against the production schema.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("fincore_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(postgres.Open(dsn), nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	return db
}

func TestPostgres_InvoiceRepository(t *testing.T) {
	ctx := context.Background()
	db := setupPostgres(t)
	repo := NewGormInvoiceRepository(db)
	a, b := uuid.New(), uuid.New()

	inv := newTestInvoice(t, a, "INV-202405-00001", day(2024, 5, 2))
	require.NoError(t, repo.Create(ctx, principal(a), inv))

	t.Run("numeric columns keep exact amounts", func(t *testing.T) {
		found, err := repo.FindByID(ctx, principal(a), inv.ID)
		require.NoError(t, err)
		require.Len(t, found.Items, 2)
		assert.True(t, found.Total.Equal(decimal.NewFromInt(295)))
		assert.True(t, found.VATRate.Equal(decimal.NewFromInt(18)))
		assert.Nil(t, found.VerifyTotals())
	})

	t.Run("unique number per tenant", func(t *testing.T) {
		err := repo.Create(ctx, principal(a), newTestInvoice(t, a, "INV-202405-00001", day(2024, 5, 3)))
		assert.ErrorIs(t, err, shared.ErrConstraintViolation)

		require.NoError(t, repo.Create(ctx, principal(b), newTestInvoice(t, b, "INV-202405-00001", day(2024, 5, 3))))
	})

	t.Run("tenant isolation", func(t *testing.T) {
		_, err := repo.FindByID(ctx, principal(b), inv.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		w, err := finance.NewDateWindow(day(2024, 5, 1), day(2024, 5, 31))
		require.NoError(t, err)
		list, err := repo.FindInWindow(ctx, principal(a), finance.InvoiceQuery{Window: w})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, inv.ID, list[0].ID)
	})

	t.Run("concurrent updates of one version", func(t *testing.T) {
		stored, err := repo.FindByID(ctx, principal(a), inv.ID)
		require.NoError(t, err)

		const writers = 5
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				next := *stored
				next.Notes = "writer " + string(rune('A'+n))
				next.Version = stored.Version + 1
				errs <- repo.Update(ctx, principal(a), next)
			}(i)
		}
		wg.Wait()
		close(errs)

		var ok int
		for err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, shared.ErrConstraintViolation)
		}
		assert.Equal(t, 1, ok)
	})
}

func TestPostgres_SaleFactsAndSyncRecords(t *testing.T) {
	ctx := context.Background()
	db := setupPostgres(t)
	a := uuid.New()

	sales := NewGormSaleFactRepository(db)
	require.NoError(t, sales.Record(ctx, finance.SaleFact{TenantID: a, Total: decimal.RequireFromString("10.25"), OccurredAt: day(2024, 3, 1)}))
	require.NoError(t, sales.Record(ctx, finance.SaleFact{TenantID: a, Total: decimal.RequireFromString("4.75"), OccurredAt: day(2024, 4, 1)}))

	w, err := finance.NewDateWindow(day(2024, 3, 1), day(2024, 3, 31))
	require.NoError(t, err)
	facts, err := sales.FindInWindow(ctx, principal(a), w)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.True(t, facts[0].Total.Equal(decimal.RequireFromString("10.25")))

	tenantID, err := sales.FindAnySaleTenant(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, tenantID)

	records := NewGormSyncRecordRepository(db)
	localID := uuid.New()
	first, err := integration.NewSyncRecord(a, "LEDGER", integration.EntityTypeCustomer, localID)
	require.NoError(t, err)
	first.RecordSuccess("ext-1", 1, day(2024, 5, 1))
	require.NoError(t, records.Save(ctx, principal(a), first))

	second, err := integration.NewSyncRecord(a, "LEDGER", integration.EntityTypeCustomer, localID)
	require.NoError(t, err)
	second.RecordSuccess("ext-1", 2, day(2024, 5, 2))
	require.NoError(t, records.Save(ctx, principal(a), second))

	all, err := records.FindAll(ctx, principal(a))
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].LocalVersion)
}
