//go:build unit

package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"inventory-ledger/internal/domain/event"
	"inventory-ledger/internal/domain/stock"
	"inventory-ledger/internal/infra"
	"inventory-ledger/internal/pkg/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// db.DBTX implementation recording every statement
type MockDBTX struct {
	mock.Mock
}

func (m *MockDBTX) Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error) {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(pgconn.CommandTag), mockArgs.Error(1)
}

func (m *MockDBTX) Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error) {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(pgx.Rows), mockArgs.Error(1)
}

func (m *MockDBTX) QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(pgx.Row)
}

type fakeRow func(dest ...any) error

func (f fakeRow) Scan(dest ...any) error { return f(dest...) }

func noRows() pgx.Row {
	return fakeRow(func(...any) error { return pgx.ErrNoRows })
}

func headAt(seq int64) pgx.Row {
	return fakeRow(func(dest ...any) error {
		*dest[0].(*int64) = seq
		return nil
	})
}

var uniqueViolation = &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStockState() stock.State {
	return stock.State{
		WarehouseID:       "main",
		ItemID:            "sku-1",
		OnHand:            10,
		Reserved:          2,
		LowStockThreshold: 3,
		Status:            stock.StatusInStock,
		Version:           5,
		UpdatedAt:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStockItemSave(t *testing.T) {
	tests := []struct {
		name            string
		expectedVersion int64
		tag             pgconn.CommandTag
		execErr         error
		wantKind        infra.RepositoryErrorKind
		wantSentinel    error
	}{
		{
			name:            "insert",
			expectedVersion: 0,
			tag:             pgconn.NewCommandTag("INSERT 0 1"),
		},
		{
			name:            "update at expected version",
			expectedVersion: 4,
			tag:             pgconn.NewCommandTag("UPDATE 1"),
		},
		{
			name:            "insert racing another creator",
			expectedVersion: 0,
			tag:             pgconn.CommandTag{},
			execErr:         uniqueViolation,
			wantKind:        infra.KindVersionConflict,
			wantSentinel:    errs.ErrVersionConflict,
		},
		{
			name:            "row moved past expected version",
			expectedVersion: 4,
			tag:             pgconn.NewCommandTag("UPDATE 0"),
			wantKind:        infra.KindVersionConflict,
			wantSentinel:    errs.ErrVersionConflict,
		},
		{
			name:            "database error",
			expectedVersion: 4,
			tag:             pgconn.CommandTag{},
			execErr:         assert.AnError,
			wantKind:        infra.KindDBFailure,
			wantSentinel:    errs.ErrDatabaseOperationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := new(MockDBTX)
			mockDB.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(tt.tag, tt.execErr).Once()

			repo := NewStockItemRepository(mockDB, discardLogger())
			err := repo.Save(context.Background(), testStockState(), tt.expectedVersion)

			if tt.wantKind == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, infra.IsKind(err, tt.wantKind))
				assert.True(t, errs.Is(err, tt.wantSentinel))
			}
			mockDB.AssertExpectations(t)
		})
	}
}

func TestStockItemGetNotFound(t *testing.T) {
	mockDB := new(MockDBTX)
	mockDB.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(noRows()).Once()

	repo := NewStockItemRepository(mockDB, discardLogger())
	rm, err := repo.Get(context.Background(), stock.Key{WarehouseID: "main", ItemID: "nope"})

	assert.Nil(t, rm)
	assert.ErrorIs(t, err, stock.ErrItemNotFound)
	assert.True(t, errs.Is(err, errs.ErrNotFound))
}

func TestEventAppend(t *testing.T) {
	id := event.StockItemID("main", "sku-1")
	records := []event.Record{{AggregateID: id, Sequence: 4}, {AggregateID: id, Sequence: 5}}

	t.Run("appends after the expected head", func(t *testing.T) {
		mockDB := new(MockDBTX)
		mockDB.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(headAt(3)).Once()
		mockDB.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.NewCommandTag("INSERT 0 1"), nil).Twice()

		err := NewEventRepository(mockDB, discardLogger()).Append(context.Background(), id, 3, records)

		assert.NoError(t, err)
		mockDB.AssertExpectations(t)
	})

	t.Run("stale head is a version conflict and writes nothing", func(t *testing.T) {
		mockDB := new(MockDBTX)
		mockDB.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(headAt(4)).Once()

		err := NewEventRepository(mockDB, discardLogger()).Append(context.Background(), id, 3, records)

		assert.True(t, errs.Is(err, errs.ErrVersionConflict))
		mockDB.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("a concurrent writer taking the sequence is a version conflict", func(t *testing.T) {
		mockDB := new(MockDBTX)
		mockDB.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(headAt(3)).Once()
		mockDB.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.CommandTag{}, uniqueViolation).Once()

		err := NewEventRepository(mockDB, discardLogger()).Append(context.Background(), id, 3, records)

		assert.True(t, infra.IsKind(err, infra.KindVersionConflict))
		mockDB.AssertExpectations(t)
	})
}

func TestHealthGet(t *testing.T) {
	id := event.StockItemID("main", "sku-1")

	t.Run("healthy aggregates have no row", func(t *testing.T) {
		mockDB := new(MockDBTX)
		mockDB.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(noRows()).Once()

		h, err := NewHealthRepository(mockDB, discardLogger()).Get(context.Background(), id)

		assert.NoError(t, err)
		assert.Nil(t, h)
	})

	t.Run("degraded aggregates carry the reason", func(t *testing.T) {
		degradedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		mockDB := new(MockDBTX)
		mockDB.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(fakeRow(func(dest ...any) error {
			*dest[0].(*string) = "sequence gap"
			*dest[1].(*time.Time) = degradedAt
			return nil
		})).Once()

		h, err := NewHealthRepository(mockDB, discardLogger()).Get(context.Background(), id)

		require.NoError(t, err)
		require.NotNil(t, h)
		assert.Equal(t, "sequence gap", h.Reason)
		assert.Equal(t, degradedAt, h.DegradedAt)
		assert.Equal(t, id, h.AggregateID)
	})
}

func TestSnapshotGetMissing(t *testing.T) {
	mockDB := new(MockDBTX)
	mockDB.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(noRows()).Once()

	s, err := NewSnapshotRepository(mockDB, discardLogger()).Get(context.Background(), event.StockItemID("main", "sku-1"))

	assert.NoError(t, err)
	assert.Nil(t, s)
}
