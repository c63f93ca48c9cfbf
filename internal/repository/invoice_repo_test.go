package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestListByOwner_ScopesAndOrders(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)
	owner := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "owner_id", "invoice_number"}).
		AddRow(uuid.New().String(), owner.String(), "INV-002").
		AddRow(uuid.New().String(), owner.String(), "INV-001")

	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE owner_id = .+ ORDER BY issue_date DESC`).
		WithArgs(owner).
		WillReturnRows(rows)

	invoices, err := repo.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, "INV-002", invoices[0].InvoiceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_FiltersByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)
	owner, id := uuid.New(), uuid.New()

	rows := sqlmock.NewRows([]string{"id", "owner_id", "invoice_number"}).
		AddRow(id.String(), owner.String(), "INV-001")

	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = .+ AND owner_id = .+`).
		WillReturnRows(rows)

	invoice, err := repo.GetByID(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, id, invoice.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE id = .+ AND owner_id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), uuid.New(), uuid.New())
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_ReportsRowsAffected(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvoiceRepository(db)
	owner, id := uuid.New(), uuid.New()

	mock.ExpectExec(`DELETE FROM "invoices" WHERE id = .+ AND owner_id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.Delete(context.Background(), owner, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Deleting again touches no rows.
	mock.ExpectExec(`DELETE FROM "invoices" WHERE id = .+ AND owner_id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err = repo.Delete(context.Background(), owner, id)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
