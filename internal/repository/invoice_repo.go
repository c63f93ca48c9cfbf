package repository

import (
	"context"

	"github.com/Editorhacker/Invoice/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceRepository persists invoices. Every query is scoped by owner_id; an
// invoice owned by someone else is indistinguishable from a missing one.
type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// ListByOwner returns all invoices for one owner, newest issue date first.
func (r *InvoiceRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("issue_date DESC").
		Find(&invoices).Error
	return invoices, err
}

// GetByID fetches a single invoice by (id, owner_id).
func (r *InvoiceRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

// Update replaces the full document. The caller guarantees id/owner_id are the
// stored ones.
func (r *InvoiceRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

// Delete removes an owner's invoice and reports whether a row was deleted.
func (r *InvoiceRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Invoice{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
