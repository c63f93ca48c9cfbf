// Package billing owns invoice CRUD and the totals calculation. Every
// operation takes the acting user's id explicitly; there is no ambient
// session state below the HTTP layer.
package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/Editorhacker/Invoice/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound covers both a missing invoice and one owned by somebody
	// else. Keeping the two indistinguishable prevents ownership probing.
	ErrNotFound = errors.New("invoice not found")

	ErrInvalidStatus = errors.New("invalid invoice status")
)

// InvoiceStore is the persistence surface the service needs, implemented by
// repository.InvoiceRepository.
type InvoiceStore interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Invoice, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Invoice, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	Update(ctx context.Context, invoice *models.Invoice) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
}

type Service struct {
	store InvoiceStore
	log   *zap.Logger
}

func NewService(store InvoiceStore, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

// List returns all invoices owned by ownerID, newest issue date first.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]models.Invoice, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.store.GetByID(ctx, ownerID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return invoice, err
}

// Create persists a draft for ownerID. The server assigns the id, stamps the
// owner, fills defaults, and recomputes the amount from the line items; any
// client-supplied amount is treated as a display hint and discarded.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, draft *models.Invoice) (*models.Invoice, error) {
	if err := applyDefaults(draft); err != nil {
		return nil, err
	}
	draft.ID = uuid.New()
	draft.OwnerID = ownerID
	draft.Amount = Round2(Calculate(draft.Items, draft.TaxRate).Total)

	if err := s.store.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	s.log.Info("invoice created",
		zap.String("invoice_id", draft.ID.String()),
		zap.String("owner_id", ownerID.String()))
	return draft, nil
}

// Update is a full-document replace behind the owner filter. Server-assigned
// fields (id, ownerId, createdAt) survive from the stored document; amount is
// recomputed from the patch's items and tax rate.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, patch *models.Invoice) (*models.Invoice, error) {
	existing, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := applyDefaults(patch); err != nil {
		return nil, err
	}

	patch.ID = existing.ID
	patch.OwnerID = existing.OwnerID
	patch.CreatedAt = existing.CreatedAt
	patch.Amount = Round2(Calculate(patch.Items, patch.TaxRate).Total)

	if err := s.store.Update(ctx, patch); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	return patch, nil
}

// Delete removes an owned invoice. A second delete of the same id reports
// ErrNotFound.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	deleted, err := s.store.Delete(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func applyDefaults(inv *models.Invoice) error {
	if inv.Status == "" {
		inv.Status = models.StatusPending
	}
	if !models.ValidStatus(inv.Status) {
		return ErrInvalidStatus
	}
	if inv.Currency == "" {
		inv.Currency = models.DefaultCurrency
	}
	if inv.AccentColor == "" {
		inv.AccentColor = models.DefaultAccentColor
	}
	if inv.IssueDate.IsZero() {
		inv.IssueDate = models.Today()
	}
	if inv.DueDate.IsZero() {
		inv.DueDate = inv.IssueDate.AddDays(30)
	}
	return nil
}
