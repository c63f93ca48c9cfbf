package handlers

import (
	"errors"
	"net/http"

	"github.com/Editorhacker/Invoice/internal/middleware"
	"github.com/Editorhacker/Invoice/internal/models"
	"github.com/Editorhacker/Invoice/internal/services/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InvoiceHandler struct {
	service *billing.Service
}

func NewInvoiceHandler(service *billing.Service) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

func (h *InvoiceHandler) List(c *gin.Context) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	invoices, err := h.service.List(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching invoices"})
		return
	}
	c.JSON(http.StatusOK, invoices)
}

func (h *InvoiceHandler) Create(c *gin.Context) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	var draft models.Invoice
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}
	invoice, err := h.service.Create(c.Request.Context(), claims.UserID, &draft)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, invoice)
	case errors.Is(err, billing.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error creating invoice"})
	}
}

func (h *InvoiceHandler) Get(c *gin.Context) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	id, ok := invoiceID(c)
	if !ok {
		return
	}
	invoice, err := h.service.Get(c.Request.Context(), claims.UserID, id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, invoice)
	case errors.Is(err, billing.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Invoice not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching invoice"})
	}
}

func (h *InvoiceHandler) Update(c *gin.Context) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	id, ok := invoiceID(c)
	if !ok {
		return
	}
	var patch models.Invoice
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid payload"})
		return
	}
	invoice, err := h.service.Update(c.Request.Context(), claims.UserID, id, &patch)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, invoice)
	case errors.Is(err, billing.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Invoice not found"})
	case errors.Is(err, billing.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating invoice"})
	}
}

func (h *InvoiceHandler) Delete(c *gin.Context) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	id, ok := invoiceID(c)
	if !ok {
		return
	}
	err := h.service.Delete(c.Request.Context(), claims.UserID, id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted"})
	case errors.Is(err, billing.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Invoice not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error deleting invoice"})
	}
}

// invoiceID parses the path id. A malformed id cannot name any invoice, so it
// reports the same NotFound the ownership filter would.
func invoiceID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Invoice not found"})
		return uuid.Nil, false
	}
	return id, true
}
