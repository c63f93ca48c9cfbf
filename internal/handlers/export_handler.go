package handlers

import (
	"errors"
	"net/http"

	"github.com/Editorhacker/Invoice/internal/middleware"
	"github.com/Editorhacker/Invoice/internal/services/billing"
	"github.com/Editorhacker/Invoice/internal/services/export"
	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	invoices *billing.Service
	exporter *export.Exporter
	renderer *export.Renderer
}

func NewExportHandler(invoices *billing.Service, exporter *export.Exporter, renderer *export.Renderer) *ExportHandler {
	return &ExportHandler{invoices: invoices, exporter: exporter, renderer: renderer}
}

// PDF streams the invoice as a downloadable PDF attachment.
func (h *ExportHandler) PDF(c *gin.Context) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	id, ok := invoiceID(c)
	if !ok {
		return
	}
	invoice, err := h.invoices.Get(c.Request.Context(), claims.UserID, id)
	if errors.Is(err, billing.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Invoice not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching invoice"})
		return
	}

	result, err := h.exporter.Export(invoice)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", result.PDF)
}

// Preview renders the self-contained HTML view the PDF is built to match.
func (h *ExportHandler) Preview(c *gin.Context) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	id, ok := invoiceID(c)
	if !ok {
		return
	}
	invoice, err := h.invoices.Get(c.Request.Context(), claims.UserID, id)
	if errors.Is(err, billing.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Invoice not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching invoice"})
		return
	}

	html, err := h.renderer.RenderHTML(invoice)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error rendering invoice"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
