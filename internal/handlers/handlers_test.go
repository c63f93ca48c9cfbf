package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Editorhacker/Invoice/internal/middleware"
	"github.com/Editorhacker/Invoice/internal/models"
	"github.com/Editorhacker/Invoice/internal/services/auth"
	"github.com/Editorhacker/Invoice/internal/services/billing"
	"github.com/Editorhacker/Invoice/internal/services/export"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memInvoiceStore struct {
	invoices map[uuid.UUID]models.Invoice
}

func (m *memInvoiceStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Invoice, error) {
	var out []models.Invoice
	for _, inv := range m.invoices {
		if inv.OwnerID == ownerID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].IssueDate.After(out[j].IssueDate.Time)
	})
	return out, nil
}

func (m *memInvoiceStore) GetByID(_ context.Context, ownerID, id uuid.UUID) (*models.Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok || inv.OwnerID != ownerID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := inv
	return &cp, nil
}

func (m *memInvoiceStore) Create(_ context.Context, invoice *models.Invoice) error {
	m.invoices[invoice.ID] = *invoice
	return nil
}

func (m *memInvoiceStore) Update(_ context.Context, invoice *models.Invoice) error {
	m.invoices[invoice.ID] = *invoice
	return nil
}

func (m *memInvoiceStore) Delete(_ context.Context, ownerID, id uuid.UUID) (bool, error) {
	inv, ok := m.invoices[id]
	if !ok || inv.OwnerID != ownerID {
		return false, nil
	}
	delete(m.invoices, id)
	return true, nil
}

type memUserStore struct {
	users map[uuid.UUID]models.User
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := u
	return &cp, nil
}

func (m *memUserStore) Create(_ context.Context, user *models.User) error {
	m.users[user.ID] = *user
	return nil
}

func (m *memUserStore) Update(_ context.Context, user *models.User) error {
	m.users[user.ID] = *user
	return nil
}

// newTestServer wires the handlers exactly like routes.RegisterRoutes, but
// over in-memory stores.
func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	log := zap.NewNop()

	tokens := auth.NewTokenManager([]byte("test-secret"), time.Hour)
	authService := auth.NewService(&memUserStore{users: map[uuid.UUID]models.User{}}, tokens, log)
	billingService := billing.NewService(&memInvoiceStore{invoices: map[uuid.UUID]models.Invoice{}}, log)
	exporter := export.NewExporter(log)
	renderer := export.NewRenderer()

	authHandler := NewAuthHandler(authService)
	invoiceHandler := NewInvoiceHandler(billingService)
	exportHandler := NewExportHandler(billingService, exporter, renderer)

	r := gin.New()
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)

	api := r.Group("", middleware.RequireSession(tokens))
	api.POST("/logout", authHandler.Logout)
	api.GET("/me", authHandler.Me)
	api.PUT("/profile", authHandler.UpdateProfile)
	invoices := api.Group("/invoices")
	invoices.GET("", invoiceHandler.List)
	invoices.POST("", invoiceHandler.Create)
	invoices.GET("/:id", invoiceHandler.Get)
	invoices.PUT("/:id", invoiceHandler.Update)
	invoices.DELETE("/:id", invoiceHandler.Delete)
	invoices.GET("/:id/pdf", exportHandler.PDF)
	invoices.GET("/:id/preview", exportHandler.Preview)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signup(t *testing.T, r *gin.Engine, name, email, password string) *http.Cookie {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/register", gin.H{"name": name, "email": email, "password": password})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/login", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func invoicePayload() gin.H {
	return gin.H{
		"invoiceNumber": "INV-001",
		"from":          gin.H{"name": "Acme", "email": "a@acme.test", "address": "1 Main St"},
		"to":            gin.H{"name": "Globex", "email": "b@globex.test", "address": "9 Oak Ave"},
		"items": []gin.H{
			{"id": "li-1", "description": "Design work", "quantity": 2, "rate": 50.0},
			{"id": "li-2", "description": "Hosting", "quantity": 1, "rate": 25.5},
		},
		"taxRate": 10,
		"amount":  5, // wrong on purpose; server recomputes
		"status":  "Pending",
	}
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(r, http.MethodGet, "/invoices", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "invoiceNumber")

	w = doJSON(r, http.MethodGet, "/invoices/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	r := newTestServer(t)

	w := doJSON(r, http.MethodPost, "/register", gin.H{"name": "Ada", "email": "ada@example.com", "password": "s3cret99"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, http.MethodPost, "/register", gin.H{"name": "Ada", "email": "ada@example.com", "password": "s3cret99"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceCRUDFlow(t *testing.T) {
	r := newTestServer(t)
	cookie := signup(t, r, "Ada", "ada@example.com", "s3cret99")

	// Create recomputes the amount server-side.
	w := doJSON(r, http.MethodPost, "/invoices", invoicePayload(), cookie)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Invoice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 138.05, created.Amount)
	assert.Equal(t, "INV-001", created.InvoiceNumber)

	// List.
	w = doJSON(r, http.MethodGet, "/invoices", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Invoice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	// Update.
	patch := invoicePayload()
	patch["status"] = "Paid"
	w = doJSON(r, http.MethodPut, "/invoices/"+created.ID.String(), patch, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.Invoice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, models.StatusPaid, updated.Status)

	// Delete is idempotence-observable.
	w = doJSON(r, http.MethodDelete, "/invoices/"+created.ID.String(), nil, cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodDelete, "/invoices/"+created.ID.String(), nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCrossOwnerAccessLooksLikeNotFound(t *testing.T) {
	r := newTestServer(t)
	ada := signup(t, r, "Ada", "ada@example.com", "s3cret99")
	eve := signup(t, r, "Eve", "eve@example.com", "s3cret99")

	w := doJSON(r, http.MethodPost, "/invoices", invoicePayload(), ada)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Invoice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(r, http.MethodGet, "/invoices/"+created.ID.String(), nil, eve)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "INV-001")

	w = doJSON(r, http.MethodDelete, "/invoices/"+created.ID.String(), nil, eve)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMalformedInvoiceIDIsNotFound(t *testing.T) {
	r := newTestServer(t)
	cookie := signup(t, r, "Ada", "ada@example.com", "s3cret99")

	w := doJSON(r, http.MethodGet, "/invoices/not-a-uuid", nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileUpdate(t *testing.T) {
	r := newTestServer(t)
	cookie := signup(t, r, "Ada", "ada@example.com", "s3cret99")

	// Wrong current password.
	w := doJSON(r, http.MethodPut, "/profile", gin.H{
		"name": "Ada L.", "currentPassword": "nope", "newPassword": "newpass77",
	}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Name-only update.
	w = doJSON(r, http.MethodPut, "/profile", gin.H{"name": "Ada Lovelace"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ada Lovelace")
}

func TestExportEndpoints(t *testing.T) {
	r := newTestServer(t)
	cookie := signup(t, r, "Ada", "ada@example.com", "s3cret99")

	w := doJSON(r, http.MethodPost, "/invoices", invoicePayload(), cookie)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Invoice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(r, http.MethodGet, "/invoices/"+created.ID.String()+"/pdf", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="invoice-INV-001.pdf"`)
	assert.Equal(t, "%PDF", w.Body.String()[:4])

	w = doJSON(r, http.MethodGet, "/invoices/"+created.ID.String()+"/preview", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "INV-001")

	w = doJSON(r, http.MethodGet, "/invoices/"+uuid.NewString()+"/pdf", nil, cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
