package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Invoice statuses are purely user-set; there is no automatic transition.
const (
	StatusPending = "Pending"
	StatusPaid    = "Paid"
	StatusOverdue = "Overdue"
)

const (
	DefaultCurrency    = "USD"
	DefaultAccentColor = "#92487A"
)

// CurrencySymbols maps supported ISO-ish codes to their display symbol.
var CurrencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CAD": "$",
	"AUD": "$",
	"INR": "₹",
}

// SymbolFor returns the display symbol for a currency code, falling back to
// the code itself for anything unknown.
func SymbolFor(code string) string {
	if s, ok := CurrencySymbols[code]; ok {
		return s
	}
	return code
}

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusPaid || s == StatusOverdue
}

// Party is a billing endpoint on an invoice (the from/to entity).
type Party struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// LineItem is one billable row. The item id is client-generated and only
// required to be unique within its invoice.
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
}

// UnmarshalJSON also accepts the legacy flat shape {name, price} that older
// clients still send, normalizing it on read instead of storing both forms.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string   `json:"id"`
		Description string   `json:"description"`
		Name        string   `json:"name"`
		Quantity    float64  `json:"quantity"`
		Rate        *float64 `json:"rate"`
		Price       *float64 `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	li.ID = raw.ID
	li.Description = raw.Description
	if li.Description == "" {
		li.Description = raw.Name
	}
	li.Quantity = raw.Quantity
	switch {
	case raw.Rate != nil:
		li.Rate = *raw.Rate
	case raw.Price != nil:
		li.Rate = *raw.Price
	}
	return nil
}

// Invoice is the root entity, owned by exactly one user. Every read and write
// must be filtered by (id, owner_id); that pair is the whole authorization
// model.
type Invoice struct {
	ID            uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID       uuid.UUID                     `gorm:"type:uuid;index" json:"ownerId"`
	InvoiceNumber string                        `json:"invoiceNumber"`
	From          Party                         `gorm:"embedded;embeddedPrefix:from_" json:"from"`
	To            Party                         `gorm:"embedded;embeddedPrefix:to_" json:"to"`
	Items         datatypes.JSONSlice[LineItem] `json:"items"`
	TaxRate       float64                       `json:"taxRate"`
	Amount        float64                       `gorm:"index" json:"amount"`
	Status        string                        `gorm:"index" json:"status"`
	IssueDate     Date                          `json:"issueDate"`
	DueDate       Date                          `json:"dueDate"`
	Currency      string                        `json:"currency"`
	Notes         string                        `json:"notes"`
	Logo          string                        `json:"logo"`
	AccentColor   string                        `json:"accentColor"`
	CreatedAt     time.Time                     `json:"createdAt"`
	UpdatedAt     time.Time                     `json:"updatedAt"`
}
