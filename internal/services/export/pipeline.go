// Package export turns an invoice into a downloadable PDF that matches the
// HTML preview. The pipeline runs in stages: prepare an off-screen surface,
// render the invoice layout, rasterize the optional logo, fit everything to
// the page, and hand the bytes back for delivery. The surface is torn down
// unconditionally, failure or not.
package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/Editorhacker/Invoice/internal/models"
	"github.com/Editorhacker/Invoice/internal/services/billing"
)

// ErrExportFailed is the only error callers see. The underlying cause is
// logged, never surfaced; no partial output escapes a failed export.
var ErrExportFailed = errors.New("invoice export failed, please retry")

const (
	// The layout is designed against a fixed 800-unit-wide surface, same
	// geometry as the HTML preview, then scaled to the printable page width.
	nominalWidth = 800.0

	pageWidthMM  = 210.0 // A4 portrait
	pageMarginMM = 12.0

	// Logo bitmaps are upsampled 2x before embedding for print sharpness.
	oversample  = 2
	logoPxWidth = 160
	logoUnitsW  = 160.0
	logoUnitsH  = 80.0
)

// unit converts nominal layout units to millimeters on the page.
const unit = (pageWidthMM - 2*pageMarginMM) / nominalWidth

type Result struct {
	PDF      []byte
	Filename string
}

type Exporter struct {
	log     *zap.Logger
	workDir string // base directory for per-export surfaces
}

func NewExporter(log *zap.Logger) *Exporter {
	return &Exporter{log: log, workDir: os.TempDir()}
}

// Export runs the full pipeline for one invoice. Exactly one of Result or
// error is returned; on error the caller gets ErrExportFailed regardless of
// which stage broke.
func (e *Exporter) Export(inv *models.Invoice) (*Result, error) {
	s, err := newSurface(e.workDir)
	if err != nil {
		return nil, e.fail("prepare", err)
	}
	defer s.Close()

	if err := e.render(s, inv); err != nil {
		return nil, e.fail("render", err)
	}

	var buf bytes.Buffer
	if err := s.doc.Output(&buf); err != nil {
		return nil, e.fail("output", err)
	}

	return &Result{PDF: buf.Bytes(), Filename: Filename(inv)}, nil
}

func (e *Exporter) fail(stage string, cause error) error {
	e.log.Error("invoice export failed",
		zap.String("stage", stage),
		zap.Error(cause))
	return ErrExportFailed
}

// surface is the off-screen rendering target for one export: a scratch
// directory for rasterized assets plus the page document being drawn. It
// never outlives the export call.
type surface struct {
	dir string
	doc *gofpdf.Fpdf
	tr  func(string) string
}

func newSurface(base string) (*surface, error) {
	dir, err := os.MkdirTemp(base, "invoice-export-*")
	if err != nil {
		return nil, err
	}
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(true, pageMarginMM)
	doc.SetMargins(pageMarginMM, pageMarginMM, pageMarginMM)
	doc.AddPage()
	return &surface{
		dir: dir,
		doc: doc,
		tr:  doc.UnicodeTranslatorFromDescriptor(""),
	}, nil
}

func (s *surface) Close() error {
	return os.RemoveAll(s.dir)
}

func (e *Exporter) render(s *surface, inv *models.Invoice) error {
	doc := s.doc
	r, g, b := parseAccent(inv.AccentColor)
	symbol := s.tr(pdfSymbol(inv.Currency))
	totals := billing.Calculate(inv.Items, inv.TaxRate)

	// Header: title and number left, logo right.
	doc.SetTextColor(r, g, b)
	doc.SetFont("Helvetica", "B", 26)
	doc.CellFormat(0, 12, "INVOICE", "", 1, "L", false, 0, "")
	doc.SetTextColor(107, 114, 128)
	doc.SetFont("Helvetica", "", 11)
	number := inv.InvoiceNumber
	if number == "" {
		number = "draft"
	}
	doc.CellFormat(0, 6, "#"+s.tr(number), "", 1, "L", false, 0, "")

	if inv.Logo != "" {
		if err := placeLogo(s, inv.Logo); err != nil {
			return err
		}
	}
	doc.Ln(8)

	// From / Bill To blocks side by side.
	colW := nominalWidth / 2 * unit
	top := doc.GetY()
	renderParty(s, "FROM", inv.From, pageMarginMM, top, colW)
	bottom := doc.GetY()
	renderParty(s, "BILL TO", inv.To, pageMarginMM+colW, top, colW)
	if doc.GetY() > bottom {
		bottom = doc.GetY()
	}
	doc.SetY(bottom + 6)

	// Dates.
	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(107, 114, 128)
	doc.CellFormat(colW, 6, "Issue Date: "+inv.IssueDate.String(), "", 0, "L", false, 0, "")
	doc.CellFormat(colW, 6, "Due Date: "+inv.DueDate.String(), "", 1, "R", false, 0, "")
	doc.Ln(6)

	// Line item table.
	descW := 420 * unit
	qtyW := 80 * unit
	rateW := 150 * unit
	amountW := 150 * unit

	doc.SetFillColor(r, g, b)
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(descW, 8, "Description", "", 0, "L", true, 0, "")
	doc.CellFormat(qtyW, 8, "Qty", "", 0, "R", true, 0, "")
	doc.CellFormat(rateW, 8, "Rate", "", 0, "R", true, 0, "")
	doc.CellFormat(amountW, 8, "Amount", "", 1, "R", true, 0, "")

	doc.SetTextColor(31, 41, 55)
	doc.SetFont("Helvetica", "", 10)
	doc.SetDrawColor(229, 231, 235)
	for _, item := range inv.Items {
		qty := strconv.FormatFloat(item.Quantity, 'f', -1, 64)
		doc.CellFormat(descW, 8, s.tr(item.Description), "B", 0, "L", false, 0, "")
		doc.CellFormat(qtyW, 8, qty, "B", 0, "R", false, 0, "")
		doc.CellFormat(rateW, 8, symbol+money(item.Rate), "B", 0, "R", false, 0, "")
		doc.CellFormat(amountW, 8, symbol+money(item.Quantity*item.Rate), "B", 1, "R", false, 0, "")
	}
	doc.Ln(4)

	// Totals box, right aligned.
	labelW := 180 * unit
	valueW := 120 * unit
	indent := pageMarginMM + nominalWidth*unit - labelW - valueW

	doc.SetTextColor(107, 114, 128)
	doc.SetX(indent)
	doc.CellFormat(labelW, 7, "Subtotal", "", 0, "L", false, 0, "")
	doc.SetTextColor(31, 41, 55)
	doc.CellFormat(valueW, 7, symbol+money(totals.Subtotal), "", 1, "R", false, 0, "")

	doc.SetTextColor(107, 114, 128)
	doc.SetX(indent)
	doc.CellFormat(labelW, 7, fmt.Sprintf("Tax (%s%%)", strconv.FormatFloat(inv.TaxRate, 'f', -1, 64)), "", 0, "L", false, 0, "")
	doc.SetTextColor(31, 41, 55)
	doc.CellFormat(valueW, 7, symbol+money(totals.TaxAmount), "", 1, "R", false, 0, "")

	doc.SetDrawColor(r, g, b)
	doc.SetLineWidth(0.6)
	doc.Line(indent, doc.GetY(), indent+labelW+valueW, doc.GetY())
	doc.SetFont("Helvetica", "B", 11)
	doc.SetX(indent)
	doc.CellFormat(labelW, 8, "Total", "", 0, "L", false, 0, "")
	doc.SetTextColor(r, g, b)
	doc.CellFormat(valueW, 8, symbol+money(totals.Total), "", 1, "R", false, 0, "")

	// Notes.
	if inv.Notes != "" {
		doc.Ln(8)
		doc.SetFont("Helvetica", "B", 9)
		doc.SetTextColor(107, 114, 128)
		doc.CellFormat(0, 5, "NOTES", "", 1, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 10)
		doc.SetTextColor(31, 41, 55)
		doc.MultiCell(0, 5, s.tr(inv.Notes), "", "L", false)
	}

	return nil
}

func renderParty(s *surface, label string, party models.Party, x, y, w float64) {
	doc := s.doc
	doc.SetXY(x, y)
	doc.SetFont("Helvetica", "B", 9)
	doc.SetTextColor(107, 114, 128)
	doc.CellFormat(w, 5, label, "", 2, "L", false, 0, "")
	doc.SetFont("Helvetica", "B", 11)
	doc.SetTextColor(31, 41, 55)
	doc.SetX(x)
	doc.CellFormat(w, 6, s.tr(party.Name), "", 2, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(107, 114, 128)
	doc.SetX(x)
	doc.CellFormat(w, 5, s.tr(party.Email), "", 2, "L", false, 0, "")
	doc.SetX(x)
	doc.MultiCell(w, 5, s.tr(party.Address), "", "L", false)
}

// placeLogo decodes the data-URI logo, rasterizes it at 2x for print
// sharpness, writes the bitmap into the surface workspace, and embeds it in
// the top-right corner.
func placeLogo(s *surface, dataURI string) error {
	img, err := decodeDataURI(dataURI)
	if err != nil {
		return err
	}
	scaled := imaging.Resize(img, logoPxWidth*oversample, 0, imaging.Lanczos)
	path := filepath.Join(s.dir, "logo.png")
	if err := imaging.Save(scaled, path); err != nil {
		return err
	}

	// Fit into the reserved header box, preserving aspect ratio.
	w := logoUnitsW * unit
	h := float64(scaled.Bounds().Dy()) / float64(scaled.Bounds().Dx()) * w
	if maxH := logoUnitsH * unit; h > maxH {
		w = w * maxH / h
		h = maxH
	}
	x := pageMarginMM + nominalWidth*unit - w
	s.doc.ImageOptions(path, x, pageMarginMM, w, h, false,
		gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	return nil
}

// decodeDataURI decodes an embedded "data:image/...;base64," logo into a
// bitmap.
func decodeDataURI(uri string) (image.Image, error) {
	meta, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(meta, "data:image/") || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("unsupported logo data URI %q", truncate(meta, 32))
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode logo data URI: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode logo image: %w", err)
	}
	return img, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", billing.Round2(v))
}

// pdfSymbol picks a currency marker the PDF core fonts can encode. The rupee
// sign has no cp1252 mapping, so INR falls back to "Rs".
func pdfSymbol(code string) string {
	if code == "INR" {
		return "Rs "
	}
	return models.SymbolFor(code)
}

var accentRE = regexp.MustCompile(`^#?([0-9a-fA-F]{6})$`)

func parseAccent(hex string) (int, int, int) {
	m := accentRE.FindStringSubmatch(strings.TrimSpace(hex))
	if m == nil {
		m = accentRE.FindStringSubmatch(models.DefaultAccentColor)
	}
	v, _ := strconv.ParseUint(m[1], 16, 32)
	return int(v >> 16), int(v >> 8 & 0xff), int(v & 0xff)
}

// Filename derives the download name, falling back to "draft" when the
// invoice has no number yet.
func Filename(inv *models.Invoice) string {
	number := strings.TrimSpace(inv.InvoiceNumber)
	if number == "" {
		number = "draft"
	}
	return "invoice-" + sanitizeRE.ReplaceAllString(number, "-") + ".pdf"
}

var sanitizeRE = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
