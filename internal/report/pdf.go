// Package report lays out the branded order report as a paginated PDF.
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"downloads-report/internal/domain"
	"downloads-report/internal/refund"
)

const DefaultBrand = "Concurseiro Fora da Caixa - Relatório de Downloads"

// download-history column widths in mm; they sum to the printable width of an
// A4 page with the default margins.
var downloadColW = [3]float64{15, 115, 50}

// RenderError wraps a document-construction failure. It surfaces as a
// user-visible message and must never crash the host process.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return "report render: " + e.Err.Error() }

func (e *RenderError) Unwrap() error { return e.Err }

// Renderer produces the fixed report layout: title, order data, refund
// analysis, download history, with a brand header and an optional diagonal
// watermark on every page.
type Renderer struct {
	Brand     string
	Watermark string
	Location  *time.Location // display timezone for every timestamp
}

// Render always returns a finalized byte buffer, never a partially-built
// document.
func (r *Renderer) Render(order domain.Order, downloads []domain.DownloadRecord, est refund.Estimate) ([]byte, error) {
	brand := r.Brand
	if brand == "" {
		brand = DefaultBrand
	}
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	leftM, _, rightM, _ := pdf.GetMargins()

	pdf.SetHeaderFunc(func() {
		if r.Watermark != "" {
			pdf.SetFont("Helvetica", "B", 50)
			pdf.SetTextColor(225, 225, 225)
			pdf.TransformBegin()
			pdf.TransformRotate(45, pageW/2, pageH/2)
			wm := tr(Sanitize(r.Watermark))
			pdf.Text(pageW/2-pdf.GetStringWidth(wm)/2, pageH/2, wm)
			pdf.TransformEnd()
		}
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(40, 40, 40)
		pdf.CellFormat(0, 10, tr(Sanitize(brand)), "", 1, "L", false, 0, "")
		pdf.Ln(2)
		pdf.SetDrawColor(220, 220, 220)
		pdf.SetLineWidth(0.4)
		pdf.Line(leftM, pdf.GetY(), pageW-rightM, pdf.GetY())
		pdf.Ln(4)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(120, 120, 120)
		generated := time.Now().In(loc).Format("2006-01-02 15:04")
		footer := fmt.Sprintf("Gerado em %s - Página %d", generated, pdf.PageNo())
		pdf.CellFormat(0, 10, tr(Sanitize(footer)), "", 0, "C", false, 0, "")
	})
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(20, 20, 20)
	pdf.CellFormat(0, 10, tr(Sanitize("Relatório do Pedido: "+orderName(order))), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	sectionTitle(pdf, tr, "Dados do Pedido")
	orderRow := func(label, value string) { tableRow(pdf, tr, 40, 120, label, value) }
	orderRow("ID do Pedido:", orDefault(order.ID, "N/A"))
	orderRow("Data da Compra:", FormatTimestamp(order.CreatedAt, loc))
	orderRow("E-mail do Comprador:", orDefault(order.BuyerEmail, "N/A"))
	orderRow("IP da Compra:", orDefault(order.BuyerIP, "N/A"))
	orderRow("Moeda:", orDefault(order.Currency, "N/A"))
	orderRow("Valor Pago:", FormatCurrency(order.Currency, est.Paid))
	pdf.Ln(2)

	sectionTitle(pdf, tr, "Análise para Cancelamento/Reembolso")
	refundRow := func(label, value string) { tableRow(pdf, tr, 60, 100, label, value) }
	refundRow("Arquivos Totais:", strconv.Itoa(est.TotalFiles))
	refundRow("Arquivos Baixados:", strconv.Itoa(est.DownloadedFiles))
	refundRow("Proporção p/ Reembolso:", est.Ratio)
	refundRow("Valor Reembolso (ilustrativo):", FormatCurrency(order.Currency, est.Refund))
	pdf.Ln(2)

	sectionTitle(pdf, tr, "Histórico de Downloads")
	if len(downloads) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 8, tr("Nenhum download registrado para este pedido."), "", 1, "L", false, 0, "")
	} else {
		pdf.SetFillColor(230, 230, 230)
		pdf.SetFont("Helvetica", "B", 10)
		for i, h := range [3]string{"#", "Nome do Produto", "Data do Download"} {
			pdf.CellFormat(downloadColW[i], 8, tr(h), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 9)
		for i, dl := range downloads {
			name := dl.ProductName
			if name == "" {
				name = "Produto " + orDefault(dl.ProductID, "?")
			}
			pdf.CellFormat(downloadColW[0], 7, strconv.Itoa(i+1), "1", 0, "C", false, 0, "")
			pdf.CellFormat(downloadColW[1], 7, tr(Sanitize(name)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(downloadColW[2], 7, tr(Sanitize(FormatTimestamp(dl.CreatedAt, loc))), "1", 1, "C", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Err: err}
	}
	return buf.Bytes(), nil
}

func orderName(order domain.Order) string {
	if order.BuyerEmail == "" {
		return orDefault(order.ID, "N/A")
	}
	return orDefault(order.ID, "N/A") + " - " + order.BuyerEmail
}

func sectionTitle(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(40, 40, 40)
	pdf.CellFormat(0, 8, tr(Sanitize(title)), "", 1, "L", false, 0, "")
}

// tableRow writes one bordered key/value row: bold label cell, regular value
// cell.
func tableRow(pdf *gofpdf.Fpdf, tr func(string) string, labelW, valueW float64, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(labelW, 8, tr(Sanitize(label)), "1", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(valueW, 8, tr(Sanitize(value)), "1", 1, "L", false, 0, "")
}

func orDefault(s, d string) string {
	if s == "" {
		return d
	}
	return s
}
