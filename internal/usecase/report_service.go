package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"downloads-report/internal/domain"
	"downloads-report/internal/refund"
	"downloads-report/internal/report"
)

// Gateway is the slice of the upstream client the report flow needs.
type Gateway interface {
	FetchOrder(ctx context.Context, orderID string) (domain.Order, error)
	FetchOrderDownloads(ctx context.Context, orderID string) ([]domain.DownloadRecord, error)
	SearchOrdersByEmail(ctx context.Context, email string) ([]domain.Order, error)
	LookupProductName(ctx context.Context, productID string) string
}

// Writer archives generated reports; optional.
type Writer interface {
	WriteReport(filename string, data []byte) (string, error)
}

// Report is a finalized PDF artifact.
type Report struct {
	Filename string
	Bytes    []byte
}

type ReportService struct {
	Gateway  Gateway
	Renderer *report.Renderer
	Writer   Writer
}

// GenerateReportByOrderID runs the whole flow for one order id: fetch order,
// fetch download history, estimate the refund, render the PDF.
func (s *ReportService) GenerateReportByOrderID(ctx context.Context, orderID string) (Report, error) {
	order, err := s.Gateway.FetchOrder(ctx, orderID)
	if err != nil {
		return Report{}, err
	}
	return s.GenerateReportForOrder(ctx, order)
}

// GenerateReportForOrder renders the report for an order that was already
// fetched, typically one row of a search listing.
func (s *ReportService) GenerateReportForOrder(ctx context.Context, order domain.Order) (Report, error) {
	downloads, err := s.Gateway.FetchOrderDownloads(ctx, order.ID)
	if err != nil {
		return Report{}, err
	}
	for i := range downloads {
		if downloads[i].ProductName == "" && downloads[i].ProductID != "" {
			downloads[i].ProductName = s.Gateway.LookupProductName(ctx, downloads[i].ProductID)
		}
	}
	est := refund.Compute(order, downloads)
	if !est.PaidKnown {
		log.WithField("order_id", order.ID).Warn("settled gross unparsable, refund estimate degraded to zero")
	}
	data, err := s.Renderer.Render(order, downloads, est)
	if err != nil {
		return Report{}, err
	}
	rep := Report{Filename: reportFilename(order.ID, time.Now()), Bytes: data}
	if s.Writer != nil {
		if url, werr := s.Writer.WriteReport(rep.Filename, data); werr != nil {
			log.WithError(werr).WithField("order_id", order.ID).Warn("could not archive report")
		} else {
			log.WithFields(log.Fields{"order_id": order.ID, "url": url}).Info("report archived")
		}
	}
	return rep, nil
}

// SearchOrders lists the orders recorded for a buyer email as display-ready
// summaries.
func (s *ReportService) SearchOrders(ctx context.Context, email string) ([]domain.OrderSummary, error) {
	orders, err := s.Gateway.SearchOrdersByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	loc := time.UTC
	if s.Renderer != nil && s.Renderer.Location != nil {
		loc = s.Renderer.Location
	}
	summaries := make([]domain.OrderSummary, 0, len(orders))
	for _, o := range orders {
		summaries = append(summaries, domain.OrderSummary{
			ID:         o.ID,
			CreatedAt:  report.FormatTimestamp(o.CreatedAt, loc),
			BuyerEmail: o.BuyerEmail,
			Currency:   o.Currency,
			AmountPaid: report.FormatCurrency(o.Currency, o.Paid),
		})
	}
	return summaries, nil
}

func reportFilename(orderID string, now time.Time) string {
	return fmt.Sprintf("relatorio_pedido_%s_%s.pdf", safeName(orderID), now.Format("2006-01-02"))
}

// safeName keeps the filename filesystem- and header-safe.
func safeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "pedido"
	}
	return b.String()
}
