// Package refund computes the illustrative, non-binding refund shown in the
// report: the share of the paid amount matching the purchased files the buyer
// never downloaded.
package refund

import (
	"fmt"

	"github.com/shopspring/decimal"

	"downloads-report/internal/domain"
)

// Estimate is derived per report and never persisted.
type Estimate struct {
	TotalFiles      int
	DownloadedFiles int
	Missing         int
	Ratio           string
	Paid            decimal.Decimal
	PaidKnown       bool
	Refund          decimal.Decimal
}

// Compute is pure: no I/O, no side effects. An order with no purchased files
// yields the defined degenerate state "0 / 0" with a zero refund.
func Compute(order domain.Order, downloads []domain.DownloadRecord) Estimate {
	total := distinctItems(order.Items)
	downloaded := distinctDownloads(downloads)
	missing := total - downloaded
	if missing < 0 {
		missing = 0
	}
	est := Estimate{
		TotalFiles:      total,
		DownloadedFiles: downloaded,
		Missing:         missing,
		Ratio:           fmt.Sprintf("%d / %d", missing, total),
		Paid:            order.Paid,
		PaidKnown:       order.PaidKnown,
		Refund:          decimal.Zero,
	}
	if total > 0 {
		est.Refund = order.Paid.
			Mul(decimal.NewFromInt(int64(missing))).
			Div(decimal.NewFromInt(int64(total))).
			Round(2)
	}
	return est
}

func distinctItems(items []domain.OrderItem) int {
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		seen[it.Key()] = struct{}{}
	}
	return len(seen)
}

func distinctDownloads(downloads []domain.DownloadRecord) int {
	seen := make(map[string]struct{}, len(downloads))
	for _, d := range downloads {
		seen[d.Key()] = struct{}{}
	}
	return len(seen)
}
