// Package demodata generates and installs the demo dataset behind the
// dashboard: synthetic users, companies, projects, trending metrics and
// renewals in the document store, plus company and user event streams in the
// analytics tables.
package demodata

import "success-hq/backend/internal/demodata/domain"

// Rollup holds a company's purchase and provisioning totals folded from its
// event stream.
type Rollup struct {
	Purchased   int
	Provisioned int
}

// AggregateCompanyEvents folds events into per-company totals. A company
// appears in the result if it has at least one purchased or provisioned
// event; quantities of the missing kind default to zero.
func AggregateCompanyEvents(events []domain.CompanyEvent) map[string]Rollup {
	rollups := map[string]Rollup{}
	for _, e := range events {
		r := rollups[e.Company]
		switch e.Type {
		case domain.CompanyEventPurchased:
			r.Purchased += e.Purchased
		case domain.CompanyEventProvisioned:
			r.Provisioned += e.Provisioned
		default:
			continue
		}
		rollups[e.Company] = r
	}
	return rollups
}
