package synth

import (
	"fmt"
	"math/rand/v2"
	"time"

	"success-hq/backend/internal/demodata/domain"
)

// CompanyEvents generates the purchase and provisioning history for one
// company, anchored at its earliest registration date. The stream starts with
// an initial purchase at registration, follows with its provisioning a few
// days later, then interpolates further purchase rounds between registration
// and now. Timestamps are non-decreasing: each event is clamped forward to
// the latest timestamp emitted so far.
func CompanyEvents(rng *rand.Rand, now time.Time, company string, regDate time.Time) []domain.CompanyEvent {
	cursor := regDate
	clamp := func(t time.Time) time.Time {
		if t.Before(cursor) {
			return cursor
		}
		cursor = t
		return t
	}

	initialPurchase := Between(rng, 1, 15)
	events := []domain.CompanyEvent{{
		Timestamp: clamp(regDate),
		Type:      domain.CompanyEventPurchased,
		Company:   company,
		Purchased: initialPurchase,
	}}

	provDate := regDate.AddDate(0, 0, Between(rng, 2, 14))
	initialProv := Between(rng, 1, initialPurchase)
	for device := 1; device <= initialProv; device++ {
		events = append(events, provisionEvent(rng, clamp(provDate), company, device))
	}

	sinceReg := now.Sub(regDate)
	days := int(sinceReg.Seconds() / 86400)
	months := days/30 + 1

	boxes := initialProv
	purchases := Between(rng, 1, 2) * months
	for i := 1; i < purchases; i++ {
		purchased := Between(rng, 5, 15)
		purchaseDate := regDate.Add(time.Duration(float64(sinceReg) * float64(i) / float64(purchases)))
		events = append(events, domain.CompanyEvent{
			Timestamp: clamp(purchaseDate),
			Type:      domain.CompanyEventPurchased,
			Company:   company,
			Purchased: purchased,
		})

		provDate := purchaseDate.AddDate(0, 0, Between(rng, 2, 14))
		provCount := Between(rng, purchased/2, purchased)
		for d := 0; d < provCount; d++ {
			boxes++
			events = append(events, provisionEvent(rng, clamp(provDate), company, boxes))
		}
	}

	return events
}

func provisionEvent(rng *rand.Rand, ts time.Time, company string, box int) domain.CompanyEvent {
	return domain.CompanyEvent{
		Timestamp:    ts,
		Type:         domain.CompanyEventProvisioned,
		Company:      company,
		Provisioned:  1,
		SerialNumber: fmt.Sprintf("A%d", Between(rng, 100000, 2000000)),
		BoxName:      fmt.Sprintf("%s.room.%02d", company, box),
	}
}
