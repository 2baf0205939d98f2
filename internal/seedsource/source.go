// Package seedsource provides the seed-user records that dataset generation
// starts from.
package seedsource

import "context"

// SeedUser is one source record: who to generate, which company they belong
// to, and how many days ago they registered.
type SeedUser struct {
	Email      string
	Company    string
	OffsetDays int
}

// Source fetches seed users ordered by email. limit <= 0 means no cap.
type Source interface {
	FetchUsers(ctx context.Context, limit int) ([]SeedUser, error)
}
