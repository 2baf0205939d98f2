package demodata

import (
	"maps"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"success-hq/backend/internal/demodata/domain"
	"success-hq/backend/internal/demodata/synth"
	"success-hq/backend/internal/seedsource"
)

// Params tune dataset generation. Zero values are not usable; start from
// DefaultParams and override from configuration.
type Params struct {
	MinProjectsPerCompany int
	MaxProjectsPerCompany int
	ProjectStartDelayDays int
	TrendingMetricsCount  int
	TrendingIntervalDays  int
	TrendingPeriodDays    int
	MinRenewalDays        int
	MaxRenewalDays        int
	MaxRegDelayMinutes    int
	TruncateSettleDelay   time.Duration
}

// DefaultParams returns the stock generation parameters.
func DefaultParams() Params {
	return Params{
		MinProjectsPerCompany: 1,
		MaxProjectsPerCompany: 3,
		ProjectStartDelayDays: 90,
		TrendingMetricsCount:  3,
		TrendingIntervalDays:  7,
		TrendingPeriodDays:    30,
		MinRenewalDays:        30,
		MaxRenewalDays:        120,
		MaxRegDelayMinutes:    120,
		TruncateSettleDelay:   2 * time.Second,
	}
}

// buildUsers turns seed records into users. Each registration lands the seed's
// offset in days before now, pulled back by a random few minutes so no two
// runs produce identical timestamps.
func buildUsers(rng *rand.Rand, now time.Time, seeds []seedsource.SeedUser, maxRegDelayMinutes int) []domain.User {
	users := make([]domain.User, 0, len(seeds))
	for _, su := range seeds {
		reg := now.AddDate(0, 0, -su.OffsetDays).
			Add(-time.Duration(synth.Between(rng, 0, maxRegDelayMinutes)) * time.Minute)
		users = append(users, domain.User{Email: su.Email, Company: su.Company, RegDate: reg})
	}
	return users
}

// buildCompanies derives one company per distinct user company, anchored at
// the earliest registration among its users. Result is sorted by name.
func buildCompanies(users []domain.User) []domain.Company {
	earliest := map[string]time.Time{}
	for _, u := range users {
		if reg, ok := earliest[u.Company]; !ok || u.RegDate.Before(reg) {
			earliest[u.Company] = u.RegDate
		}
	}

	companies := make([]domain.Company, 0, len(earliest))
	for _, name := range slices.Sorted(maps.Keys(earliest)) {
		companies = append(companies, domain.Company{Name: name, EarliestReg: earliest[name]})
	}
	return companies
}

// buildProjects schedules engagements per company, spread roughly evenly over
// the window from 90 days after the company's earliest registration to 30 days
// from now, with +/-25% jitter per slot. Companies whose window has not opened
// yet get no projects. At least one project per company lands in the future;
// when jitter pushes them all into the past, the last one is rescheduled
// between tomorrow and the window end.
func buildProjects(rng *rand.Rand, now time.Time, companies []domain.Company, p Params) []domain.Project {
	var projects []domain.Project
	for _, c := range companies {
		num := synth.Between(rng, p.MinProjectsPerCompany, p.MaxProjectsPerCompany)
		if num <= 0 {
			continue
		}
		periodStart := c.EarliestReg.AddDate(0, 0, p.ProjectStartDelayDays)
		periodEnd := now.AddDate(0, 0, 30)
		if !periodStart.Before(periodEnd) {
			continue
		}
		periodDays := int(periodEnd.Sub(periodStart).Hours() / 24)

		interval := float64(periodDays) / float64(num)
		jitter := max(1, int(interval*0.25))
		dates := make([]time.Time, 0, num)
		for i := 0; i < num; i++ {
			days := float64(i)*interval + float64(synth.Between(rng, -jitter, jitter))
			days = math.Max(0, math.Min(float64(periodDays-1), days))
			dates = append(dates, periodStart.AddDate(0, 0, int(days)))
		}

		future := false
		for _, d := range dates {
			if d.After(now) {
				future = true
				break
			}
		}
		if !future {
			futureStart := now.AddDate(0, 0, 1)
			if futureStart.Before(periodEnd) {
				if rangeDays := int(periodEnd.Sub(futureStart).Hours() / 24); rangeDays > 0 {
					dates[len(dates)-1] = futureStart.AddDate(0, 0, synth.Between(rng, 0, rangeDays-1))
				}
			}
		}

		for _, d := range dates {
			projects = append(projects, domain.Project{
				Name:    synth.Choice(rng, synth.ProjectNames),
				Company: c.Name,
				Date:    d,
			})
		}
	}
	return projects
}

// buildTrending emits one data point per company, metric, and sample date:
// the first TrendingMetricsCount metrics, sampled every TrendingIntervalDays
// going back TrendingPeriodDays from now, with values uniform in [10,100)
// rounded to cents.
func buildTrending(rng *rand.Rand, now time.Time, companies []domain.Company, p Params) []domain.TrendingMetric {
	var trending []domain.TrendingMetric
	for _, c := range companies {
		for _, metric := range synth.MetricNames[:p.TrendingMetricsCount] {
			for off := 0; off < p.TrendingPeriodDays; off += p.TrendingIntervalDays {
				trending = append(trending, domain.TrendingMetric{
					Metric:  metric,
					Company: c.Name,
					Value:   math.Round(synth.Uniform(rng, 10, 100)*100) / 100,
					Date:    now.AddDate(0, 0, -off),
				})
			}
		}
	}
	return trending
}

// buildRenewals prices one renewal per company with purchase activity: amount
// is the purchased total at list price, health is drawn from a distribution
// skewed toward healthy accounts, and the due date lands within the renewal
// window. Companies are processed in name order so a fixed seed yields a fixed
// result.
func buildRenewals(rng *rand.Rand, now time.Time, rollups map[string]Rollup, p Params) []domain.Renewal {
	renewals := make([]domain.Renewal, 0, len(rollups))
	for _, name := range slices.Sorted(maps.Keys(rollups)) {
		var health int
		switch tier := synth.Between(rng, 0, 5); {
		case tier < 1:
			health = synth.Between(rng, 10, 30)
		case tier < 3:
			health = synth.Between(rng, 30, 60)
		default:
			health = synth.Between(rng, 60, 100)
		}
		renewals = append(renewals, domain.Renewal{
			Company: name,
			Amount:  rollups[name].Purchased * 2499,
			Health:  health,
			Due:     now.AddDate(0, 0, synth.Between(rng, p.MinRenewalDays, p.MaxRenewalDays)),
		})
	}
	return renewals
}
