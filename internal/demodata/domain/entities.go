// Package domain defines the entities of one generated dashboard dataset.
// All values are produced for a single pipeline run and never mutated
// concurrently.
package domain

import "time"

// User is a generated dashboard user. Immutable once created for a run.
type User struct {
	Email   string    `json:"email"`
	Company string    `json:"company"`
	RegDate time.Time `json:"reg_date"`
}

// Company is a generated customer. BoxesBought and BoxesProv start at zero and
// are overwritten once by the aggregation step: after a full run, BoxesBought
// equals the sum of purchased quantities in the company's events and BoxesProv
// the sum of provisioned quantities.
type Company struct {
	Name        string    `json:"name"`
	EarliestReg time.Time `json:"earliest_reg"`
	BoxesBought int       `json:"boxes_bought"`
	BoxesProv   int       `json:"boxes_prov"`
}

// Project is a customer-success engagement scheduled for a company.
type Project struct {
	Name    string    `json:"name"`
	Company string    `json:"company"`
	Date    time.Time `json:"date"`
}

// TrendingMetric is one metric data point for a company.
type TrendingMetric struct {
	Metric  string    `json:"metric"`
	Company string    `json:"company"`
	Value   float64   `json:"value"`
	Date    time.Time `json:"date"`
}

// Renewal is an upcoming contract renewal derived from a company's purchases.
type Renewal struct {
	Company string    `json:"company"`
	Amount  int       `json:"amount"`
	Health  int       `json:"health"`
	Due     time.Time `json:"due"`
}
