// seed populates the seed_users table with a sample roster for local
// development. Safe to run repeatedly; existing rows are left alone.
package main

import (
	"context"
	"log"

	"success-hq/backend/internal/config"
	"success-hq/backend/internal/db"
)

type seedUser struct {
	email      string
	company    string
	offsetDays int
}

// Roster spans young and mature companies so every dashboard card has data.
var roster = []seedUser{
	{"olivia@acme.example.com", "Acme", 320},
	{"liam@acme.example.com", "Acme", 280},
	{"ava@acme.example.com", "Acme", 120},
	{"noah@globex.example.com", "Globex", 240},
	{"mia@globex.example.com", "Globex", 200},
	{"ethan@globex.example.com", "Globex", 45},
	{"amelia@initech.example.com", "Initech", 400},
	{"lucas@initech.example.com", "Initech", 150},
	{"sophia@umbrella.example.com", "Umbrella", 95},
	{"mason@umbrella.example.com", "Umbrella", 60},
	{"isabella@stark.example.com", "Stark", 30},
	{"logan@wayne.example.com", "Wayne", 180},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	inserted := 0
	for _, u := range roster {
		res, err := conn.ExecContext(ctx,
			`INSERT INTO seed_users (email, company, offset_days)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (email) DO NOTHING`,
			u.email, u.company, u.offsetDays)
		if err != nil {
			log.Fatalf("seed %s: %v", u.email, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	log.Printf("seeded %d of %d users (%d already present)", inserted, len(roster), len(roster)-inserted)
}
