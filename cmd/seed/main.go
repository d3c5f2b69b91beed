package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/campusworks/iiitdmj-portal/config"
	"github.com/campusworks/iiitdmj-portal/internal/domain/identity"
	"github.com/campusworks/iiitdmj-portal/pkg/helpers"
)

// Seeds a demo student account for local development.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "21bcs001@iiitdmj.ac.in"
	password := "password123"
	name := "Demo Student"

	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	details, _ := identity.Extract(email)

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, name, avatar_url, roll_number, batch, branch)
		VALUES ($1, $2, $3, '', $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, email, hash, name, details.RollNumber, details.Batch, details.Branch).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded student: id=%s email=%s password=%s\n", id, email, password)
}
