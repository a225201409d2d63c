// Command seed replaces the product catalog with a fixture set. Intended
// for local development and first deploys.
package main

import (
	"context"
	"database/sql"
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/naturallyofcourse/shop-backend/internal/config"
	"github.com/naturallyofcourse/shop-backend/internal/modules/catalog"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	products := []*catalog.Product{
		{
			ID:          uuid.New(),
			Name:        "Lavender Essential Oil",
			Price:       decimal.NewFromFloat(14.99),
			Image:       "/images/lavender.jpg",
			Description: "Relaxing, calming lavender essential oil.",
			Stock:       25,
		},
		{
			ID:          uuid.New(),
			Name:        "Peppermint Essential Oil",
			Price:       decimal.NewFromFloat(12.49),
			Image:       "/images/peppermint.jpg",
			Description: "Refreshing peppermint essential oil.",
			Stock:       25,
		},
		{
			ID:          uuid.New(),
			Name:        "Rose Hydrosol",
			Price:       decimal.NewFromFloat(9.99),
			Image:       "/images/rose-hydrosol.jpg",
			Description: "Gentle, soothing floral hydrosol.",
			Stock:       25,
		},
	}

	repo := catalog.NewPostgresRepository(db)
	if err := repo.ReplaceAll(context.Background(), products); err != nil {
		log.Fatal(err)
	}
	log.Printf("seeded %d products", len(products))
}
