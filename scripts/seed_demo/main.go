package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"finapi/models"
	"finapi/pkg/ledger"
)

// Seeds a couple of demo users with opening deposits so the API has
// something to show right after a fresh migrate.
func main() {
	opening := flag.String("opening", "1000.00", "opening deposit per demo user")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in env")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	amount, err := decimal.NewFromString(*opening)
	if err != nil {
		log.Fatalf("bad --opening: %v", err)
	}

	svc := ledger.NewService(ledger.NewGormStore(db), nil, nil)

	demo := []struct{ name, email string }{
		{"Alice Demo", "alice@example.com"},
		{"Bob Demo", "bob@example.com"},
	}
	for _, d := range demo {
		var u models.User
		if err := db.Where("email = ?", d.email).First(&u).Error; err != nil {
			hpw, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
			if err != nil {
				log.Fatalf("bcrypt: %v", err)
			}
			u = models.User{ID: uuid.NewString(), Name: d.name, Email: d.email, HashedPassword: hpw}
			if err := db.Create(&u).Error; err != nil {
				log.Fatalf("create %s: %v", d.email, err)
			}
			if _, err := svc.Deposit(context.Background(), u.ID, amount, "opening deposit"); err != nil {
				log.Fatalf("opening deposit for %s: %v", d.email, err)
			}
			fmt.Printf("seeded %s id=%s opening=%s\n", d.email, u.ID, amount)
			continue
		}
		fmt.Printf("exists %s id=%s\n", d.email, u.ID)
	}
}
