package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"finapi/models"
	"finapi/pkg/ledger"
)

// Polls a user's balance until it is non-zero or the wait expires. Handy
// when checking that the importer picked up a dropped batch file.
func main() {
	email := flag.String("email", "", "user email")
	wait := flag.Int("wait", 15, "seconds to wait/poll")
	flag.Parse()
	if *email == "" {
		log.Fatal("--email is required")
	}
	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in env")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	var u models.User
	if err := db.Where("email = ?", strings.ToLower(*email)).First(&u).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}
	svc := ledger.NewService(ledger.NewGormStore(db), nil, nil)
	deadline := time.Now().Add(time.Duration(*wait) * time.Second)
	for {
		balance, statements, err := svc.GetBalance(context.Background(), u.ID)
		if err != nil {
			log.Fatalf("get balance: %v", err)
		}
		if !balance.IsZero() || time.Now().After(deadline) {
			fmt.Printf("balance=%s statements=%d for %s\n", balance, len(statements), u.Email)
			return
		}
		time.Sleep(2 * time.Second)
	}
}
