package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"finapi/pkg/events/kafka"
	"finapi/pkg/ledger"
)

var jwtSecret []byte // loaded from env JWT_SECRET (fallback to dev default)

var svc *ledger.Service

func main() {
	// Load ./.env if present before reading vars; existing env wins.
	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)

	// Support a lightweight migrate command: `./finapi migrate`
	// It runs AutoMigrate then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration completed")
		return
	}

	initDB()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Optional Kafka event publisher; leave KAFKA_BROKERS unset to disable.
	var pub ledger.Publisher
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kp := kafka.NewPublisher(strings.Split(brokers, ","))
		defer kp.Close()
		pub = kp
		logger.Info("kafka publisher enabled", zap.String("brokers", brokers))
	}

	svc = ledger.NewService(ledger.NewGormStore(db), pub, logger)

	r := gin.Default()

	setupRoutes(r)

	addr := ":8081"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}
	r.Run(addr)
}
