package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"finapi/pkg/ledger"
	"finapi/process/importer"
)

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

// Main: scans a directory of JSON deposit batches, applies them through the
// ledger service, optional watch mode.
func main() {
	dirFlag := flag.String("dir", "import", "directory to scan for batch files")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	dryRun := flag.Bool("dry-run", false, "Parse batch files and report counts; no DB interaction")
	flag.Parse()

	if *dryRun {
		paths, err := os.ReadDir(*dirFlag)
		if err != nil {
			log.Fatalf("read dir: %v", err)
		}
		total := 0
		for _, de := range paths {
			if !de.Type().IsRegular() {
				continue
			}
			f, err := os.Open(filepath.Join(*dirFlag, de.Name()))
			if err != nil {
				log.Printf("%s: %v", de.Name(), err)
				continue
			}
			entries, err := importer.ParseBatch(f)
			f.Close()
			if err != nil {
				log.Printf("%s: %v", de.Name(), err)
				continue
			}
			log.Printf("%s: %d entries", de.Name(), len(entries))
			total += len(entries)
		}
		log.Printf("dry-run: %d entries across batches", total)
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	gdb := mustInitDBFromEnv()
	svc := ledger.NewService(ledger.NewGormStore(gdb), nil, logger)

	im := importer.New(svc, logger)
	if err := im.Run(context.Background(), *dirFlag, *watch); err != nil && err != context.Canceled {
		log.Fatalf("importer: %v", err)
	}
}
