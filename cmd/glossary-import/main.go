// Command glossary-import loads glossary terms from a CSV export into the
// database. Unchanged rows are skipped via content hashing unless --force-all
// is given.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aimlgloss/glossary-go/internal/application/services"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	contentrepo "github.com/aimlgloss/glossary-go/internal/infrastructure/persistence/content"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/persistence/database"
)

func main() {
	var (
		csvPath  = flag.String("csv", "", "path to the CSV file to import (required)")
		hashFile = flag.String("hash-file", ".import-hashes.json", "path to the row-hash state file")
		forceAll = flag.Bool("force-all", false, "reimport every row, ignoring stored hashes")
		dryRun   = flag.Bool("dry-run", false, "report what would change without writing")
		category = flag.String("category", "", "slug of the category to file imported terms under")
	)
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := logging.NewChanneledLogger(nil)
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	driver, dsn := database.BuildDSN()
	db, err := database.NewConnectionWithLogger(driver, dsn, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.NewTableCreator().CreateSchema(db.DB); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}

	file, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("Failed to open CSV: %v", err)
	}
	defer file.Close()

	importer := services.NewImportService(
		contentrepo.NewSQLTermRepository(db, logger),
		contentrepo.NewSQLCategoryRepository(db, logger),
		logger,
	)

	summary, err := importer.ImportCSV(file, services.ImportOptions{
		HashFile: *hashFile,
		ForceAll: *forceAll,
		DryRun:   *dryRun,
		Category: *category,
	})
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	mode := "imported"
	if *dryRun {
		mode = "would import"
	}
	fmt.Printf("%d rows total: %s %d, skipped %d, failed %d\n",
		summary.Total, mode, summary.Imported, summary.Skipped, summary.Failed)
}
