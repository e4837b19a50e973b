package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/skidash/internal/shared/domain"
	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
	"github.com/davicafu/skidash/internal/skipass/infra/outbound/dataset"
	"github.com/davicafu/skidash/internal/skipass/infra/outbound/db/mongodb"
	"github.com/davicafu/skidash/internal/skipass/infra/outbound/db/sqlstore"
	"github.com/davicafu/skidash/pkg/logger"
)

// store es lo que necesita el importador de un almacén.
type store interface {
	InsertBatch(ctx context.Context, records []skiDomain.SkiPass) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context, criteria sharedDomain.Criteria) (int, error)
}

func main() {
	file := flag.String("file", os.Getenv("DATASET_PATH"), "Fichero JSON con el array de forfaits")
	target := flag.String("target", "sqlite", "Almacén destino: sqlite, postgres, mysql o mongodb")
	dsn := flag.String("dsn", "./skidash.db", "DSN SQL o URI de MongoDB")
	mongoDB := flag.String("mongo-db", "skidash", "Base de datos MongoDB")
	chunk := flag.Int("chunk", 500, "Registros por lote")
	replace := flag.Bool("replace", true, "Vaciar el almacén antes de importar")
	verbose := flag.Bool("v", false, "Mode verbeux")
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(level); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.Logger()
	defer log.Sync()

	if *file == "" {
		log.Fatal("missing -file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, log, *file, *target, *dsn, *mongoDB, *chunk, *replace); err != nil {
		log.Fatal("❌ Import failed", zap.Error(err))
	}
}

func run(ctx context.Context, log *zap.Logger, file, target, dsn, mongoDB string, chunk int, replace bool) error {
	records, err := dataset.NewFileSource(file).Fetch(ctx)
	if err != nil {
		return err
	}
	// Rechaza ids duplicados antes de tocar el almacén.
	if _, err := skiDomain.NewDataset(records); err != nil {
		return err
	}

	st, closeStore, err := openStore(ctx, target, dsn, mongoDB)
	if err != nil {
		return err
	}
	defer closeStore()

	if replace {
		if err := st.DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to clear store: %w", err)
		}
	}

	start := time.Now()
	if err := importChunks(ctx, st, records, chunk, progressbar.Default(int64(len(records)), "importing")); err != nil {
		return err
	}

	total, err := st.Count(ctx, nil)
	if err != nil {
		return err
	}
	log.Info("✅ Import done",
		zap.String("target", target),
		zap.Int("imported", len(records)),
		zap.Int("total", total),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// importChunks inserta en lotes de tamaño chunk y avanza la barra por cada lote.
func importChunks(ctx context.Context, st store, records []skiDomain.SkiPass, chunk int, bar *progressbar.ProgressBar) error {
	if chunk < 1 {
		chunk = 1
	}
	for start := 0; start < len(records); start += chunk {
		end := min(start+chunk, len(records))
		if err := st.InsertBatch(ctx, records[start:end]); err != nil {
			return fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		if bar != nil {
			_ = bar.Add(end - start)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return nil
}

func openStore(ctx context.Context, target, dsn, mongoDB string) (store, func(), error) {
	if target == "mongodb" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(dsn))
		if err != nil {
			return nil, nil, err
		}
		repo, err := mongodb.NewPassRepoMongoDB(ctx, client, mongoDB)
		if err != nil {
			client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repo, func() { client.Disconnect(context.Background()) }, nil
	}

	dialect, err := sqlstore.ParseDialect(target)
	if err != nil {
		return nil, nil, err
	}
	db, err := sqlstore.Open(dialect, dsn)
	if err != nil {
		return nil, nil, err
	}
	repo := sqlstore.NewPassRepo(db, dialect)
	if err := repo.InitSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, func() { db.Close() }, nil
}
