// Command drug-ingest bulk-loads drug records from a gzipped NDJSON dump
// (one JSON object per line, openFDA label shape) into the drugs table.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/Jnyame21/aivise-health/internal/repository"
)

// scanner line buffer: openFDA label records routinely exceed bufio's default.
const maxLineSize = 4 << 20

type drugRow struct {
	name                 string
	genericName          string
	brand                string
	description          string
	dosageForms          []string
	routes               []string
	pharmClasses         []string
	activeIngredients    []string
	manufacturer         string
	prescriptionRequired bool
}

func main() {
	var (
		databaseURL string
		inputFile   string
		batchSize   int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&inputFile, "input", "", "path to gzipped NDJSON drug dump")
	flag.IntVar(&batchSize, "batch-size", 5000, "rows per COPY batch")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" || inputFile == "" {
		slog.Error("both --input and a database URL are required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	start := time.Now()
	total, err := run(ctx, databaseURL, inputFile, batchSize)
	if err != nil {
		slog.Error("ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("ingest completed",
		slog.Int64("rows", total),
		slog.Duration("elapsed", time.Since(start)),
	)
}

func run(ctx context.Context, databaseURL, inputFile string, batchSize int) (int64, error) {
	f, err := os.Open(inputFile)
	if err != nil {
		return 0, errors.Wrapf(err, "open %s", inputFile)
	}
	defer f.Close()

	zr, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(err, "open gzip stream")
	}
	defer zr.Close()

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return 0, errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return 0, errors.Wrap(err, "run migrations")
	}

	rows := make(chan drugRow, batchSize)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(rows)

		sc := bufio.NewScanner(zr)
		sc.Buffer(make([]byte, 64*1024), maxLineSize)

		var line int
		for sc.Scan() {
			line++
			if len(sc.Bytes()) == 0 {
				continue
			}
			row, err := parseDrug(sc.Bytes())
			if err != nil {
				return errors.Wrapf(err, "parse line %d", line)
			}
			if row.name == "" {
				slog.Warn("skipping unnamed drug record", slog.Int("line", line))
				continue
			}
			select {
			case rows <- row:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return errors.Wrap(sc.Err(), "scan input")
	})

	var total int64
	g.Go(func() error {
		batch := make([]drugRow, 0, batchSize)
		for row := range rows {
			batch = append(batch, row)
			if len(batch) >= batchSize {
				n, err := copyBatch(ctx, pool, batch)
				if err != nil {
					return err
				}
				total += n
				slog.Info("copied batch", slog.Int64("total", total))
				batch = batch[:0]
			}
		}
		if len(batch) > 0 {
			n, err := copyBatch(ctx, pool, batch)
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return total, err
	}
	return total, nil
}

func copyBatch(ctx context.Context, pool *pgxpool.Pool, batch []drugRow) (int64, error) {
	src := make([][]any, len(batch))
	for i, r := range batch {
		src[i] = []any{
			r.name, r.genericName, r.brand, r.description,
			r.dosageForms, r.routes, r.pharmClasses, r.activeIngredients,
			r.manufacturer, r.prescriptionRequired,
		}
	}

	n, err := pool.CopyFrom(ctx,
		pgx.Identifier{"drugs"},
		[]string{
			"name", "generic_name", "brand", "description",
			"dosage_forms", "routes", "pharm_classes", "active_ingredients",
			"manufacturer", "prescription_required",
		},
		pgx.CopyFromRows(src),
	)
	return n, errors.Wrap(err, "copy drugs")
}

func parseDrug(data []byte) (drugRow, error) {
	var row drugRow
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			row.name = v
			return err
		case "generic_name":
			v, err := d.Str()
			row.genericName = v
			return err
		case "brand":
			v, err := d.Str()
			row.brand = v
			return err
		case "description":
			v, err := d.Str()
			row.description = v
			return err
		case "manufacturer":
			v, err := d.Str()
			row.manufacturer = v
			return err
		case "prescription_required":
			v, err := d.Bool()
			row.prescriptionRequired = v
			return err
		case "dosage_forms":
			return decodeStrings(d, &row.dosageForms)
		case "routes":
			return decodeStrings(d, &row.routes)
		case "pharm_classes":
			return decodeStrings(d, &row.pharmClasses)
		case "active_ingredients":
			return decodeStrings(d, &row.activeIngredients)
		default:
			return d.Skip()
		}
	})
	return row, err
}

func decodeStrings(d *jx.Decoder, dst *[]string) error {
	return d.Arr(func(d *jx.Decoder) error {
		v, err := d.Str()
		if err != nil {
			return err
		}
		*dst = append(*dst, v)
		return nil
	})
}
