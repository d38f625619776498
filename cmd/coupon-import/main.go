// Command coupon-import loads promotional codes in bulk from gzipped text
// files (one code per line) and registers them as coupons sharing one
// discount rule. Lines already seen are skipped with a bloom filter; the
// database unique constraint is the final authority on duplicates.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/maiconsoft/backoffice/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000

	insertCouponSQL = `INSERT INTO coupons
		(code, name, description, discount_percent, valid_until, status, max_uses)
		VALUES ($1, $2, $3, $4, $5, 'ACTIVE', $6)
		ON CONFLICT (code) DO NOTHING`
)

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
		name        = flag.String("name", "Imported campaign", "coupon display name")
		description = flag.String("description", "", "coupon description")
		percent     = flag.String("percent", "10", "discount percent for every imported code")
		validUntil  = flag.String("valid-until", "", "validity date (YYYY-MM-DD, empty = never expires)")
		maxUses     = flag.Int("max-uses", 1, "usage cap per code (0 = unlimited)")
		workers     = flag.Int("workers", 4, "parallel import workers")
	)
	flag.Parse()

	if err := run(*databaseURL, *name, *description, *percent, *validUntil, *maxUses, *workers, flag.Args()); err != nil {
		slog.Error("import failed", "err", err)
		os.Exit(1)
	}
}

func run(databaseURL, name, description, percent, validUntil string, maxUses, workers int, files []string) error {
	if databaseURL == "" {
		return errors.New("database URL is required")
	}
	if len(files) == 0 {
		return errors.New("no input files given")
	}

	discountPercent, err := decimal.NewFromString(percent)
	if err != nil {
		return errors.Wrap(err, "parse percent")
	}

	var validity *time.Time
	if validUntil != "" {
		t, err := time.Parse("2006-01-02", validUntil)
		if err != nil {
			return errors.Wrap(err, "parse valid-until")
		}
		validity = &t
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// One shared filter across all files: a code that appears in several
	// campaign exports should only be imported once.
	var (
		seenMu sync.Mutex
		seen   = bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, file := range files {
		g.Go(func() error {
			n, err := importFile(gctx, pool, file, func(code string) bool {
				seenMu.Lock()
				defer seenMu.Unlock()
				if seen.TestString(code) {
					return false
				}
				seen.AddString(code)
				return true
			}, insertParams{
				name:        name,
				description: description,
				percent:     discountPercent,
				validUntil:  validity,
				maxUses:     maxUses,
			})
			if err != nil {
				return errors.Wrapf(err, "import %s", file)
			}
			slog.Info("file imported", "file", file, "codes", n)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("import complete", "files", len(files))
	return nil
}

type insertParams struct {
	name        string
	description string
	percent     decimal.Decimal
	validUntil  *time.Time
	maxUses     int
}

func importFile(ctx context.Context, pool *pgxpool.Pool, path string, firstSeen func(string) bool, p insertParams) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(err, "open gzip stream")
	}
	defer gz.Close()

	var imported int64
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return imported, err
		}

		code := strings.TrimSpace(scanner.Text())
		if code == "" || !firstSeen(code) {
			continue
		}

		tag, err := pool.Exec(ctx, insertCouponSQL,
			code, p.name, p.description, p.percent, p.validUntil, p.maxUses)
		if err != nil {
			return imported, errors.Wrapf(err, "insert %q", code)
		}
		imported += tag.RowsAffected()

		if imported%progressEvery == 0 && imported > 0 {
			slog.Info("progress", "file", path, "imported", imported)
		}
	}
	if err := scanner.Err(); err != nil {
		return imported, errors.Wrap(err, "scan input")
	}
	return imported, nil
}
