// Command store-migrate copies a store snapshot from one backend to another,
// for example to seed PostgreSQL from a JSON file.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/xenking/electrostore/internal/storage/jsonfile"
	"github.com/xenking/electrostore/internal/storage/postgres"
	"github.com/xenking/electrostore/internal/storage/xmlfile"
	"github.com/xenking/electrostore/internal/store"
)

type options struct {
	from, to      string
	jsonPath      string
	xmlPath       string
	databaseURL   string
	seedCustomers bool
}

func main() {
	var opts options

	flag.StringVar(&opts.from, "from", "json", "source backend: json, xml or postgres")
	flag.StringVar(&opts.to, "to", "postgres", "destination backend: json, xml or postgres")
	flag.StringVar(&opts.jsonPath, "json-path", "data.json", "JSON snapshot path (.gz for gzip)")
	flag.StringVar(&opts.xmlPath, "xml-path", "data.xml", "XML snapshot path (.gz for gzip)")
	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&opts.seedCustomers, "seed-customers", false, "register demo customers when the snapshot has none")
	flag.Parse()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.from == opts.to {
		slog.Error("source and destination must differ", slog.String("backend", opts.from))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("migration failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("migration completed successfully")
}

func run(ctx context.Context, opts options) error {
	var closers []func()
	defer func() {
		for _, c := range closers {
			c()
		}
	}()

	open := func(driver string) (store.Repository, error) {
		switch driver {
		case "json":
			return jsonfile.New(opts.jsonPath), nil
		case "xml":
			return xmlfile.New(opts.xmlPath), nil
		case "postgres":
			if opts.databaseURL == "" {
				return nil, errors.New("database URL is required: set --database-url or DATABASE_URL")
			}
			slog.Info("connecting to database")
			pool, err := postgres.NewPool(ctx, opts.databaseURL)
			if err != nil {
				return nil, errors.Wrap(err, "connect to database")
			}
			closers = append(closers, pool.Close)

			slog.Info("running migrations")
			if err := postgres.RunMigrations(ctx, pool); err != nil {
				return nil, err
			}
			return postgres.NewRepository(pool), nil
		default:
			return nil, errors.Errorf("unknown backend %q", driver)
		}
	}

	src, err := open(opts.from)
	if err != nil {
		return errors.Wrap(err, "open source")
	}
	dst, err := open(opts.to)
	if err != nil {
		return errors.Wrap(err, "open destination")
	}

	slog.Info("loading snapshot", slog.String("from", opts.from))
	st, err := store.Load(ctx, src)
	if err != nil {
		return err
	}

	if opts.seedCustomers {
		seeded, err := st.SeedCustomers()
		if err != nil {
			return err
		}
		if seeded {
			slog.Info("seeded demo customers", slog.Int("count", len(store.DefaultCustomers)))
		}
	}

	snap := st.Snapshot()
	slog.Info("saving snapshot",
		slog.String("to", opts.to),
		slog.Int("products", len(snap.Products)),
		slog.Int("customers", len(snap.Customers)),
		slog.Int("suppliers", len(snap.Suppliers)),
		slog.Int("orders", len(snap.Orders)),
	)
	if err := dst.Save(ctx, snap); err != nil {
		return errors.Wrap(err, "save snapshot")
	}
	return nil
}
