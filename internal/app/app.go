// Package app wires configuration, persistence and the console together.
package app

import (
	"context"
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/electrostore/internal/console"
	"github.com/xenking/electrostore/internal/domain/order"
	"github.com/xenking/electrostore/internal/storage/jsonfile"
	"github.com/xenking/electrostore/internal/storage/postgres"
	"github.com/xenking/electrostore/internal/storage/xmlfile"
	"github.com/xenking/electrostore/internal/store"
)

// Run loads the store, serves the console on stdin and stdout, and saves
// the store when the user asks to. It is the single wiring point for the
// console application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	return Serve(ctx, lg, m.TracerProvider(), m.MeterProvider(), cfg, os.Stdin, os.Stdout)
}

// Serve runs a console session over in and out.
func Serve(
	ctx context.Context,
	lg *zap.Logger,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	cfg *Config,
	in io.Reader,
	out io.Writer,
) error {
	lg.Info("Initializing", zap.String("driver", cfg.Storage.Driver))

	backends, err := OpenBackends(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer backends.Close()

	st, err := store.Load(ctx, backends.Source)
	if err != nil {
		return err
	}
	lg.Info("Store loaded",
		zap.Int("products", st.Inventory.Len()),
		zap.Int("customers", st.Customers.Len()),
		zap.Int("suppliers", st.Suppliers.Len()),
		zap.Int("orders", st.Orders.Len()),
	)

	if cfg.SeedCustomers {
		seeded, err := st.SeedCustomers()
		if err != nil {
			return errors.Wrap(err, "seed customers")
		}
		if seeded {
			lg.Info("Seeded demo customers", zap.Int("count", len(store.DefaultCustomers)))
		}
	}

	orders, err := order.NewService(st.Inventory, st.Orders, tp, mp)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}

	c := console.New(st, orders, in, out, console.Config{
		ManagerPassword: cfg.ManagerPassword,
		Save: func(ctx context.Context) error {
			if err := backends.Save(ctx, st.Snapshot()); err != nil {
				return err
			}
			lg.Info("Store saved", zap.Int("backends", len(backends.Targets)))
			return nil
		},
	})
	return c.Run(ctx)
}

// Backends are the repositories a session loads from and saves to.
type Backends struct {
	Source  store.Repository
	Targets []store.Repository

	closers []func()
}

// OpenBackends opens the repositories selected by cfg. The configured driver
// is the load source. With SaveAll set, both file backends are save
// targets in addition to the source.
func OpenBackends(ctx context.Context, cfg *Config) (*Backends, error) {
	b := &Backends{}
	var (
		jsonRepo = jsonfile.New(cfg.Storage.JSONPath)
		xmlRepo  = xmlfile.New(cfg.Storage.XMLPath)
	)

	switch cfg.Storage.Driver {
	case DriverJSON:
		b.Source = jsonRepo
	case DriverXML:
		b.Source = xmlRepo
	case DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, errors.Wrap(err, "create db pool")
		}
		b.closers = append(b.closers, pool.Close)
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			b.Close()
			return nil, err
		}
		b.Source = postgres.NewRepository(pool)
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	b.Targets = append(b.Targets, b.Source)
	if cfg.Storage.SaveAll {
		for _, r := range []store.Repository{jsonRepo, xmlRepo} {
			if r != b.Source {
				b.Targets = append(b.Targets, r)
			}
		}
	}
	return b, nil
}

// Save writes snap to every target concurrently.
func (b *Backends) Save(ctx context.Context, snap *store.Snapshot) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range b.Targets {
		g.Go(func() error {
			return r.Save(ctx, snap)
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "save snapshot")
	}
	return nil
}

// Close releases backend resources.
func (b *Backends) Close() {
	for _, c := range b.closers {
		c()
	}
	b.closers = nil
}
