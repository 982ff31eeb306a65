package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/electrostore/internal/domain/order"
	"github.com/xenking/electrostore/internal/domain/product"
	"github.com/xenking/electrostore/internal/store"
)

const (
	truncateSQL = `TRUNCATE order_items, orders, suppliers, customers, products`

	listProductsSQL = `SELECT id, name, description, price, stock, COALESCE(category, '')
	FROM products ORDER BY position`
	listCustomersSQL = `SELECT email, name, balance FROM customers ORDER BY position`
	listSuppliersSQL = `SELECT name, contact FROM suppliers ORDER BY position`
	listOrdersSQL    = `SELECT id, customer_id, status, created_at FROM orders ORDER BY position`
	listItemsSQL     = `SELECT i.order_id, i.product_id, i.quantity, i.price
	FROM order_items i JOIN orders o ON o.id = i.order_id
	ORDER BY o.position, i.position`
)

var _ store.Repository = (*Repository)(nil)

// Repository stores the whole snapshot in a set of tables. Save replaces
// the previous contents in one transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Repository that uses the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save replaces the stored snapshot.
func (r *Repository) Save(ctx context.Context, snap *store.Snapshot) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, truncateSQL); err != nil {
			return errors.Wrap(err, "truncate")
		}

		products := make([][]any, 0, len(snap.Products))
		for i, p := range snap.Products {
			var category any
			if p.HasCategory() {
				category = p.Category
			}
			products = append(products, []any{i, p.ID, p.Name, p.Description, p.Price, p.Stock, category})
		}
		if err := copyRows(ctx, tx, "products",
			[]string{"position", "id", "name", "description", "price", "stock", "category"}, products); err != nil {
			return err
		}

		customers := make([][]any, 0, len(snap.Customers))
		for i, c := range snap.Customers {
			customers = append(customers, []any{i, c.Email, c.Name, c.Balance})
		}
		if err := copyRows(ctx, tx, "customers",
			[]string{"position", "email", "name", "balance"}, customers); err != nil {
			return err
		}

		suppliers := make([][]any, 0, len(snap.Suppliers))
		for i, s := range snap.Suppliers {
			suppliers = append(suppliers, []any{i, s.Name, s.Contact})
		}
		if err := copyRows(ctx, tx, "suppliers",
			[]string{"position", "name", "contact"}, suppliers); err != nil {
			return err
		}

		var (
			orders = make([][]any, 0, len(snap.Orders))
			items  [][]any
		)
		for i, o := range snap.Orders {
			orders = append(orders, []any{i, o.ID, o.CustomerID, string(o.Status), o.CreatedAt})
			for j, it := range o.Items {
				items = append(items, []any{o.ID, j, it.ProductID, it.Quantity, it.Price})
			}
		}
		if err := copyRows(ctx, tx, "orders",
			[]string{"position", "id", "customer_id", "status", "created_at"}, orders); err != nil {
			return err
		}
		return copyRows(ctx, tx, "order_items",
			[]string{"order_id", "position", "product_id", "quantity", "price"}, items)
	})
}

func copyRows(ctx context.Context, tx pgx.Tx, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows)); err != nil {
		return errors.Wrapf(err, "copy %s", table)
	}
	return nil
}

// Load reads the stored snapshot. Empty tables yield an empty snapshot.
func (r *Repository) Load(ctx context.Context) (*store.Snapshot, error) {
	snap := &store.Snapshot{}

	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	snap.Products, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Product, error) {
		var p product.Product
		err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category)
		return p, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan products")
	}

	rows, err = r.pool.Query(ctx, listCustomersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list customers")
	}
	snap.Customers, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.CustomerRecord, error) {
		var c store.CustomerRecord
		err := row.Scan(&c.Email, &c.Name, &c.Balance)
		return c, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan customers")
	}

	rows, err = r.pool.Query(ctx, listSuppliersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list suppliers")
	}
	snap.Suppliers, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.SupplierRecord, error) {
		var s store.SupplierRecord
		err := row.Scan(&s.Name, &s.Contact)
		return s, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan suppliers")
	}

	rows, err = r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	snap.Orders, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Order, error) {
		var (
			o      order.Order
			status string
		)
		err := row.Scan(&o.ID, &o.CustomerID, &status, &o.CreatedAt)
		o.Status = order.Status(status)
		o.CreatedAt = o.CreatedAt.UTC()
		return o, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan orders")
	}

	byID := make(map[string]int, len(snap.Orders))
	for i, o := range snap.Orders {
		byID[o.ID] = i
	}

	rows, err = r.pool.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list order items")
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID string
			it      order.OrderItem
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, errors.Wrap(err, "scan order item")
		}
		if i, ok := byID[orderID]; ok {
			snap.Orders[i].Items = append(snap.Orders[i].Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate order items")
	}

	return snap, nil
}
