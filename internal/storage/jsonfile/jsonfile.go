// Package jsonfile persists store snapshots as a single JSON document:
//
//	{"inventory": {"products": [...]}, "customers": [...], "suppliers": [...], "orders": [...]}
//
// The document is indented with two spaces and keeps non-ASCII text as is.
package jsonfile

import (
	"context"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/electrostore/internal/domain/order"
	"github.com/xenking/electrostore/internal/domain/product"
	"github.com/xenking/electrostore/internal/domain/storeerr"
	"github.com/xenking/electrostore/internal/storage"
	"github.com/xenking/electrostore/internal/store"
)

var _ store.Repository = (*Repository)(nil)

// Repository stores snapshots in a JSON file. Paths ending in .gz are
// gzip-compressed.
type Repository struct {
	path string
}

// New returns a Repository for the given file path.
func New(path string) *Repository {
	return &Repository{path: path}
}

// Path returns the file path.
func (r *Repository) Path() string { return r.path }

// Load reads the snapshot. A missing file yields an empty snapshot.
func (r *Repository) Load(_ context.Context) (*store.Snapshot, error) {
	data, ok, err := storage.ReadFile(r.path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &store.Snapshot{}, nil
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, &storeerr.SerializationError{Source: r.path, Err: err}
	}
	return snap, nil
}

// Save writes the snapshot, replacing the file.
func (r *Repository) Save(_ context.Context, snap *store.Snapshot) error {
	if err := storage.WriteFile(r.path, Encode(snap)); err != nil {
		return errors.Wrapf(err, "save %s", r.path)
	}
	return nil
}

// Encode renders a snapshot as an indented JSON document.
func Encode(snap *store.Snapshot) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.SetIdent(2)

	e.Obj(func(e *jx.Encoder) {
		e.Field("inventory", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("products", func(e *jx.Encoder) {
					encodeArr(e, len(snap.Products), func(e *jx.Encoder) {
						for _, p := range snap.Products {
							encodeProduct(e, p)
						}
					})
				})
			})
		})
		e.Field("customers", func(e *jx.Encoder) {
			encodeArr(e, len(snap.Customers), func(e *jx.Encoder) {
				for _, c := range snap.Customers {
					e.Obj(func(e *jx.Encoder) {
						e.Field("email", func(e *jx.Encoder) { e.Str(c.Email) })
						e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
						e.Field("balance", func(e *jx.Encoder) { encodeDecimal(e, c.Balance) })
					})
				}
			})
		})
		e.Field("suppliers", func(e *jx.Encoder) {
			encodeArr(e, len(snap.Suppliers), func(e *jx.Encoder) {
				for _, s := range snap.Suppliers {
					e.Obj(func(e *jx.Encoder) {
						e.Field("name", func(e *jx.Encoder) { e.Str(s.Name) })
						e.Field("contact", func(e *jx.Encoder) { e.Str(s.Contact) })
					})
				}
			})
		})
		e.Field("orders", func(e *jx.Encoder) {
			encodeArr(e, len(snap.Orders), func(e *jx.Encoder) {
				for i := range snap.Orders {
					encodeOrder(e, &snap.Orders[i])
				}
			})
		})
	})

	out := append([]byte(nil), e.Bytes()...)
	return append(out, '\n')
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, p.Price) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
		e.Field("category", func(e *jx.Encoder) {
			if !p.HasCategory() {
				e.Null()
				return
			}
			e.Str(p.Category)
		})
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("customer_id", func(e *jx.Encoder) { e.Str(o.CustomerID) })
		e.Field("items", func(e *jx.Encoder) {
			encodeArr(e, len(o.Items), func(e *jx.Encoder) {
				for _, it := range o.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("product_id", func(e *jx.Encoder) { e.Str(it.ProductID) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, it.Price) })
					})
				}
			})
		})
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("created_at", func(e *jx.Encoder) { e.Str(storage.FormatTime(o.CreatedAt)) })
		e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, o.Total()) })
	})
}

// encodeArr writes an empty array as [] instead of an indented blank line.
func encodeArr(e *jx.Encoder, n int, f func(e *jx.Encoder)) {
	if n == 0 {
		e.ArrEmpty()
		return
	}
	e.Arr(f)
}

func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

// Decode parses a JSON document produced by Encode. Unknown fields are
// skipped; the order "total" is derived and ignored.
func Decode(data []byte) (*store.Snapshot, error) {
	snap := &store.Snapshot{}
	d := jx.DecodeBytes(data)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "inventory":
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				if string(key) != "products" {
					return d.Skip()
				}
				return d.Arr(func(d *jx.Decoder) error {
					p, err := decodeProduct(d)
					if err != nil {
						return err
					}
					snap.Products = append(snap.Products, p)
					return nil
				})
			})
		case "customers":
			return d.Arr(func(d *jx.Decoder) error {
				c, err := decodeCustomer(d)
				if err != nil {
					return err
				}
				snap.Customers = append(snap.Customers, c)
				return nil
			})
		case "suppliers":
			return d.Arr(func(d *jx.Decoder) error {
				var s store.SupplierRecord
				if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
					var err error
					switch string(key) {
					case "name":
						s.Name, err = decodeString(d)
					case "contact":
						s.Contact, err = decodeString(d)
					default:
						err = d.Skip()
					}
					return err
				}); err != nil {
					return errors.Wrap(err, "supplier")
				}
				snap.Suppliers = append(snap.Suppliers, s)
				return nil
			})
		case "orders":
			return d.Arr(func(d *jx.Decoder) error {
				o, err := decodeOrder(d)
				if err != nil {
					return err
				}
				snap.Orders = append(snap.Orders, o)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, err
	}
	if err := expectEOF(d); err != nil {
		return nil, err
	}
	return snap, nil
}

// expectEOF allows only whitespace after the root object.
func expectEOF(d *jx.Decoder) error {
	if d.Next() == jx.Invalid {
		// Skip reports io.EOF only when nothing but whitespace is left.
		if err := d.Skip(); errors.Is(err, io.EOF) {
			return nil
		}
	}
	return errors.New("unexpected data after document")
}

func decodeProduct(d *jx.Decoder) (product.Product, error) {
	var (
		p     product.Product
		hasID bool
	)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			p.ID, err = d.Str()
			hasID = true
		case "name":
			p.Name, err = decodeString(d)
		case "description":
			p.Description, err = decodeString(d)
		case "price":
			p.Price, err = decodeDecimal(d)
		case "stock":
			p.Stock, err = d.Int()
		case "category":
			p.Category, err = decodeString(d)
		default:
			err = d.Skip()
		}
		return fieldErr(key, err)
	})
	if err != nil {
		return p, errors.Wrap(err, "product")
	}
	if !hasID {
		return p, errors.New("product: missing id")
	}
	return p, nil
}

func decodeCustomer(d *jx.Decoder) (store.CustomerRecord, error) {
	var (
		c        store.CustomerRecord
		hasEmail bool
	)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "email":
			c.Email, err = d.Str()
			hasEmail = true
		case "name":
			c.Name, err = decodeString(d)
		case "balance":
			c.Balance, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return fieldErr(key, err)
	})
	if err != nil {
		return c, errors.Wrap(err, "customer")
	}
	if !hasEmail {
		return c, errors.New("customer: missing email")
	}
	return c, nil
}

func decodeOrder(d *jx.Decoder) (order.Order, error) {
	o := order.Order{Status: order.StatusCreated}
	var hasCreatedAt bool
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "id":
			o.ID, err = d.Str()
		case "customer_id":
			o.CustomerID, err = d.Str()
		case "items":
			err = d.Arr(func(d *jx.Decoder) error {
				it, err := decodeOrderItem(d)
				if err != nil {
					return err
				}
				o.Items = append(o.Items, it)
				return nil
			})
		case "status":
			var s string
			s, err = d.Str()
			o.Status = order.Status(s)
		case "created_at":
			var s string
			if s, err = d.Str(); err == nil {
				o.CreatedAt, err = storage.ParseTime(s)
				hasCreatedAt = true
			}
		default:
			err = d.Skip()
		}
		return fieldErr(key, err)
	})
	if err != nil {
		return o, errors.Wrapf(err, "order %s", o.ID)
	}
	if !hasCreatedAt {
		o.CreatedAt = time.Now().UTC()
	}
	return o, nil
}

func decodeOrderItem(d *jx.Decoder) (order.OrderItem, error) {
	var it order.OrderItem
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "product_id":
			it.ProductID, err = d.Str()
		case "quantity":
			it.Quantity, err = d.Int()
		case "price":
			it.Price, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return fieldErr(key, err)
	})
	if err != nil {
		return it, errors.Wrap(err, "item")
	}
	if it.Quantity <= 0 {
		return it, errors.Errorf("item %s: invalid quantity %d", it.ProductID, it.Quantity)
	}
	return it, nil
}

func fieldErr(key []byte, err error) error {
	if err != nil {
		return errors.Wrapf(err, "field %q", key)
	}
	return nil
}

// decodeString reads a string, treating null as empty.
func decodeString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// decodeDecimal reads a JSON number, or a string holding one, exactly.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = string(n)
	}
	return decimal.NewFromString(raw)
}
