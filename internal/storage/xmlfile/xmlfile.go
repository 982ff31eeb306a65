// Package xmlfile persists store snapshots as an XML document rooted at
// StoreData. Numeric values are stored as element text.
package xmlfile

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/electrostore/internal/domain/order"
	"github.com/xenking/electrostore/internal/domain/product"
	"github.com/xenking/electrostore/internal/domain/storeerr"
	"github.com/xenking/electrostore/internal/storage"
	"github.com/xenking/electrostore/internal/store"
)

var _ store.Repository = (*Repository)(nil)

// Repository stores snapshots in an XML file. Paths ending in .gz are
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
	data, err := Encode(snap)
	if err != nil {
		return &storeerr.SerializationError{Source: r.path, Err: err}
	}
	if err := storage.WriteFile(r.path, data); err != nil {
		return errors.Wrapf(err, "save %s", r.path)
	}
	return nil
}

type xmlStore struct {
	XMLName   xml.Name      `xml:"StoreData"`
	Products  []xmlProduct  `xml:"Inventory>Products>Product"`
	Customers []xmlCustomer `xml:"Customers>Customer"`
	Suppliers []xmlSupplier `xml:"Suppliers>Supplier"`
	Orders    []xmlOrder    `xml:"Orders>Order"`
}

type xmlProduct struct {
	ID          string `xml:"id,attr"`
	Name        string `xml:"Name"`
	Description string `xml:"Description"`
	Price       string `xml:"Price"`
	Stock       string `xml:"Stock"`
	Category    string `xml:"Category"`
}

type xmlCustomer struct {
	Email   string `xml:"Email"`
	Name    string `xml:"Name"`
	Balance string `xml:"Balance"`
}

type xmlSupplier struct {
	Name    string `xml:"Name"`
	Contact string `xml:"Contact"`
}

type xmlOrder struct {
	ID            string         `xml:"Id"`
	CustomerEmail string         `xml:"CustomerEmail"`
	Items         []xmlOrderItem `xml:"Items>Item"`
	Status        string         `xml:"Status,omitempty"`
	CreatedAt     string         `xml:"CreatedAt"`
}

type xmlOrderItem struct {
	ProductID string `xml:"ProductId"`
	Quantity  string `xml:"Quantity"`
	Price     string `xml:"Price"`
}

// Encode renders a snapshot as an indented XML document with a declaration.
func Encode(snap *store.Snapshot) ([]byte, error) {
	doc := xmlStore{
		Products:  make([]xmlProduct, 0, len(snap.Products)),
		Customers: make([]xmlCustomer, 0, len(snap.Customers)),
		Suppliers: make([]xmlSupplier, 0, len(snap.Suppliers)),
		Orders:    make([]xmlOrder, 0, len(snap.Orders)),
	}
	for _, p := range snap.Products {
		doc.Products = append(doc.Products, xmlProduct{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price.String(),
			Stock:       strconv.Itoa(p.Stock),
			Category:    p.Category,
		})
	}
	for _, c := range snap.Customers {
		doc.Customers = append(doc.Customers, xmlCustomer{
			Email:   c.Email,
			Name:    c.Name,
			Balance: c.Balance.String(),
		})
	}
	for _, s := range snap.Suppliers {
		doc.Suppliers = append(doc.Suppliers, xmlSupplier(s))
	}
	for _, o := range snap.Orders {
		xo := xmlOrder{
			ID:            o.ID,
			CustomerEmail: o.CustomerID,
			Items:         make([]xmlOrderItem, 0, len(o.Items)),
			Status:        string(o.Status),
			CreatedAt:     storage.FormatTime(o.CreatedAt),
		}
		for _, it := range o.Items {
			xo.Items = append(xo.Items, xmlOrderItem{
				ProductID: it.ProductID,
				Quantity:  strconv.Itoa(it.Quantity),
				Price:     it.Price.String(),
			})
		}
		doc.Orders = append(doc.Orders, xo)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal")
	}
	buf := make([]byte, 0, len(xml.Header)+len(out)+1)
	buf = append(buf, xml.Header...)
	buf = append(buf, out...)
	return append(buf, '\n'), nil
}

// Decode parses a StoreData document. Missing numeric elements read as
// zero, a missing Status as created.
func Decode(data []byte) (*store.Snapshot, error) {
	var doc xmlStore
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "unmarshal")
	}
	if err := expectEnd(dec); err != nil {
		return nil, err
	}

	snap := &store.Snapshot{}
	for _, xp := range doc.Products {
		if xp.ID == "" {
			return nil, errors.New("product: missing id")
		}
		price, err := parseDecimal(xp.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "product %s: price", xp.ID)
		}
		stock, err := parseInt(xp.Stock)
		if err != nil {
			return nil, errors.Wrapf(err, "product %s: stock", xp.ID)
		}
		snap.Products = append(snap.Products, product.Product{
			ID:          xp.ID,
			Name:        xp.Name,
			Description: xp.Description,
			Price:       price,
			Stock:       stock,
			Category:    xp.Category,
		})
	}
	for _, xc := range doc.Customers {
		if xc.Email == "" {
			return nil, errors.New("customer: missing email")
		}
		balance, err := parseDecimal(xc.Balance)
		if err != nil {
			return nil, errors.Wrapf(err, "customer %s: balance", xc.Email)
		}
		snap.Customers = append(snap.Customers, store.CustomerRecord{
			Email:   xc.Email,
			Name:    xc.Name,
			Balance: balance,
		})
	}
	for _, xs := range doc.Suppliers {
		snap.Suppliers = append(snap.Suppliers, store.SupplierRecord(xs))
	}
	for _, xo := range doc.Orders {
		o, err := decodeOrder(xo)
		if err != nil {
			return nil, errors.Wrapf(err, "order %s", xo.ID)
		}
		snap.Orders = append(snap.Orders, o)
	}
	return snap, nil
}

func decodeOrder(xo xmlOrder) (order.Order, error) {
	o := order.Order{
		ID:         xo.ID,
		CustomerID: xo.CustomerEmail,
		Status:     order.Status(strings.TrimSpace(xo.Status)),
	}
	if o.Status == "" {
		o.Status = order.StatusCreated
	}
	if s := strings.TrimSpace(xo.CreatedAt); s != "" {
		t, err := storage.ParseTime(s)
		if err != nil {
			return o, err
		}
		o.CreatedAt = t
	} else {
		o.CreatedAt = time.Now().UTC()
	}
	for _, xi := range xo.Items {
		qty, err := parseInt(xi.Quantity)
		if err != nil {
			return o, errors.Wrapf(err, "item %s: quantity", xi.ProductID)
		}
		if qty <= 0 {
			return o, errors.Errorf("item %s: invalid quantity %d", xi.ProductID, qty)
		}
		price, err := parseDecimal(xi.Price)
		if err != nil {
			return o, errors.Wrapf(err, "item %s: price", xi.ProductID)
		}
		o.Items = append(o.Items, order.OrderItem{
			ProductID: xi.ProductID,
			Quantity:  qty,
			Price:     price,
		})
	}
	return o, nil
}

// expectEnd allows only whitespace, comments and processing instructions
// after the root element.
func expectEnd(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "trailing data")
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return errors.New("unexpected text after root element")
			}
		default:
			return errors.New("unexpected content after root element")
		}
	}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// parseInt also accepts integral values written with a fraction, such as "5.0".
func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, errors.Errorf("not an integer: %q", s)
	}
	return int(d.IntPart()), nil
}
