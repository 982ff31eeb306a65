package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/electrostore/internal/domain/order"
	"github.com/xenking/electrostore/internal/domain/product"
	"github.com/xenking/electrostore/internal/domain/storeerr"
	"github.com/xenking/electrostore/internal/store"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func testSnapshot() *store.Snapshot {
	return &store.Snapshot{
		Products: []product.Product{
			{ID: "p1", Name: "Телевизор", Description: "55\" 4K", Price: d("499.99"), Stock: 4, Category: "video"},
			{ID: "p2", Name: "Cable", Description: "", Price: d("5"), Stock: 0},
		},
		Customers: []store.CustomerRecord{
			{Email: "alice@example.com", Name: "Alice", Balance: d("1000.5")},
		},
		Suppliers: []store.SupplierRecord{
			{Name: "Acme", Contact: "acme@example.com"},
		},
		Orders: []order.Order{
			{
				ID:         "oabc12345",
				CustomerID: "alice@example.com",
				Items: []order.OrderItem{
					{ProductID: "p1", Quantity: 2, Price: d("450")},
					{ProductID: "p2", Quantity: 1, Price: d("5.5")},
				},
				Status:    order.StatusCreated,
				CreatedAt: time.Date(2025, 3, 4, 5, 6, 7, 891000, time.UTC),
			},
		},
	}
}

func assertSnapshotEqual(t *testing.T, want, got *store.Snapshot) {
	t.Helper()

	require.Len(t, got.Products, len(want.Products))
	for i, p := range want.Products {
		g := got.Products[i]
		assert.Equal(t, p.ID, g.ID)
		assert.Equal(t, p.Name, g.Name)
		assert.Equal(t, p.Description, g.Description)
		assert.True(t, p.Price.Equal(g.Price), "price %s != %s", p.Price, g.Price)
		assert.Equal(t, p.Stock, g.Stock)
		assert.Equal(t, p.Category, g.Category)
	}

	require.Len(t, got.Customers, len(want.Customers))
	for i, c := range want.Customers {
		assert.Equal(t, c.Email, got.Customers[i].Email)
		assert.Equal(t, c.Name, got.Customers[i].Name)
		assert.True(t, c.Balance.Equal(got.Customers[i].Balance))
	}

	assert.Equal(t, want.Suppliers, got.Suppliers)

	require.Len(t, got.Orders, len(want.Orders))
	for i, o := range want.Orders {
		g := got.Orders[i]
		assert.Equal(t, o.ID, g.ID)
		assert.Equal(t, o.CustomerID, g.CustomerID)
		assert.Equal(t, o.Status, g.Status)
		assert.True(t, o.CreatedAt.Equal(g.CreatedAt))
		assert.True(t, o.Total().Equal(g.Total()))
		require.Len(t, g.Items, len(o.Items))
		for j, it := range o.Items {
			assert.Equal(t, it.ProductID, g.Items[j].ProductID)
			assert.Equal(t, it.Quantity, g.Items[j].Quantity)
			assert.True(t, it.Price.Equal(g.Items[j].Price))
		}
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	want := testSnapshot()

	got, err := Decode(Encode(want))
	require.NoError(t, err)
	assertSnapshotEqual(t, want, got)
}

func TestEncode_Layout(t *testing.T) {
	out := Encode(testSnapshot())
	require.True(t, json.Valid(out))

	text := string(out)
	assert.Contains(t, text, "Телевизор", "non-ASCII text must not be escaped")
	assert.NotContains(t, text, `\u04`)

	lines := strings.Split(text, "\n")
	require.Greater(t, len(lines), 2)
	assert.Equal(t, "{", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], `  "inventory"`), "got %q", lines[1])

	var doc struct {
		Inventory struct {
			Products []map[string]any `json:"products"`
		} `json:"inventory"`
		Customers []map[string]any `json:"customers"`
		Suppliers []map[string]any `json:"suppliers"`
		Orders    []map[string]any `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	require.Len(t, doc.Inventory.Products, 2)
	assert.Nil(t, doc.Inventory.Products[1]["category"])
	assert.Equal(t, 499.99, doc.Inventory.Products[0]["price"])
	require.Len(t, doc.Orders, 1)
	assert.Equal(t, 905.5, doc.Orders[0]["total"])
	assert.Equal(t, "2025-03-04T05:06:07.000891Z", doc.Orders[0]["created_at"])
	assert.Len(t, doc.Customers, 1)
	assert.Len(t, doc.Suppliers, 1)
}

func TestEncode_EmptySnapshot(t *testing.T) {
	out := Encode(&store.Snapshot{})
	require.True(t, json.Valid(out))

	text := string(out)
	assert.Regexp(t, `"products": \[\]`, text)
	assert.Regexp(t, `"suppliers": \[\]`, text)
	assert.Regexp(t, `"orders": \[\]`, text)
	for i, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		assert.NotEmpty(t, strings.TrimSpace(line), "blank line %d in %q", i, text)
	}

	snap := testSnapshot()
	snap.Orders[0].Items = nil
	assert.Regexp(t, `"items": \[\]`, string(Encode(snap)))

	got, err := Decode(out)
	require.NoError(t, err)
	assert.Empty(t, got.Products)
}

func TestDecode_TrailingWhitespace(t *testing.T) {
	_, err := Decode([]byte("{}\n\t \n"))
	require.NoError(t, err)
}

func TestDecode_LegacyDocument(t *testing.T) {
	const doc = `{
  "inventory": {"products": [
    {"id": "p1", "name": "Ноутбук", "description": "14", "price": 5.0, "stock": 10, "category": null}
  ]},
  "customers": [{"email": "bob@example.com", "name": "Bob", "balance": 500.0}],
  "orders": [{
    "id": "o1a2b3c4",
    "customer_id": "bob@example.com",
    "items": [{"product_id": "p1", "quantity": 2, "price": 5.0}],
    "created_at": "2024-05-06T07:08:09.123456",
    "total": 10.0,
    "extra": {"ignored": [1, 2, 3]}
  }]
}`
	snap, err := Decode([]byte(doc))
	require.NoError(t, err)

	require.Len(t, snap.Products, 1)
	assert.Equal(t, "Ноутбук", snap.Products[0].Name)
	assert.True(t, d("5").Equal(snap.Products[0].Price))
	assert.False(t, snap.Products[0].HasCategory())
	assert.Empty(t, snap.Suppliers)

	require.Len(t, snap.Orders, 1)
	o := snap.Orders[0]
	assert.Equal(t, order.StatusCreated, o.Status)
	assert.True(t, time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.UTC).Equal(o.CreatedAt))
	assert.True(t, d("10").Equal(o.Total()))
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "truncated", doc: `{"inventory": {"products": [`},
		{name: "not an object", doc: `[1, 2]`},
		{name: "stock is a string", doc: `{"inventory": {"products": [{"id": "p1", "stock": "many"}]}}`},
		{name: "bad price", doc: `{"inventory": {"products": [{"id": "p1", "price": "cheap"}]}}`},
		{name: "product without id", doc: `{"inventory": {"products": [{"name": "ghost"}]}}`},
		{name: "bad timestamp", doc: `{"orders": [{"id": "o1", "created_at": "soon"}]}`},
		{name: "trailing text", doc: `{"customers": []} garbage`},
		{name: "second object", doc: `{}{}`},
		{name: "trailing number", doc: "{}\n1"},
		{name: "zero item quantity", doc: `{"orders": [{"id": "o1", "items": [{"product_id": "p1", "quantity": 0, "price": 1}]}]}`},
		{name: "negative item quantity", doc: `{"orders": [{"id": "o1", "items": [{"product_id": "p1", "quantity": -3, "price": 1}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestRepository(t *testing.T) {
	ctx := context.Background()

	for _, name := range []string{"data.json", "data.json.gz"} {
		t.Run(name, func(t *testing.T) {
			repo := New(filepath.Join(t.TempDir(), name))

			empty, err := repo.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, empty.Products)
			assert.Empty(t, empty.Orders)

			want := testSnapshot()
			require.NoError(t, repo.Save(ctx, want))

			got, err := repo.Load(ctx)
			require.NoError(t, err)
			assertSnapshotEqual(t, want, got)
		})
	}
}

func TestRepository_MalformedFile(t *testing.T) {
	for _, doc := range []string{
		`{"inventory": `,
		`{"customers": []} {"customers": []}`,
		`{"orders": [{"id": "o1", "items": [{"product_id": "p1", "quantity": -1, "price": 1}]}]}`,
	} {
		path := filepath.Join(t.TempDir(), "data.json")
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

		_, err := New(path).Load(context.Background())

		require.ErrorIs(t, err, storeerr.ErrSerialization, doc)
		var se *storeerr.SerializationError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, path, se.Source)
	}
}

func TestRepository_UnrestorableSnapshot(t *testing.T) {
	const doc = `{
  "inventory": {"products": [
    {"id": "p1", "name": "TV", "price": 10, "stock": 1},
    {"id": "p1", "name": "TV again", "price": 10, "stock": 1}
  ]}
}`
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	_, err := store.Load(context.Background(), New(path))

	require.ErrorIs(t, err, storeerr.ErrSerialization)
	require.ErrorIs(t, err, storeerr.ErrDuplicateProduct)
	var se *storeerr.SerializationError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, path, se.Source)
}
