// Package console implements the interactive back-office menus over an
// io.Reader and io.Writer.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/electrostore/internal/domain/cart"
	"github.com/xenking/electrostore/internal/domain/customer"
	"github.com/xenking/electrostore/internal/domain/order"
	"github.com/xenking/electrostore/internal/store"
)

// Config controls console behaviour.
type Config struct {
	// ManagerPassword unlocks the manager menu.
	ManagerPassword string
	// Save persists the store. Called by "save and exit".
	Save func(ctx context.Context) error
}

// Console is a menu-driven session over a Store. Carts live for the
// duration of the session and are not persisted.
type Console struct {
	store  *store.Store
	orders *order.Service
	cfg    Config

	in    *bufio.Scanner
	out   io.Writer
	carts map[string]*cart.Cart
}

// New creates a Console reading commands from in and writing to out.
func New(st *store.Store, orders *order.Service, in io.Reader, out io.Writer, cfg Config) *Console {
	return &Console{
		store:  st,
		orders: orders,
		cfg:    cfg,
		in:     bufio.NewScanner(in),
		out:    out,
		carts:  make(map[string]*cart.Cart),
	}
}

// Run serves the main menu until the user exits or the input ends. End of
// input exits without saving.
func (c *Console) Run(ctx context.Context) error {
	lg := zctx.From(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.printf("\n=== Electronics store ===\n")
		c.printf("1. Manager\n2. Customer\n0. Save and exit\n9. Exit without saving\n")
		choice, err := c.prompt("Your choice: ")
		if err != nil {
			return c.inputEnd(ctx, err)
		}

		switch choice {
		case "1":
			err = c.managerLogin(ctx)
		case "2":
			err = c.customerLogin(ctx)
		case "0":
			if c.cfg.Save != nil {
				if err := c.cfg.Save(ctx); err != nil {
					lg.Error("Save failed", zap.Error(err))
					c.printf("Error: %v\n", err)
					c.printf("Save failed. Try again or choose 9 to exit without saving.\n")
					continue
				}
			}
			c.printf("Data saved. Goodbye!\n")
			return nil
		case "9":
			lg.Info("Exiting without saving")
			c.printf("Goodbye!\n")
			return nil
		default:
			c.printf("Unknown option.\n")
		}
		if err != nil {
			return c.inputEnd(ctx, err)
		}
	}
}

func (c *Console) managerLogin(ctx context.Context) error {
	pwd, err := c.prompt("Manager password: ")
	if err != nil {
		return err
	}
	if pwd != c.cfg.ManagerPassword {
		zctx.From(ctx).Warn("Manager login rejected")
		c.printf("Wrong password.\n")
		return nil
	}
	return c.managerMenu(ctx)
}

func (c *Console) customerLogin(ctx context.Context) error {
	email, err := c.prompt("Email: ")
	if err != nil {
		return err
	}
	cust, ok := c.store.Customers.Find(email)
	if !ok {
		answer, err := c.prompt("Customer not found. Register? (y/n): ")
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "y") {
			return nil
		}
		name, err := c.prompt("Name: ")
		if err != nil {
			return err
		}
		balance, ok, err := c.promptDecimal("Initial balance: ")
		if err != nil || !ok {
			return err
		}
		cust, err = c.store.Customers.Register(email, name, balance)
		if err != nil {
			c.fail(ctx, err)
			return nil
		}
		zctx.From(ctx).Info("Customer registered", zap.String("email", email))
	}
	c.printf("Welcome, %s!\n", cust.Name)
	return c.customerMenu(ctx, cust)
}

// inputEnd turns end of input into a clean exit.
func (c *Console) inputEnd(ctx context.Context, err error) error {
	if errors.Is(err, io.EOF) {
		zctx.From(ctx).Info("Input closed, exiting without saving")
		return nil
	}
	return err
}

// prompt prints label and reads one trimmed line. It returns io.EOF when
// the input is exhausted.
func (c *Console) prompt(label string) (string, error) {
	c.printf("%s", label)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", errors.Wrap(err, "read input")
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

// promptInt reads an integer. ok is false when the input is not a number;
// the message has already been printed.
func (c *Console) promptInt(label string) (n int, ok bool, err error) {
	s, err := c.prompt(label)
	if err != nil {
		return 0, false, err
	}
	n, perr := strconv.Atoi(s)
	if perr != nil {
		c.printf("Invalid number: %q\n", s)
		return 0, false, nil
	}
	return n, true, nil
}

// promptDecimal reads a money amount. ok is false when the input is not a
// number; the message has already been printed.
func (c *Console) promptDecimal(label string) (v decimal.Decimal, ok bool, err error) {
	s, err := c.prompt(label)
	if err != nil {
		return decimal.Zero, false, err
	}
	v, perr := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if perr != nil {
		c.printf("Invalid amount: %q\n", s)
		return decimal.Zero, false, nil
	}
	return v, true, nil
}

// fail reports a domain error and returns control to the menu.
func (c *Console) fail(ctx context.Context, err error) {
	zctx.From(ctx).Debug("Operation rejected", zap.Error(err))
	c.printf("Error: %v\n", err)
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func money(v decimal.Decimal) string {
	return v.StringFixed(2)
}

func (c *Console) printCatalog() {
	products := c.store.Inventory.List()
	if len(products) == 0 {
		c.printf("Catalog is empty.\n")
		return
	}
	for _, p := range products {
		category := "-"
		if p.HasCategory() {
			category = p.Category
		}
		c.printf("%s | %s | %s | %s | stock: %d\n", p.ID, p.Name, category, money(p.Price), p.Stock)
		if p.Description != "" {
			c.printf("    %s\n", p.Description)
		}
	}
}

func (c *Console) printOrders(orders []*order.Order) {
	if len(orders) == 0 {
		c.printf("No orders.\n")
		return
	}
	for _, o := range orders {
		c.printf("%s | %s | %s | %s | total: %s\n",
			o.ID, o.CustomerID, o.CreatedAt.Format("2006-01-02 15:04:05"), o.Status, money(o.Total()))
		for _, it := range o.Items {
			c.printf("    %s x%d @ %s\n", it.ProductID, it.Quantity, money(it.Price))
		}
	}
}

func (c *Console) cartFor(cust *customer.Customer) *cart.Cart {
	crt, ok := c.carts[cust.Email]
	if !ok {
		crt = cart.New(cust.Email)
		c.carts[cust.Email] = crt
	}
	return crt
}
