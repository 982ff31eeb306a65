package console

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/electrostore/internal/domain/product"
	"github.com/xenking/electrostore/internal/domain/storeerr"
)

func (c *Console) managerMenu(ctx context.Context) error {
	for {
		c.printf("\n--- Manager ---\n")
		c.printf("1. List products\n2. Add product\n3. Change price and stock\n4. Delete product\n")
		c.printf("5. List orders\n6. Add supplier\n7. Order supply\n0. Back\n")
		choice, err := c.prompt("Choose an action: ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			c.printCatalog()
		case "2":
			err = c.addProduct(ctx)
		case "3":
			err = c.changeProduct(ctx)
		case "4":
			err = c.deleteProduct(ctx)
		case "5":
			c.printOrders(c.store.Orders.List())
		case "6":
			err = c.addSupplier(ctx)
		case "7":
			err = c.orderSupply(ctx)
		case "0":
			return nil
		default:
			c.printf("Unknown option.\n")
		}
		if err != nil {
			return err
		}
	}
}

func (c *Console) addProduct(ctx context.Context) error {
	var (
		p   product.Product
		err error
	)
	if p.ID, err = c.prompt("ID: "); err != nil {
		return err
	}
	if p.Name, err = c.prompt("Name: "); err != nil {
		return err
	}
	if p.Description, err = c.prompt("Description: "); err != nil {
		return err
	}
	if p.Category, err = c.prompt("Category: "); err != nil {
		return err
	}
	price, ok, err := c.promptDecimal("Price: ")
	if err != nil || !ok {
		return err
	}
	stock, ok, err := c.promptInt("Stock: ")
	if err != nil || !ok {
		return err
	}
	p.Price, p.Stock = price, stock

	if err := c.store.Inventory.Add(p); err != nil {
		c.fail(ctx, err)
		return nil
	}
	zctx.From(ctx).Info("Product added", zap.String("product.id", p.ID))
	c.printf("Product %s added.\n", p.ID)
	return nil
}

func (c *Console) changeProduct(ctx context.Context) error {
	id, err := c.prompt("Product ID: ")
	if err != nil {
		return err
	}
	if _, ok := c.store.Inventory.Find(id); !ok {
		c.fail(ctx, &storeerr.NotFoundError{Entity: "product", ID: id})
		return nil
	}
	price, ok, err := c.promptDecimal("New price: ")
	if err != nil || !ok {
		return err
	}
	stock, ok, err := c.promptInt("New stock: ")
	if err != nil || !ok {
		return err
	}

	// Both values are checked up front so a rejected edit changes nothing.
	if stock < 0 {
		c.fail(ctx, &storeerr.InvalidQuantityError{ProductID: id, Quantity: stock})
		return nil
	}
	if price.IsNegative() {
		c.fail(ctx, &storeerr.InvalidPriceError{ProductID: id, Price: price})
		return nil
	}
	if err := c.store.Inventory.SetPrice(id, price); err != nil {
		c.fail(ctx, err)
		return nil
	}
	if err := c.store.Inventory.UpdateStock(id, stock); err != nil {
		c.fail(ctx, err)
		return nil
	}
	c.printf("Product %s updated.\n", id)
	return nil
}

func (c *Console) deleteProduct(ctx context.Context) error {
	id, err := c.prompt("Product ID to delete: ")
	if err != nil {
		return err
	}
	if err := c.store.Inventory.Remove(id); err != nil {
		c.fail(ctx, err)
		return nil
	}
	zctx.From(ctx).Info("Product removed", zap.String("product.id", id))
	c.printf("Product %s deleted.\n", id)
	return nil
}

func (c *Console) addSupplier(ctx context.Context) error {
	name, err := c.prompt("Supplier name: ")
	if err != nil {
		return err
	}
	contact, err := c.prompt("Contact: ")
	if err != nil {
		return err
	}
	c.store.Suppliers.Add(name, contact)
	zctx.From(ctx).Info("Supplier added", zap.String("supplier", name))
	c.printf("Supplier %s added.\n", name)
	return nil
}

func (c *Console) orderSupply(ctx context.Context) error {
	suppliers := c.store.Suppliers.List()
	if len(suppliers) == 0 {
		c.printf("No suppliers.\n")
		return nil
	}
	for i, s := range suppliers {
		c.printf("%d. %s (%s)\n", i+1, s.Name, s.Contact)
	}
	n, ok, err := c.promptInt("Select: ")
	if err != nil || !ok {
		return err
	}
	sup, err := c.store.Suppliers.Get(n - 1)
	if err != nil {
		c.fail(ctx, err)
		return nil
	}
	id, err := c.prompt("Product ID to restock: ")
	if err != nil {
		return err
	}
	qty, ok, err := c.promptInt("Quantity: ")
	if err != nil || !ok {
		return err
	}
	if err := sup.Supply(c.store.Inventory, id, qty); err != nil {
		c.fail(ctx, err)
		return nil
	}
	p, _ := c.store.Inventory.Find(id)
	zctx.From(ctx).Info("Supply received",
		zap.String("supplier", sup.Name),
		zap.String("product.id", id),
		zap.Int("quantity", qty),
	)
	c.printf("Stock of %s is now %d.\n", id, p.Stock)
	return nil
}
