package console

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xenking/electrostore/internal/domain/customer"
	"github.com/xenking/electrostore/internal/domain/payment"
	"github.com/xenking/electrostore/internal/domain/storeerr"
)

const topUpMethod = "card"

func (c *Console) customerMenu(ctx context.Context, cust *customer.Customer) error {
	for {
		c.printf("\n--- %s (balance: %s) ---\n", cust.Name, money(cust.Balance))
		c.printf("1. Catalog\n2. Buy\n3. My orders\n4. Add to cart\n5. Remove from cart\n")
		c.printf("6. Show cart\n7. Checkout cart\n8. Top up balance\n0. Back\n")
		choice, err := c.prompt("Choose an action: ")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			c.printCatalog()
		case "2":
			err = c.buy(ctx, cust)
		case "3":
			c.printOrders(c.store.Orders.ByCustomer(cust.Email))
		case "4":
			err = c.addToCart(ctx, cust)
		case "5":
			err = c.removeFromCart(cust)
		case "6":
			c.showCart(cust)
		case "7":
			c.checkout(ctx, cust)
		case "8":
			err = c.topUp(ctx, cust)
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

func (c *Console) buy(ctx context.Context, cust *customer.Customer) error {
	id, err := c.prompt("Product ID: ")
	if err != nil {
		return err
	}
	qty, ok, err := c.promptInt("Quantity: ")
	if err != nil || !ok {
		return err
	}
	o, err := c.orders.Purchase(ctx, cust, id, qty)
	if err != nil {
		c.fail(ctx, err)
		return nil
	}
	c.printf("Order %s placed, total %s. Balance: %s\n", o.ID, money(o.Total()), money(cust.Balance))
	return nil
}

func (c *Console) addToCart(ctx context.Context, cust *customer.Customer) error {
	id, err := c.prompt("Product ID: ")
	if err != nil {
		return err
	}
	qty, ok, err := c.promptInt("Quantity: ")
	if err != nil || !ok {
		return err
	}
	if _, found := c.store.Inventory.Find(id); !found {
		c.fail(ctx, &storeerr.NotFoundError{Entity: "product", ID: id})
		return nil
	}
	crt := c.cartFor(cust)
	if err := crt.Add(id, qty); err != nil {
		c.fail(ctx, err)
		return nil
	}
	c.printf("Cart: %s x%d.\n", id, crt.Quantity(id))
	return nil
}

func (c *Console) removeFromCart(cust *customer.Customer) error {
	id, err := c.prompt("Product ID: ")
	if err != nil {
		return err
	}
	qty, ok, err := c.promptInt("Quantity to remove (0 for all): ")
	if err != nil || !ok {
		return err
	}
	crt := c.cartFor(cust)
	crt.Remove(id, qty)
	c.printf("Cart: %s x%d.\n", id, crt.Quantity(id))
	return nil
}

func (c *Console) showCart(cust *customer.Customer) {
	crt := c.cartFor(cust)
	if crt.Len() == 0 {
		c.printf("Cart is empty.\n")
		return
	}
	total := decimal.Zero
	for _, it := range crt.Items() {
		p, ok := c.store.Inventory.Find(it.ProductID)
		if !ok {
			c.printf("%s x%d (no longer available)\n", it.ProductID, it.Quantity)
			continue
		}
		sub := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(sub)
		c.printf("%s | %s x%d @ %s = %s\n", p.ID, p.Name, it.Quantity, money(p.Price), money(sub))
	}
	c.printf("Total: %s\n", money(total))
}

func (c *Console) checkout(ctx context.Context, cust *customer.Customer) {
	o, err := c.orders.Checkout(ctx, cust, c.cartFor(cust))
	if err != nil {
		c.fail(ctx, err)
		return
	}
	c.printf("Order %s placed, total %s. Balance: %s\n", o.ID, money(o.Total()), money(cust.Balance))
}

func (c *Console) topUp(ctx context.Context, cust *customer.Customer) error {
	amount, ok, err := c.promptDecimal("Amount: ")
	if err != nil || !ok {
		return err
	}
	p := payment.New("", amount, topUpMethod)
	if err := p.Process(); err != nil {
		c.fail(ctx, err)
		return nil
	}
	cust.Credit(amount)
	c.printf("Payment %s completed. Balance: %s\n", p.ID, money(cust.Balance))
	return nil
}
