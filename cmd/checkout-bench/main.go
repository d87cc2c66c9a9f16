// Command checkout-bench fires concurrent orders for one product at a running
// store and reports how many were accepted. With enough workers the accepted
// quantity never exceeds the stock the product started with.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/Kariqs/campus-store-api/client"
	"github.com/Kariqs/campus-store-api/models"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		baseURL  = flag.String("base", "http://localhost:8080", "store API base URL")
		email    = flag.String("email", "", "shopper email")
		password = flag.String("password", "", "shopper password")
		product  = flag.String("product", "", "product ID to order")
		qty      = flag.Int("qty", 1, "quantity per order")
		workers  = flag.Int("workers", 10, "concurrent orders")
		timeout  = flag.Duration("timeout", 30*time.Second, "overall timeout")
	)
	flag.Parse()

	if *email == "" || *password == "" || *product == "" {
		fmt.Fprintln(os.Stderr, "email, password and product are required")
		os.Exit(2)
	}
	if *qty <= 0 || *workers <= 0 {
		fmt.Fprintln(os.Stderr, "qty and workers must be positive")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	api := client.New(*baseURL)
	if _, err := api.Login(ctx, *email, *password); err != nil {
		fmt.Fprintf(os.Stderr, "login: %v\n", err)
		os.Exit(1)
	}

	before, err := api.GetProduct(ctx, *product)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get product: %v\n", err)
		os.Exit(1)
	}

	req := client.PlaceOrderRequest{
		OrderItems: []models.OrderItem{{Product: before.ID, Name: before.Name, Qty: *qty, Price: before.Price}},
		ShippingAddress: &models.ShippingAddress{
			Address:    "Bench Hall",
			City:       "Nairobi",
			PostalCode: "00100",
			Country:    "Kenya",
			Phone:      "0700000000",
		},
	}

	var accepted, outOfStock, failed atomic.Int64
	var g errgroup.Group
	start := time.Now()
	for i := 0; i < *workers; i++ {
		g.Go(func() error {
			_, err := api.PlaceOrder(ctx, req)
			switch {
			case err == nil:
				accepted.Add(1)
			case client.IsInsufficientStock(err):
				outOfStock.Add(1)
			default:
				failed.Add(1)
				if errors.Is(err, client.ErrUnavailable) {
					return err
				}
			}
			return nil
		})
	}
	waitErr := g.Wait()
	elapsed := time.Since(start)

	after, err := api.GetProduct(ctx, *product)
	if err != nil {
		fmt.Fprintf(os.Stderr, "get product: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("orders: %d accepted, %d out of stock, %d failed in %s\n",
		accepted.Load(), outOfStock.Load(), failed.Load(), elapsed.Round(time.Millisecond))
	fmt.Printf("stock: %d -> %d (sold %d)\n", before.CountInStock, after.CountInStock, accepted.Load()*int64(*qty))
	if waitErr != nil {
		fmt.Fprintf(os.Stderr, "aborted: %v\n", waitErr)
		os.Exit(1)
	}
	if int64(before.CountInStock-after.CountInStock) != accepted.Load()*int64(*qty) {
		fmt.Fprintln(os.Stderr, "stock drift detected")
		os.Exit(1)
	}
}
