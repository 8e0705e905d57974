// restore-seed loads a small demo catalogue and customer list so a fresh
// database can be tried out from the REPL or the API. Items that already
// exist are left alone.
//
// Usage: go run ./cmd/restore-seed
package main

import (
	"context"
	"errors"
	"log"

	"varehus/internal/app"
	"varehus/internal/config"
	"varehus/internal/core"
	"varehus/internal/logging"
)

var seedItems = []app.SaveItemRequest{
	{ItemID: "V001", Description: "Skrutrekker", UnitPrice: "49.90", InStock: 120},
	{ItemID: "V002", Description: "Hammer", UnitPrice: "199.90", InStock: 40},
	{ItemID: "V010", Description: "Syltetøy", UnitPrice: "100.00", InStock: 50},
	{ItemID: "V011", Description: "Kaffekjele", UnitPrice: "250.00", InStock: 5},
	{ItemID: "V020", Description: "Vinterlue", UnitPrice: "129.00", InStock: 8},
}

var seedCustomers = []app.SaveCustomerRequest{
	{FirstName: "Per", LastName: "Hansen", Address: "Fjordveien 3", PostalCode: "5003", Email: "per@example.no"},
	{FirstName: "Kari", LastName: "Nordmann", Address: "Storgata 12", PostalCode: "0155", Phone: "22334455"},
	{FirstName: "Ola", LastName: "Berg", Address: "Bakken 7", PostalCode: "7010"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.Database.AutoMigrate = true

	ctx := context.Background()
	rt, err := app.Open(ctx, cfg, logging.Discard())
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer rt.Close()

	log.Println("Restoring items...")
	for _, req := range seedItems {
		req.Create = true
		if _, err := rt.App.SaveItem(ctx, req); err != nil {
			var conflict *core.ConflictError
			if errors.As(err, &conflict) {
				log.Printf("  %s already exists, skipped", req.ItemID)
				continue
			}
			log.Fatalf("Failed to create item %s: %v", req.ItemID, err)
		}
		log.Printf("  %s %s", req.ItemID, req.Description)
	}

	existing, err := rt.App.ListCustomers(ctx)
	if err != nil {
		log.Fatalf("Failed to list customers: %v", err)
	}
	if len(existing.Customers) > 0 {
		log.Printf("%d active customers found, customers left unchanged.", len(existing.Customers))
		return
	}

	log.Println("Restoring customers...")
	for _, req := range seedCustomers {
		c, err := rt.App.SaveCustomer(ctx, req)
		if err != nil {
			log.Fatalf("Failed to create customer %s %s: %v", req.FirstName, req.LastName, err)
		}
		log.Printf("  %d %s %s", c.ID, c.FirstName, c.LastName)
	}
	log.Println("Seed data restored.")
}
