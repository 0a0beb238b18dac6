package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"merchantry.io/app/internal/modules/catalog"
	"merchantry.io/app/internal/modules/orders"
	"merchantry.io/app/internal/modules/payments"
)

func main() {
	seed := flag.Bool("seed", false, "insert a demo store with products and a shipping method")
	flag.Parse()

	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&catalog.Store{},
		&catalog.Product{},
		&catalog.Variant{},
		&catalog.ShippingMethod{},
		&catalog.DiscountCode{},
		&orders.Order{},
		&orders.OrderItem{},
		&orders.OrderCounter{},
		&payments.Payment{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate tables: %v", err)
	}
	log.Println("✓ tables migrated")

	if !*seed {
		return
	}

	ctx := context.Background()
	repo := catalog.NewRepo(db)

	store, err := repo.CreateStore(ctx, "Demo Store", "demo-store", "EUR", 1900)
	if err != nil {
		log.Fatalf("Failed to seed store: %v", err)
	}

	kettle, err := repo.CreateProduct(ctx, store.ID, "Tea Kettle", "tea-kettle", "active")
	if err != nil {
		log.Fatalf("Failed to seed product: %v", err)
	}
	if _, err := repo.AddVariant(ctx, kettle.ID, "TK-1000", 1000, "EUR", 5, true); err != nil {
		log.Fatalf("Failed to seed variant: %v", err)
	}

	if _, err := repo.AddShippingMethod(ctx, store.ID, "standard", "Standard shipping", 500); err != nil {
		log.Fatalf("Failed to seed shipping method: %v", err)
	}

	log.Printf("✓ demo store seeded (store_id=%s)", store.ID)
}
