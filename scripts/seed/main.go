// Package main implements a standalone seed script that populates the
// storefront catalog database with realistic Bangladeshi grocery data:
// categories and a few hundred products with prices, discounts, and stock.
// It writes directly to PostgreSQL and is safe to re-run: IDs are derived
// deterministically from the product slug, and inserts skip existing rows.
//
// Run: cd scripts/seed && go run main.go
package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// deterministicUUID produces a stable UUID-shaped string from a namespace
// and a name so that re-runs always produce the same row IDs.
func deterministicUUID(namespace, name string) string {
	h := sha256.Sum256([]byte(namespace + ":" + name))
	hex := fmt.Sprintf("%x", h[:16])
	return fmt.Sprintf("%s-%s-4%s-%x%s-%s",
		hex[0:8],
		hex[8:12],
		hex[13:16],
		0x8|(h[8]&0x3),
		hex[17:20],
		hex[20:32],
	)
}

func slugify(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "-")
	return s
}

type categoryDef struct {
	Name  string
	Image string
}

var categories = []categoryDef{
	{"Fresh Vegetables", "https://cdn.dhakaagro.com/categories/vegetables.jpg"},
	{"Fresh Fruits", "https://cdn.dhakaagro.com/categories/fruits.jpg"},
	{"Fish and Meat", "https://cdn.dhakaagro.com/categories/fish-meat.jpg"},
	{"Dairy and Eggs", "https://cdn.dhakaagro.com/categories/dairy.jpg"},
	{"Rice and Lentils", "https://cdn.dhakaagro.com/categories/rice-lentils.jpg"},
	{"Spices and Oil", "https://cdn.dhakaagro.com/categories/spices.jpg"},
	{"Snacks and Sweets", "https://cdn.dhakaagro.com/categories/snacks.jpg"},
	{"Beverages", "https://cdn.dhakaagro.com/categories/beverages.jpg"},
}

// productDef is a seed product. Prices are in poisha (1 BDT = 100 poisha).
type productDef struct {
	Category string
	Name     string
	Unit     string
	Price    int64
}

var products = []productDef{
	{"Fresh Vegetables", "Local Potato", "kg", 3500},
	{"Fresh Vegetables", "Red Tomato", "kg", 6000},
	{"Fresh Vegetables", "Green Chili", "kg", 12000},
	{"Fresh Vegetables", "Onion Deshi", "kg", 8500},
	{"Fresh Vegetables", "Garlic Imported", "kg", 18000},
	{"Fresh Vegetables", "Ginger", "kg", 22000},
	{"Fresh Vegetables", "Cauliflower", "piece", 4000},
	{"Fresh Vegetables", "Cabbage", "piece", 3500},
	{"Fresh Vegetables", "Brinjal Long", "kg", 7000},
	{"Fresh Vegetables", "Okra", "kg", 6500},
	{"Fresh Vegetables", "Bottle Gourd", "piece", 5500},
	{"Fresh Vegetables", "Bitter Gourd", "kg", 8000},
	{"Fresh Vegetables", "Spinach Bunch", "bunch", 2500},
	{"Fresh Vegetables", "Red Amaranth", "bunch", 2000},
	{"Fresh Vegetables", "Coriander Leaves", "bunch", 1500},
	{"Fresh Vegetables", "Cucumber", "kg", 5000},
	{"Fresh Vegetables", "Carrot", "kg", 6500},
	{"Fresh Vegetables", "Green Papaya", "kg", 4500},

	{"Fresh Fruits", "Fresh Mango Himsagar", "kg", 14000},
	{"Fresh Fruits", "Fresh Mango Langra", "kg", 12000},
	{"Fresh Fruits", "Rajshahi Litchi", "100 pcs", 35000},
	{"Fresh Fruits", "Banana Sagor", "dozen", 9000},
	{"Fresh Fruits", "Green Coconut", "piece", 8000},
	{"Fresh Fruits", "Jackfruit", "kg", 6000},
	{"Fresh Fruits", "Guava Thai", "kg", 8500},
	{"Fresh Fruits", "Papaya Ripe", "kg", 9500},
	{"Fresh Fruits", "Watermelon", "kg", 4500},
	{"Fresh Fruits", "Malta Imported", "kg", 22000},
	{"Fresh Fruits", "Apple Gala", "kg", 28000},
	{"Fresh Fruits", "Pomegranate", "kg", 32000},

	{"Fish and Meat", "Hilsa Fish Large", "kg", 160000},
	{"Fish and Meat", "Rui Fish", "kg", 38000},
	{"Fish and Meat", "Katla Fish", "kg", 36000},
	{"Fish and Meat", "Pangas Fish", "kg", 18000},
	{"Fish and Meat", "Tilapia Fish", "kg", 20000},
	{"Fish and Meat", "Shrimp Medium", "kg", 70000},
	{"Fish and Meat", "Beef Bone In", "kg", 78000},
	{"Fish and Meat", "Mutton", "kg", 110000},
	{"Fish and Meat", "Chicken Broiler", "kg", 19000},
	{"Fish and Meat", "Chicken Deshi", "kg", 55000},

	{"Dairy and Eggs", "Farm Eggs", "dozen", 14500},
	{"Dairy and Eggs", "Deshi Eggs", "dozen", 22000},
	{"Dairy and Eggs", "Fresh Milk Pasteurized", "liter", 9500},
	{"Dairy and Eggs", "Yogurt Sweet Bogra", "500 g", 16000},
	{"Dairy and Eggs", "Butter Salted", "200 g", 28000},
	{"Dairy and Eggs", "Cheese Processed", "200 g", 32000},
	{"Dairy and Eggs", "Ghee Pure", "400 g", 75000},

	{"Rice and Lentils", "Miniket Rice Premium", "kg", 7800},
	{"Rice and Lentils", "Nazirshail Rice", "kg", 8500},
	{"Rice and Lentils", "Chinigura Aromatic Rice", "kg", 14500},
	{"Rice and Lentils", "Atop Rice", "kg", 7000},
	{"Rice and Lentils", "Red Lentils", "kg", 13500},
	{"Rice and Lentils", "Moong Dal", "kg", 16500},
	{"Rice and Lentils", "Chickpeas", "kg", 11000},
	{"Rice and Lentils", "Flattened Rice", "kg", 8000},
	{"Rice and Lentils", "Wheat Flour", "kg", 6000},

	{"Spices and Oil", "Soybean Oil", "liter", 17500},
	{"Spices and Oil", "Mustard Oil Pure", "liter", 32000},
	{"Spices and Oil", "Turmeric Powder", "200 g", 9000},
	{"Spices and Oil", "Red Chili Powder", "200 g", 12000},
	{"Spices and Oil", "Cumin Whole", "100 g", 11000},
	{"Spices and Oil", "Cardamom Green", "50 g", 25000},
	{"Spices and Oil", "Cinnamon Sticks", "100 g", 8500},
	{"Spices and Oil", "Salt Iodized", "kg", 4000},
	{"Spices and Oil", "Sugar White", "kg", 13000},

	{"Snacks and Sweets", "Chanachur Spicy", "300 g", 9000},
	{"Snacks and Sweets", "Muri Puffed Rice", "500 g", 6500},
	{"Snacks and Sweets", "Biscuits Toast", "350 g", 7500},
	{"Snacks and Sweets", "Roshogolla Tin", "1 kg", 32000},
	{"Snacks and Sweets", "Date Palm Jaggery", "kg", 38000},
	{"Snacks and Sweets", "Peanuts Roasted", "250 g", 8000},

	{"Beverages", "Black Tea Loose", "500 g", 22000},
	{"Beverages", "Instant Coffee", "100 g", 35000},
	{"Beverages", "Mango Juice", "liter", 14000},
	{"Beverages", "Drinking Water", "5 liter", 9000},
	{"Beverages", "Lemon Soda", "liter", 8500},
}

func main() {
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "storefront")
	pass := getEnv("POSTGRES_PASSWORD", "storefront_secret")
	db := getEnv("POSTGRES_DB_NAME", "storefront")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, db)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping postgres: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	now := time.Now().UTC()

	categoryIDs := make(map[string]string, len(categories))
	for _, c := range categories {
		slug := slugify(c.Name)
		id := deterministicUUID("category", slug)
		categoryIDs[c.Name] = id

		_, err := pool.Exec(ctx,
			`INSERT INTO categories (id, name, slug, image, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $5)
			 ON CONFLICT (id) DO NOTHING`,
			id, c.Name, slug, c.Image, now,
		)
		if err != nil {
			log.Fatalf("insert category %q: %v", c.Name, err)
		}
	}
	log.Printf("seeded %d categories", len(categories))

	inserted := 0
	for _, p := range products {
		slug := slugify(p.Name)
		id := deterministicUUID("product", slug)

		// Roughly a quarter of products carry a discount.
		discount := 0
		if rng.Intn(4) == 0 {
			discount = 5 + rng.Intn(4)*5
		}
		stock := 20 + rng.Intn(180)
		image := fmt.Sprintf("https://cdn.dhakaagro.com/products/%s.jpg", slug)
		description := fmt.Sprintf("%s, sold per %s. Sourced fresh for daily delivery across Dhaka.", p.Name, p.Unit)

		ct, err := pool.Exec(ctx,
			`INSERT INTO products (id, name, slug, description, category_id, price, discount_percent, stock, unit, images, is_active, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, $11, $11)
			 ON CONFLICT (id) DO NOTHING`,
			id, p.Name, slug, description, categoryIDs[p.Category],
			p.Price, discount, stock, p.Unit, []string{image}, now,
		)
		if err != nil {
			log.Fatalf("insert product %q: %v", p.Name, err)
		}
		inserted += int(ct.RowsAffected())
	}
	log.Printf("seeded %d products (%d new)", len(products), inserted)
}
