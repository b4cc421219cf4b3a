package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/orderdesk/internal/domain/auth"
	"github.com/xenking/orderdesk/internal/domain/coupon"
	"github.com/xenking/orderdesk/internal/domain/product"
	"github.com/xenking/orderdesk/internal/storage/postgres"
)

type productJSON struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	Highlight   bool            `json:"highlight"`
}

var defaultCoupons = []coupon.Coupon{
	{Code: "WELCOME10", DiscountPercent: decimal.NewFromInt(10)},
	{Code: "HAPPYHOURS", DiscountPercent: decimal.NewFromInt(18)},
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or ORDERDESK_SEED_API_KEY env); empty skips it")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or ORDERDESK_ADMIN_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("ORDERDESK_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("ORDERDESK_ADMIN_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	// Migrations also seed the default weekly schedule.
	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCoupons(ctx, postgres.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if apiKey == "" {
		slog.Info("no api key given, skipping")
		return nil
	}
	if err := seedAPIKey(ctx, postgres.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

// seedProducts inserts products whose name is not in the catalog yet.
func seedProducts(ctx context.Context, repo product.Repository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	existing, err := repo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}
	known := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		known[p.Name] = struct{}{}
	}

	slog.Info("inserting products", slog.Int("count", len(products)), slog.Int("existing", len(existing)))

	for _, pj := range products {
		p := &product.Product{
			Name:        pj.Name,
			Description: pj.Description,
			Price:       pj.Price,
			ImageURL:    pj.ImageURL,
			Category:    pj.Category,
			Highlight:   pj.Highlight,
		}
		p.Normalize()
		if err := p.Validate(); err != nil {
			return errors.Wrapf(err, "product %q", pj.Name)
		}
		if _, ok := known[p.Name]; ok {
			slog.Info("product exists, skipping", slog.String("name", p.Name))
			continue
		}
		if err := repo.Create(ctx, p); err != nil {
			return errors.Wrapf(err, "create product %q", p.Name)
		}

		slog.Info("created product", slog.Int64("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, repo coupon.Repository) error {
	slog.Info("seeding default coupons")

	for _, c := range defaultCoupons {
		c.Normalize()
		if err := c.Validate(); err != nil {
			return errors.Wrapf(err, "coupon %s", c.Code)
		}
		err := repo.Create(ctx, &c)
		switch {
		case errors.Is(err, coupon.ErrDuplicateCode):
			slog.Info("coupon exists, skipping", slog.String("code", c.Code))
		case err != nil:
			return errors.Wrapf(err, "create coupon %s", c.Code)
		default:
			slog.Info("created coupon", slog.String("code", c.Code), slog.String("percent", c.DiscountPercent.String()))
		}
	}

	return nil
}

func seedAPIKey(ctx context.Context, repo *postgres.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding admin API key")

	created, err := repo.Create(ctx, auth.HashKey([]byte(pepper), apiKey), "Default admin key", []string{"*"})
	if err != nil {
		return errors.Wrap(err, "create admin API key")
	}

	slog.Info("admin API key", slog.Bool("created", created))

	return nil
}
