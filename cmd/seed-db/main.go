// Command seed-db loads a drug catalog from a JSON file and provisions a demo
// client with an API key bound to it.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Jnyame21/aivise-health/internal/repository"
)

type stockJSON struct {
	BatchNumber          string          `json:"batch_number"`
	Name                 string          `json:"name"`
	Strength             string          `json:"strength"`
	Quantity             int             `json:"quantity"`
	Price                decimal.Decimal `json:"price"`
	ExpiryDate           string          `json:"expiry_date"`
	PrescriptionRequired bool            `json:"prescription_required"`
}

type drugJSON struct {
	Name                 string      `json:"name"`
	GenericName          string      `json:"generic_name"`
	Brand                string      `json:"brand"`
	Description          string      `json:"description"`
	DosageForms          []string    `json:"dosage_forms"`
	Routes               []string    `json:"routes"`
	PharmClasses         []string    `json:"pharm_classes"`
	ActiveIngredients    []string    `json:"active_ingredients"`
	Manufacturer         string      `json:"manufacturer"`
	PrescriptionRequired bool        `json:"prescription_required"`
	Stocks               []stockJSON `json:"stocks"`
}

func main() {
	var (
		databaseURL  string
		drugsFile    string
		apiKey       string
		apiKeyPepper string
		clientName   string
		clientEmail  string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&drugsFile, "drugs-file", "db/seed/drugs.json", "path to drugs JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or AIVISE_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or AIVISE_API_KEY_PEPPER env)")
	flag.StringVar(&clientName, "client-name", "Demo Client", "name of the seeded client")
	flag.StringVar(&clientEmail, "client-email", "demo@aivise.health", "email of the seeded client")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("AIVISE_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or AIVISE_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("AIVISE_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, drugsFile, apiKey, apiKeyPepper, clientName, clientEmail); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, drugsFile, apiKey, pepper, clientName, clientEmail string) error {
	data, err := os.ReadFile(drugsFile)
	if err != nil {
		return errors.Wrapf(err, "read %s", drugsFile)
	}

	var drugs []drugJSON
	if err := json.Unmarshal(data, &drugs); err != nil {
		return errors.Wrapf(err, "parse %s", drugsFile)
	}

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	var clientID int64
	err = pool.QueryRow(ctx,
		`INSERT INTO clients (name, email, phone, address)
		 VALUES ($1, $2, '+233200000000', '12 Liberation Rd, Accra')
		 ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		clientName, clientEmail,
	).Scan(&clientID)
	if err != nil {
		return errors.Wrap(err, "seed client")
	}

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	_, err = pool.Exec(ctx,
		`INSERT INTO api_keys (key_hash, name, client_id, active)
		 VALUES ($1, $2, $3, TRUE)
		 ON CONFLICT (key_hash) DO UPDATE SET client_id = EXCLUDED.client_id, active = TRUE`,
		keyHash, "seed: "+clientName, clientID,
	)
	if err != nil {
		return errors.Wrap(err, "seed api key")
	}

	for _, d := range drugs {
		var drugID int64
		err = pool.QueryRow(ctx,
			`INSERT INTO drugs (name, generic_name, brand, description, dosage_forms, routes,
			                    pharm_classes, active_ingredients, manufacturer, prescription_required)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING id`,
			d.Name, d.GenericName, d.Brand, d.Description, d.DosageForms, d.Routes,
			d.PharmClasses, d.ActiveIngredients, d.Manufacturer, d.PrescriptionRequired,
		).Scan(&drugID)
		if err != nil {
			return errors.Wrapf(err, "seed drug %q", d.Name)
		}

		for _, s := range d.Stocks {
			expiry, err := time.Parse("2006-01-02", s.ExpiryDate)
			if err != nil {
				return errors.Wrapf(err, "parse expiry date for drug %q batch %q", d.Name, s.BatchNumber)
			}
			_, err = pool.Exec(ctx,
				`INSERT INTO drug_stocks (drug_id, batch_number, name, strength, quantity, price,
				                          expiry_date, prescription_required)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				drugID, s.BatchNumber, s.Name, s.Strength, s.Quantity, s.Price, expiry, s.PrescriptionRequired,
			)
			if err != nil {
				return errors.Wrapf(err, "seed stock %q for drug %q", s.BatchNumber, d.Name)
			}
		}

		slog.Info("seeded drug", slog.String("name", d.Name), slog.Int("stocks", len(d.Stocks)))
	}

	return nil
}
