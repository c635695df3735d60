// Command seed populates the transactions table with deterministic synthetic
// history for one or more users, for demos and end-to-end testing.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/dvloznov/spending-forecast/internal/config"
	"github.com/dvloznov/spending-forecast/internal/features"
	infraBQ "github.com/dvloznov/spending-forecast/internal/infra/bigquery"
	"github.com/dvloznov/spending-forecast/internal/logger"
)

var categories = []string{"groceries", "transport", "dining", "utilities", "entertainment", "health"}

func main() {
	log := logger.New()

	userID := flag.String("user", "demo@example.com", "User ID to seed transactions for")
	months := flag.Int("months", 12, "Number of months of history to generate")
	seed := flag.Int64("seed", 1, "Random seed; the same seed always generates the same data")
	reset := flag.Bool("reset", false, "Delete the user's existing transactions first")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	repo, err := infraBQ.NewTransactionRepository(ctx, cfg.GCP.ProjectID, cfg.GCP.DatasetID, cfg.GCP.TransactionsTable)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction repository")
	}
	defer repo.Close()

	if *reset {
		log.Info().Str("user_id", *userID).Msg("Deleting existing transactions")
		if err := repo.DeleteUserTransactions(ctx, *userID); err != nil {
			log.Fatal().Err(err).Msg("Delete failed")
		}
	}

	txs := generate(*userID, *months, *seed, cfg.Pipeline.SalaryAmount)

	log.Info().
		Str("user_id", *userID).
		Int("months", *months).
		Int("transactions", len(txs)).
		Msg("Inserting synthetic transactions")

	if err := repo.InsertTransactions(ctx, txs); err != nil {
		log.Fatal().Err(err).Msg("Insert failed")
	}

	fmt.Printf("Seeded %d transactions for %s\n", len(txs), *userID)
}

// generate builds months of history ending last month: one salary payment on
// the 1st of each month plus a random spread of outgoing transactions.
func generate(userID string, months int, seed int64, salaryAmount float64) []features.Transaction {
	rng := rand.New(rand.NewSource(seed))
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -months, 0)

	var txs []features.Transaction
	for m := 0; m < months; m++ {
		monthStart := start.AddDate(0, m, 0)

		txs = append(txs, features.Transaction{
			UserID:      userID,
			Amount:      salaryAmount,
			Category:    "salary",
			Date:        monthStart.Format("2006-01-02"),
			Description: "monthly salary",
			TranType:    features.TranTypeIncome,
		})

		daysInMonth := monthStart.AddDate(0, 1, -1).Day()
		count := 15 + rng.Intn(10)
		for i := 0; i < count; i++ {
			day := 1 + rng.Intn(daysInMonth)
			txs = append(txs, features.Transaction{
				UserID:      userID,
				Amount:      5 + rng.Float64()*120,
				Category:    categories[rng.Intn(len(categories))],
				Date:        monthStart.AddDate(0, 0, day-1).Format("2006-01-02"),
				Description: "synthetic purchase",
				TranType:    features.TranTypeOutgoing,
			})
		}
	}
	return txs
}
