// Command grantcredits appends a purchase or grant entry to a user's credit
// ledger. Intended for operators; the payment flow proper lives outside this
// service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/ledger"
	"server/internal/sqlinline"
)

func main() {
	var (
		idFlag      string
		emailFlag   string
		creditsFlag int
		typeFlag    string
		noteFlag    string
	)

	flag.StringVar(&idFlag, "id", "", "user ID to credit (UUID)")
	flag.StringVar(&emailFlag, "email", "", "user email to credit")
	flag.IntVar(&creditsFlag, "credits", 0, "number of credits to add (must be positive)")
	flag.StringVar(&typeFlag, "type", "grant", "ledger entry type (purchase, grant)")
	flag.StringVar(&noteFlag, "note", "", "description recorded on the ledger entry")
	flag.Parse()

	_ = godotenv.Load()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	if userID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	if creditsFlag <= 0 {
		exitWithError(errors.New("-credits must be positive"))
	}
	typ := domain.TransactionType(strings.TrimSpace(strings.ToLower(typeFlag)))
	switch typ {
	case domain.TransactionPurchase, domain.TransactionGrant:
	default:
		exitWithError(fmt.Errorf("unsupported type %q", typeFlag))
	}
	note := strings.TrimSpace(noteFlag)
	if note == "" {
		note = fmt.Sprintf("Operator %s of %d credits", typ, creditsFlag)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("connect database: %w", err))
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, zerolog.Nop())

	if userID == "" {
		if err := runner.QueryRow(ctx, sqlinline.QSelectUserIDByEmail, email).Scan(&userID); err != nil {
			if infra.IsNoRows(err) {
				exitWithError(fmt.Errorf("no user with email %q", email))
			}
			exitWithError(err)
		}
	}

	var balance int
	err = runner.WithTx(ctx, func(tx infra.SQLExecutor) error {
		var txErr error
		balance, txErr = ledger.New(tx).Credit(ctx, userID, creditsFlag, typ, note)
		return txErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			exitWithError(fmt.Errorf("no user with id %q", userID))
		}
		exitWithError(err)
	}

	fmt.Printf("credited %d to %s, new balance %d\n", creditsFlag, userID, balance)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "grantcredits:", err)
	os.Exit(1)
}
