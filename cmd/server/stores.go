package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	docservice "onboarding/internal/document/service"
	docstore "onboarding/internal/document/store"
	otpservice "onboarding/internal/otp/service"
	otpstore "onboarding/internal/otp/store"
	"onboarding/internal/platform/postgres"
	processservice "onboarding/internal/process/service"
	processstore "onboarding/internal/process/store"
	verificationservice "onboarding/internal/verification/service"
	verificationstore "onboarding/internal/verification/store"
	"onboarding/pkg/platform/tx"
)

// stores is the persistence a deployment runs with. db is nil for the
// in-memory backend.
type stores struct {
	db            *sql.DB
	processes     processservice.Store
	otps          otpservice.Store
	documents     docservice.Store
	verifications verificationservice.Store
	runner        tx.Runner
}

// openStores connects to Postgres when databaseURL is set and falls back to
// in-memory stores otherwise.
func openStores(ctx context.Context, databaseURL string, log *slog.Logger) (*stores, error) {
	if databaseURL == "" {
		log.WarnContext(ctx, "DATABASE_URL not set; state is kept in memory and lost on restart")
		return &stores{
			processes:     processstore.NewInMemory(),
			otps:          otpstore.NewInMemory(),
			documents:     docstore.NewInMemory(),
			verifications: verificationstore.NewInMemory(),
			runner:        tx.NewLockRunner(0),
		}, nil
	}

	db, err := postgres.Open(ctx, databaseURL, postgres.DefaultOptions())
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.InfoContext(ctx, "connected to postgres")
	return &stores{
		db:            db,
		processes:     processstore.NewPostgres(db),
		otps:          otpstore.NewPostgres(db),
		documents:     docstore.NewPostgres(db),
		verifications: verificationstore.NewPostgres(db),
		runner:        tx.NewSQLRunner(db),
	}, nil
}

func (s *stores) close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}
