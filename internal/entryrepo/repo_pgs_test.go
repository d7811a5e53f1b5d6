//go:build integration

package entryrepo_test

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/internal/entryrepo"
	"github.com/go-petr/pet-ledger/internal/integrationtest"
	"github.com/go-petr/pet-ledger/internal/integrationtest/helpers"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
)

var (
	dbDriver string
	dbSource string
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	dbDriver = config.DBDriver
	dbSource = config.DBSource

	os.Exit(m.Run())
}

func TestAppend(t *testing.T) {
	t.Parallel()

	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := entryrepo.NewRepoPGS(tx)
	from := helpers.SeedAccount(t, tx, randompkg.Owner(), "")
	to := helpers.SeedAccount(t, tx, randompkg.Owner(), "")

	testCases := []struct {
		name    string
		arg     domain.AppendEntryParams
		wantErr error
	}{
		{
			name: "OK",
			arg: domain.AppendEntryParams{
				TransactionID:  uuid.New(),
				AccountID:      from.ID,
				Delta:          -randompkg.Amount(1000),
				CounterpartyID: &to.ID,
				Description:    "rent",
				CreatedAt:      time.Now().UTC(),
			},
		},
		{
			name: "ConstraintViolation:ledger_entries_account_id_fkey",
			arg: domain.AppendEntryParams{
				TransactionID: uuid.New(),
				AccountID:     -100500,
				Delta:         10,
				CreatedAt:     time.Now().UTC(),
			},
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.Append(context.Background(), tc.arg)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("repo.Append(%+v) returned error %v, want %v", tc.arg, err, tc.wantErr)
			}

			if tc.wantErr != nil {
				return
			}

			want := domain.LedgerEntry{
				TransactionID:  tc.arg.TransactionID,
				AccountID:      tc.arg.AccountID,
				Delta:          tc.arg.Delta,
				CounterpartyID: tc.arg.CounterpartyID,
				Description:    tc.arg.Description,
				CreatedAt:      tc.arg.CreatedAt,
			}

			ignore := cmpopts.IgnoreFields(domain.LedgerEntry{}, "Seq")
			approx := cmpopts.EquateApproxTime(time.Millisecond)

			if diff := cmp.Diff(want, got, ignore, approx); diff != "" {
				t.Errorf("repo.Append(%+v) returned unexpected diff: %s", tc.arg, diff)
			}

			if got.Seq == 0 {
				t.Errorf("got.Seq = 0, want assigned sequence")
			}
		})
	}
}

func TestListAndSum(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	repo := entryrepo.NewRepoPGS(tx)
	account := helpers.SeedAccount(t, tx, randompkg.Owner(), "")

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	var (
		want []domain.LedgerEntry
		sum  int64
	)

	for i := 0; i < 5; i++ {
		e, err := repo.Append(ctx, domain.AppendEntryParams{
			TransactionID: uuid.New(),
			AccountID:     account.ID,
			Delta:         int64(100 * (i + 1)),
			Description:   domain.DescriptionDeposit,
			CreatedAt:     base.AddDate(0, 0, i),
		})
		if err != nil {
			t.Fatalf("repo.Append returned error: %v", err)
		}

		want = append(want, e)
		sum += e.Delta
	}

	page, err := repo.List(ctx, domain.HistoryParams{AccountID: account.ID, Limit: 2})
	if err != nil {
		t.Fatalf("repo.List returned error: %v", err)
	}

	if diff := cmp.Diff(want[:2], page); diff != "" {
		t.Errorf("first page returned unexpected diff: %s", diff)
	}

	page, err = repo.List(ctx, domain.HistoryParams{AccountID: account.ID, AfterSeq: want[1].Seq, Limit: 10})
	if err != nil {
		t.Fatalf("repo.List returned error: %v", err)
	}

	if diff := cmp.Diff(want[2:], page); diff != "" {
		t.Errorf("second page returned unexpected diff: %s", diff)
	}

	page, err = repo.List(ctx, domain.HistoryParams{
		AccountID: account.ID,
		From:      base.AddDate(0, 0, 1),
		To:        base.AddDate(0, 0, 3),
		Limit:     10,
	})
	if err != nil {
		t.Fatalf("repo.List returned error: %v", err)
	}

	if diff := cmp.Diff(want[1:3], page); diff != "" {
		t.Errorf("date range returned unexpected diff: %s", diff)
	}

	gotSum, gotCount, err := repo.Sum(ctx, account.ID)
	if err != nil {
		t.Fatalf("repo.Sum(%v) returned error: %v", account.ID, err)
	}

	if gotSum != sum || gotCount != int64(len(want)) {
		t.Errorf("repo.Sum(%v) = %v, %v, want %v, %v", account.ID, gotSum, gotCount, sum, len(want))
	}
}

func TestEntriesAreImmutable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tx := integrationtest.SetupTX(t, dbDriver, dbSource)
	account := helpers.SeedFundedAccount(t, tx, randompkg.Owner(), 500)

	_, err := tx.ExecContext(ctx, `UPDATE ledger_entries SET delta = 1 WHERE account_id = $1`, account.ID)
	if err == nil {
		t.Errorf("updating ledger_entries succeeded, want error")
	}
}
