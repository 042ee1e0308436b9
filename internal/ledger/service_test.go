package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/SlpAus/falsifi-backend/internal/platform/database/testdb"
	"github.com/SlpAus/falsifi-backend/internal/user"
	apperrors "github.com/SlpAus/falsifi-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T, balance int) (*gorm.DB, *Service, uint) {
	t.Helper()
	db := testdb.Open(t, &user.User{}, &Entry{})
	u := user.User{Username: "alice", Email: "alice@example.com", Points: balance}
	require.NoError(t, db.Create(&u).Error)
	return db, NewService(db), u.ID
}

func TestDebitAndCredit(t *testing.T) {
	db, svc, uid := setup(t, 100)
	ctx := context.Background()

	entry, err := svc.Debit(db, uid, 30, ReasonBountyEscrow, Ref{Type: "bounty", ID: 1})
	require.NoError(t, err)
	assert.Equal(t, -30, entry.Delta)
	assert.Equal(t, 100, entry.BalanceBefore)
	assert.Equal(t, 70, entry.BalanceAfter)

	entry, err = svc.Credit(db, uid, 5, ReasonReward, Ref{Type: "refutation", ID: 2})
	require.NoError(t, err)
	assert.Equal(t, 75, entry.BalanceAfter)

	balance, err := svc.Balance(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 75, balance)

	history, err := svc.History(ctx, uid, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ReasonReward, history[0].Reason)
	assert.Equal(t, ReasonBountyEscrow, history[1].Reason)
	assert.Equal(t, "bounty", history[1].RefType)
}

func TestDebitGuards(t *testing.T) {
	tests := []struct {
		name   string
		userID uint
		amount int
		code   string
	}{
		{"insufficient", 0, 101, apperrors.ErrInsufficientPoints},
		{"missing user", 999, 10, apperrors.ErrNotFound},
		{"negative", 0, -1, apperrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, svc, uid := setup(t, 100)
			target := tt.userID
			if target == 0 {
				target = uid
			}

			_, err := svc.Debit(db, target, tt.amount, ReasonBondEscrow, Ref{})
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)

			balance, err := svc.Balance(context.Background(), uid)
			require.NoError(t, err)
			assert.Equal(t, 100, balance)

			var n int64
			require.NoError(t, db.Model(&Entry{}).Count(&n).Error)
			assert.Zero(t, n)
		})
	}
}

func TestDebitExactBalance(t *testing.T) {
	db, svc, uid := setup(t, 50)
	_, err := svc.Debit(db, uid, 50, ReasonBondEscrow, Ref{})
	require.NoError(t, err)

	balance, err := svc.Balance(context.Background(), uid)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestZeroAmountIsNoop(t *testing.T) {
	db, svc, uid := setup(t, 10)

	entry, err := svc.Debit(db, uid, 0, ReasonBondEscrow, Ref{})
	require.NoError(t, err)
	assert.Nil(t, entry)
	entry, err = svc.Credit(db, uid, 0, ReasonReward, Ref{})
	require.NoError(t, err)
	assert.Nil(t, entry)

	var n int64
	require.NoError(t, db.Model(&Entry{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreditMissingUser(t *testing.T) {
	db, svc, _ := setup(t, 10)
	_, err := svc.Credit(db, 999, 5, ReasonReward, Ref{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestRollbackLeavesBalance(t *testing.T) {
	db, svc, uid := setup(t, 100)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Debit(tx, uid, 40, ReasonBountyEscrow, Ref{}); err != nil {
			return err
		}
		return apperrors.New(apperrors.ErrForbidden, "中止", nil)
	})
	require.Error(t, err)

	balance, err := svc.Balance(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, 100, balance)
	history, err := svc.History(context.Background(), uid, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	db, svc, uid := setup(t, 100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				_, err := svc.Debit(tx, uid, 30, ReasonBondEscrow, Ref{})
				return err
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	balance, err := svc.Balance(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)
}
