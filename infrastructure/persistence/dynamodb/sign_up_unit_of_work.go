package dynamodb

import (
	"context"
	"errors"
	"sync"

	"foodiary/application/ports"
	"foodiary/domain/core/entities"
	"foodiary/infrastructure/persistence/abstractions"
	pkgerrors "foodiary/pkg/errors"

	"go.uber.org/zap"
)

// Transaction accumulates puts and commits them as one all-or-nothing batch
type Transaction struct {
	store abstractions.Store

	mu        sync.Mutex
	puts      []abstractions.TransactPut
	committed bool
}

// NewTransaction starts an empty batch on store
func NewTransaction(store abstractions.Store) *Transaction {
	return &Transaction{store: store}
}

// AddPut queues a write
func (t *Transaction) AddPut(put abstractions.TransactPut) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.puts = append(t.puts, put)
}

// Len returns the number of queued writes
func (t *Transaction) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.puts)
}

// Commit submits every queued write at once. If the store rejects the batch
// none of the writes become visible.
func (t *Transaction) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.committed {
		return errors.New("transaction already committed")
	}
	if err := t.store.TransactWrite(ctx, t.puts); err != nil {
		return err
	}
	t.committed = true
	return nil
}

// SignUpUnitOfWork creates account, goal and profile together
type SignUpUnitOfWork struct {
	store    abstractions.Store
	accounts *AccountRepository
	goals    *GoalRepository
	profiles *ProfileRepository
	logger   *zap.Logger
}

// NewSignUpUnitOfWork creates the sign-up unit of work
func NewSignUpUnitOfWork(
	store abstractions.Store,
	accounts *AccountRepository,
	goals *GoalRepository,
	profiles *ProfileRepository,
	logger *zap.Logger,
) *SignUpUnitOfWork {
	return &SignUpUnitOfWork{
		store:    store,
		accounts: accounts,
		goals:    goals,
		profiles: profiles,
		logger:   logger,
	}
}

var _ ports.SignUpUnitOfWork = (*SignUpUnitOfWork)(nil)

// Run writes the account (with its email reservation), goal and profile in
// one transaction. A taken email surfaces as EMAIL_ALREADY_IN_USE.
func (u *SignUpUnitOfWork) Run(ctx context.Context, account *entities.Account, goal *entities.Goal, profile *entities.Profile) error {
	tx := NewTransaction(u.store)

	accountPuts, err := u.accounts.PutInput(account)
	if err != nil {
		return err
	}
	for _, p := range accountPuts {
		tx.AddPut(p)
	}

	goalPut, err := u.goals.PutInput(goal)
	if err != nil {
		return err
	}
	tx.AddPut(goalPut)

	profilePut, err := u.profiles.PutInput(profile)
	if err != nil {
		return err
	}
	tx.AddPut(profilePut)

	if err := tx.Commit(ctx); err != nil {
		if errors.Is(err, abstractions.ErrConditionFailed) {
			u.logger.Info("sign-up rejected, email already reserved",
				zap.String("account_id", account.ID()))
			return pkgerrors.NewEmailAlreadyInUseError().WithCause(err)
		}
		return pkgerrors.NewDatabaseError("sign-up transaction", err)
	}

	u.logger.Info("account created",
		zap.String("account_id", account.ID()),
		zap.Int("items", tx.Len()))
	return nil
}
