package dynamodb

import (
	"context"

	"foodiary/application/ports"
	"foodiary/domain/core/entities"
	"foodiary/infrastructure/persistence/abstractions"
	"foodiary/infrastructure/persistence/items"
	pkgerrors "foodiary/pkg/errors"

	"go.uber.org/zap"
)

// AccountRepository stores accounts and looks them up by email through GSI1
type AccountRepository struct {
	store     abstractions.Store
	indexName string
	logger    *zap.Logger
}

// NewAccountRepository creates an account repository
func NewAccountRepository(store abstractions.Store, indexName string, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{
		store:     store,
		indexName: indexName,
		logger:    logger,
	}
}

var _ ports.AccountRepository = (*AccountRepository)(nil)

// FindByEmail returns nil, nil when no account uses the email
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*entities.Account, error) {
	email = entities.NormalizeEmail(email)

	found, err := r.store.Query(ctx, abstractions.QuerySpec{
		IndexName: r.indexName,
		KeyCondition: abstractions.KeyCondition{
			PartitionName:  abstractions.AttrGSI1PK,
			PartitionValue: items.AccountGSI1PK(email),
			SortName:       abstractions.AttrGSI1SK,
			SortOperator:   abstractions.KeyEqual,
			SortValue:      items.AccountGSI1SK(email),
		},
		Filters: []abstractions.Filter{
			{Field: abstractions.AttrType, Operator: abstractions.OpEqual, Value: items.TypeAccount},
		},
		ScanForward: true,
		Limit:       1,
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("find account by email", err)
	}
	if len(found) == 0 {
		return nil, nil
	}

	return items.AccountFromItem(found[0])
}

// FindByID returns a NotFound error when the account does not exist
func (r *AccountRepository) FindByID(ctx context.Context, accountID string) (*entities.Account, error) {
	item, err := r.store.Get(ctx, items.AccountKey(accountID))
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get account", err)
	}
	if item == nil {
		return nil, pkgerrors.NewNotFoundError("Account")
	}
	return items.AccountFromItem(item)
}

// Create writes the account unconditionally. Sign-up goes through the unit
// of work instead, which also reserves the email.
func (r *AccountRepository) Create(ctx context.Context, account *entities.Account) error {
	item, err := items.NewAccountItem(account).Marshal()
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, item); err != nil {
		return pkgerrors.NewDatabaseError("put account", err)
	}

	r.logger.Debug("account created", zap.String("account_id", account.ID()))
	return nil
}

// PutInput returns the transactional writes that create an account: the
// account record plus the guard that reserves its email
func (r *AccountRepository) PutInput(account *entities.Account) ([]abstractions.TransactPut, error) {
	accountItem, err := items.NewAccountItem(account).Marshal()
	if err != nil {
		return nil, err
	}
	guardItem, err := items.NewEmailGuardItem(account).Marshal()
	if err != nil {
		return nil, err
	}
	return []abstractions.TransactPut{
		{Item: accountItem, IfNotExists: true},
		{Item: guardItem, IfNotExists: true},
	}, nil
}
