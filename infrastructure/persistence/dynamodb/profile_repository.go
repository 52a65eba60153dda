package dynamodb

import (
	"context"
	"errors"

	"foodiary/application/ports"
	"foodiary/domain/core/entities"
	"foodiary/infrastructure/persistence/abstractions"
	"foodiary/infrastructure/persistence/items"
	pkgerrors "foodiary/pkg/errors"

	"go.uber.org/zap"
)

// ProfileRepository stores the profile record of each account
type ProfileRepository struct {
	store  abstractions.Store
	logger *zap.Logger
}

// NewProfileRepository creates a profile repository
func NewProfileRepository(store abstractions.Store, logger *zap.Logger) *ProfileRepository {
	return &ProfileRepository{store: store, logger: logger}
}

var _ ports.ProfileRepository = (*ProfileRepository)(nil)

func (r *ProfileRepository) FindByAccountID(ctx context.Context, accountID string) (*entities.Profile, error) {
	item, err := r.store.Get(ctx, items.ProfileKey(accountID))
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get profile", err)
	}
	if item == nil {
		return nil, pkgerrors.NewNotFoundError("Profile")
	}
	return items.ProfileFromItem(item)
}

func (r *ProfileRepository) Create(ctx context.Context, profile *entities.Profile) error {
	item, err := items.NewProfileItem(profile).Marshal()
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, item); err != nil {
		return pkgerrors.NewDatabaseError("put profile", err)
	}
	return nil
}

// Save updates the mutable attributes only; accountId and createdAt are
// never part of the update
func (r *ProfileRepository) Save(ctx context.Context, profile *entities.Profile) error {
	rec := items.NewProfileItem(profile)
	err := r.store.Update(ctx, rec.Key(), abstractions.UpdateSpec{Set: rec.MutableAttributes()})
	if errors.Is(err, abstractions.ErrConditionFailed) {
		return pkgerrors.NewNotFoundError("Profile")
	}
	if err != nil {
		return pkgerrors.NewDatabaseError("update profile", err)
	}

	r.logger.Debug("profile saved", zap.String("account_id", profile.AccountID()))
	return nil
}

// PutInput returns the transactional write that creates the profile
func (r *ProfileRepository) PutInput(profile *entities.Profile) (abstractions.TransactPut, error) {
	item, err := items.NewProfileItem(profile).Marshal()
	if err != nil {
		return abstractions.TransactPut{}, err
	}
	return abstractions.TransactPut{Item: item, IfNotExists: true}, nil
}
