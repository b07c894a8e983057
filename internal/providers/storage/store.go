package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/asybalance/internal/api"
)

// ErrInvalidAccount is returned for account ids that cannot be used as keys
var ErrInvalidAccount = errors.New("invalid account id")

var accountPattern = regexp.MustCompile(`^[A-Za-z0-9._@-]{1,128}$`)

// Store persists one data blob per account. Load returns "" for an
// account that has never been saved.
type Store interface {
	Load(ctx context.Context, account string) (string, error)
	Save(ctx context.Context, account, data string) error
	Delete(ctx context.Context, account string) error
	Close() error
}

// ValidateAccount checks that an account id is usable by every backend
func ValidateAccount(account string) error {
	if !accountPattern.MatchString(account) || account == "." || account == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidAccount, account)
	}
	return nil
}

// Account binds a store to one account so it can serve a session
type Account struct {
	store   Store
	account string
	log     *zap.Logger
}

var _ api.Storage = (*Account)(nil)

// ForAccount returns the session view of store for account
func ForAccount(store Store, account string, log *zap.Logger) (*Account, error) {
	if err := ValidateAccount(account); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Account{store: store, account: account, log: log}, nil
}

// LoadData returns the account blob
func (a *Account) LoadData(ctx context.Context) (string, error) {
	data, err := a.store.Load(ctx, a.account)
	if err != nil {
		return "", fmt.Errorf("load account data: %w", err)
	}
	a.log.Debug("Loaded account data", zap.String("account", a.account), zap.Int("size", len(data)))
	return data, nil
}

// SaveData replaces the account blob
func (a *Account) SaveData(ctx context.Context, data string) error {
	if err := a.store.Save(ctx, a.account, data); err != nil {
		return fmt.Errorf("save account data: %w", err)
	}
	a.log.Debug("Saved account data", zap.String("account", a.account), zap.Int("size", len(data)))
	return nil
}
