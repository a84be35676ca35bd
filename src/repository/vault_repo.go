package repository

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stepbuddy/backend/src/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VaultRepository is the custody ledger. Every challenge vault and every
// participant wallet is one row; moves happen inside the caller's
// transaction so an operation's record mutations and its value transfer
// commit together or not at all.
type VaultRepository struct {
	db *gorm.DB
}

func NewVaultRepository(db *gorm.DB) *VaultRepository {
	return &VaultRepository{db: db}
}

// Balance returns the current balance of an account. Accounts that were
// never touched report zero.
func (r *VaultRepository) Balance(address common.Address) (int64, error) {
	var account domain.VaultAccount
	err := r.db.Where("address = ?", address).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Deposit credits an account, creating it if needed. This is the external
// funding path into the ledger.
func (r *VaultRepository) Deposit(address common.Address, amount int64) error {
	if amount <= 0 {
		return domain.NewError(domain.ErrorCodeParameterInvalid, fmt.Errorf("deposit amount must be positive, got %d", amount))
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		account, err := r.lockOrCreate(tx, address)
		if err != nil {
			return err
		}
		account.Balance += amount
		return tx.Save(account).Error
	})
}

// Move transfers amount between two accounts inside the given transaction.
// It fails the whole transaction on insufficient balance; there is no
// partial transfer. Rows are locked in address order so two concurrent
// moves over the same pair cannot deadlock.
func (r *VaultRepository) Move(tx *gorm.DB, amount int64, from, to common.Address) error {
	if amount < 0 {
		return domain.NewError(domain.ErrorCodeParameterInvalid, fmt.Errorf("move amount must not be negative, got %d", amount))
	}
	if amount == 0 || from == to {
		return nil
	}

	first, second := from, to
	if bytes.Compare(second.Bytes(), first.Bytes()) < 0 {
		first, second = second, first
	}

	accounts := make(map[common.Address]*domain.VaultAccount, 2)
	for _, address := range []common.Address{first, second} {
		account, err := r.lockOrCreate(tx, address)
		if err != nil {
			return err
		}
		accounts[address] = account
	}

	source := accounts[from]
	if source.Balance < amount {
		return domain.NewError(domain.ErrorCodeInsufficientBalance,
			fmt.Errorf("account %s holds %d, needs %d", from.Hex(), source.Balance, amount))
	}

	source.Balance -= amount
	accounts[to].Balance += amount

	for _, account := range accounts {
		if err := tx.Save(account).Error; err != nil {
			return err
		}
	}
	return nil
}

// lockOrCreate loads an account with an exclusive row lock, inserting a
// zero-balance row first when the account does not exist yet.
func (r *VaultRepository) lockOrCreate(tx *gorm.DB, address common.Address) (*domain.VaultAccount, error) {
	var account domain.VaultAccount
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("address = ?", address).First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	account = domain.VaultAccount{Address: address}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&account).Error; err != nil {
		return nil, err
	}
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("address = ?", address).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}
