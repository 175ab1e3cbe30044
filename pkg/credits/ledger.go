// Package credits implements the credit ledger the pipeline settles against.
package credits

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketAccounts = "accounts"

// ErrInsufficientCredits is returned when a deduction would overdraw the
// account.
var ErrInsufficientCredits = errors.New("insufficient credits")

// Ledger is the billing collaborator consumed by the pipeline.
type Ledger interface {
	// Balance returns the user's current credit balance. Unknown users
	// have a zero balance.
	Balance(userID string) (int, error)

	// Deduct removes amount credits from the user's balance in a single
	// conditional update, failing with ErrInsufficientCredits when the
	// balance does not cover it.
	Deduct(userID string, amount int) error

	// Grant adds credits to the user's balance, creating the account if
	// needed.
	Grant(userID string, amount int) error

	// FreeTrialUsed reports whether the user already consumed the
	// one-time free transcription.
	FreeTrialUsed(userID string) (bool, error)

	// MarkFreeTrialUsed consumes the user's free trial.
	MarkFreeTrialUsed(userID string) error
}

// account is the stored per-user billing record.
type account struct {
	Credits       int  `json:"credits"`
	FreeTrialUsed bool `json:"freeTrialUsed"`
}

// BoltLedger implements Ledger on BoltDB. Deductions run inside one write
// transaction, so concurrent jobs for the same user cannot double-spend.
type BoltLedger struct {
	db *bolt.DB
}

// NewLedger opens (or creates) the ledger database at the given path.
func NewLedger(path string) (*BoltLedger, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}
	ledger, err := NewLedgerWithDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return ledger, nil
}

// NewLedgerWithDB wraps an already opened BoltDB handle, creating the
// accounts bucket if needed. The caller keeps ownership of the handle.
func NewLedgerWithDB(db *bolt.DB) (*BoltLedger, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketAccounts))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create accounts bucket: %w", err)
	}
	return &BoltLedger{db: db}, nil
}

func (l *BoltLedger) Balance(userID string) (int, error) {
	acct, err := l.load(userID)
	if err != nil {
		return 0, err
	}
	return acct.Credits, nil
}

func (l *BoltLedger) Deduct(userID string, amount int) error {
	if amount < 0 {
		return fmt.Errorf("deduction amount cannot be negative")
	}
	return l.update(userID, func(acct *account) error {
		if acct.Credits < amount {
			return ErrInsufficientCredits
		}
		acct.Credits -= amount
		return nil
	})
}

func (l *BoltLedger) Grant(userID string, amount int) error {
	if amount < 0 {
		return fmt.Errorf("grant amount cannot be negative")
	}
	return l.update(userID, func(acct *account) error {
		acct.Credits += amount
		return nil
	})
}

func (l *BoltLedger) FreeTrialUsed(userID string) (bool, error) {
	acct, err := l.load(userID)
	if err != nil {
		return false, err
	}
	return acct.FreeTrialUsed, nil
}

func (l *BoltLedger) MarkFreeTrialUsed(userID string) error {
	return l.update(userID, func(acct *account) error {
		acct.FreeTrialUsed = true
		return nil
	})
}

// Close closes the underlying database.
func (l *BoltLedger) Close() error {
	return l.db.Close()
}

func (l *BoltLedger) load(userID string) (account, error) {
	var acct account
	err := l.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketAccounts)).Get([]byte(userID))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &acct)
	})
	if err != nil {
		return account{}, fmt.Errorf("failed to load account: %w", err)
	}
	return acct, nil
}

// update applies fn to the user's account inside a single write transaction.
func (l *BoltLedger) update(userID string, fn func(*account) error) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketAccounts))

		var acct account
		if data := bucket.Get([]byte(userID)); data != nil {
			if err := json.Unmarshal(data, &acct); err != nil {
				return fmt.Errorf("failed to unmarshal account: %w", err)
			}
		}

		if err := fn(&acct); err != nil {
			return err
		}

		data, err := json.Marshal(&acct)
		if err != nil {
			return fmt.Errorf("failed to marshal account: %w", err)
		}
		return bucket.Put([]byte(userID), data)
	})
}
