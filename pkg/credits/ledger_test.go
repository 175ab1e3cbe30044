package credits

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestLedger(t *testing.T) *BoltLedger {
	t.Helper()
	ledger, err := NewLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewLedger() failed: %v", err)
	}
	t.Cleanup(func() { _ = ledger.Close() })
	return ledger
}

func TestLedgerUnknownUser(t *testing.T) {
	ledger := newTestLedger(t)

	balance, err := ledger.Balance("nobody")
	if err != nil {
		t.Fatalf("Balance() failed: %v", err)
	}
	if balance != 0 {
		t.Errorf("Balance() = %d, want 0", balance)
	}

	used, err := ledger.FreeTrialUsed("nobody")
	if err != nil {
		t.Fatalf("FreeTrialUsed() failed: %v", err)
	}
	if used {
		t.Error("FreeTrialUsed() = true for unknown user, want false")
	}
}

func TestLedgerGrantAndDeduct(t *testing.T) {
	ledger := newTestLedger(t)

	if err := ledger.Grant("alice", 10); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}
	if err := ledger.Grant("alice", 5); err != nil {
		t.Fatalf("second Grant() failed: %v", err)
	}

	balance, err := ledger.Balance("alice")
	if err != nil {
		t.Fatalf("Balance() failed: %v", err)
	}
	if balance != 15 {
		t.Errorf("Balance() = %d, want 15", balance)
	}

	if err := ledger.Deduct("alice", 7); err != nil {
		t.Fatalf("Deduct() failed: %v", err)
	}

	balance, _ = ledger.Balance("alice")
	if balance != 8 {
		t.Errorf("Balance() after deduct = %d, want 8", balance)
	}
}

func TestLedgerDeductInsufficient(t *testing.T) {
	ledger := newTestLedger(t)

	if err := ledger.Grant("bob", 3); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}

	err := ledger.Deduct("bob", 4)
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("Deduct() error = %v, want ErrInsufficientCredits", err)
	}

	// The failed deduction must not touch the balance.
	balance, _ := ledger.Balance("bob")
	if balance != 3 {
		t.Errorf("Balance() after failed deduct = %d, want 3", balance)
	}
}

func TestLedgerDeductExactBalance(t *testing.T) {
	ledger := newTestLedger(t)

	if err := ledger.Grant("carol", 5); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}
	if err := ledger.Deduct("carol", 5); err != nil {
		t.Fatalf("Deduct() of exact balance failed: %v", err)
	}

	balance, _ := ledger.Balance("carol")
	if balance != 0 {
		t.Errorf("Balance() = %d, want 0", balance)
	}
}

func TestLedgerNegativeAmounts(t *testing.T) {
	ledger := newTestLedger(t)

	if err := ledger.Grant("dave", -1); err == nil {
		t.Error("Grant() with negative amount succeeded, want error")
	}
	if err := ledger.Deduct("dave", -1); err == nil {
		t.Error("Deduct() with negative amount succeeded, want error")
	}
}

func TestLedgerFreeTrial(t *testing.T) {
	ledger := newTestLedger(t)

	if err := ledger.MarkFreeTrialUsed("eve"); err != nil {
		t.Fatalf("MarkFreeTrialUsed() failed: %v", err)
	}

	used, err := ledger.FreeTrialUsed("eve")
	if err != nil {
		t.Fatalf("FreeTrialUsed() failed: %v", err)
	}
	if !used {
		t.Error("FreeTrialUsed() = false after marking, want true")
	}

	// Marking the trial must not disturb credits.
	if err := ledger.Grant("eve", 2); err != nil {
		t.Fatalf("Grant() failed: %v", err)
	}
	balance, _ := ledger.Balance("eve")
	if balance != 2 {
		t.Errorf("Balance() = %d, want 2", balance)
	}
}
