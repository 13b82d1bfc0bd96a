package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Owner identifies the end user that expenses and limits are scoped to.
	Owner int64

	Money struct {
		Cents int64
	}

	// Entry is a transient parsed (category, amount) pair. It is never
	// persisted directly; inserts and limit updates consume it immediately.
	Entry struct {
		Category string
		Amount   Money
	}

	// Expense is one immutable ledger record.
	Expense struct {
		ID         int64
		Owner      Owner
		Category   string
		Amount     Money
		RecordedAt time.Time
	}

	// Limit is the monthly spending cap for one (owner, category) pair.
	// The store keeps at most one per pair.
	Limit struct {
		Owner    Owner
		Category string
		Amount   Money
	}
)

var (
	ErrEmptyInput        = errors.New("empty input")
	ErrMissingSeparator  = errors.New("missing category/amount separator")
	ErrEmptyCategory     = errors.New("empty category")
	ErrEmptyAmount       = errors.New("empty amount")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNonPositiveAmount = errors.New("amount must be positive")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrNonPositiveAmount
	}
	return nil
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	return e.Amount.Validate()
}

func (e Expense) Validate() error {
	if e.Owner == 0 {
		return errors.New("missing owner")
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Category) > 200 {
		return errors.New("category too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.RecordedAt.IsZero() {
		return errors.New("missing recorded-at timestamp")
	}
	return nil
}

func (l Limit) Validate() error {
	if l.Owner == 0 {
		return errors.New("missing owner")
	}
	if strings.TrimSpace(l.Category) == "" {
		return ErrEmptyCategory
	}
	return l.Amount.Validate()
}
