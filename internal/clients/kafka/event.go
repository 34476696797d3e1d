package kafka

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	ReasonExpenseAdded   = "expense_added"
	ReasonExpenseUpdated = "expense_updated"
	ReasonExpenseDeleted = "expense_deleted"
)

// LedgerEvent announces that a user's ledger was mutated.
type LedgerEvent struct {
	UserID    int64     `json:"user_id"`
	ChangedAt time.Time `json:"changed_at"`
	Reason    string    `json:"reason"`
}

func (e LedgerEvent) key() []byte {
	return []byte(strconv.FormatInt(e.UserID, 10))
}

func encodeEvent(e LedgerEvent) ([]byte, error) {
	raw, err := json.Marshal(e)
	return raw, errors.Wrap(err, "encode ledger event")
}

func decodeEvent(raw []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(raw, &e); err != nil {
		return LedgerEvent{}, errors.Wrap(err, "decode ledger event")
	}
	if e.UserID <= 0 {
		return LedgerEvent{}, errors.Errorf("ledger event without user: %q", raw)
	}
	return e, nil
}
