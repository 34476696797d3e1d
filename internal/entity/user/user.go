package user

import "github.com/pkg/errors"

var (
	ErrNotLinked     = errors.New("telegram account is not linked")
	ErrTelegramTaken = errors.New("telegram account is linked to another user")
	ErrInvalidID     = errors.New("telegram id must be positive")
)

type Record struct {
	ID         int64
	telegramID int64
}

func (r *Record) TelegramID() (int64, bool) {
	return r.telegramID, r.telegramID != 0
}

func (r *Record) SetTelegramID(id int64) {
	r.telegramID = id
}
