package model

import (
	"strconv"

	"github.com/marselbeijing/ispeech-helper/internal/domain"
)

// User is the session identity resolved from the Telegram mini-app.
// It is owned by the session, not persisted by this service; the engine
// only needs a stable ID to key progress and subscription records.
type User struct {
	ID         string `json:"id"`
	TelegramID int64  `json:"telegramId"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName,omitempty"`
	Username   string `json:"username,omitempty"`
	PhotoURL   string `json:"photoUrl,omitempty"`
}

func NewUser(tgID int64, firstName, lastName, username, photoURL string) (*User, error) {
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:         strconv.FormatInt(tgID, 10),
		TelegramID: tgID,
		FirstName:  firstName,
		LastName:   lastName,
		Username:   username,
		PhotoURL:   photoURL,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
