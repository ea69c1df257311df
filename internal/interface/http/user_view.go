package handlers

import (
	"time"

	"github.com/idstack/identity-service/internal/domain/entity"
)

// UserView is the wire representation of a user account.
type UserView struct {
	ID                 string    `json:"id"`
	Email              *string   `json:"email"`
	Phone              *string   `json:"phone"`
	TelegramID         *string   `json:"telegram_id"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	IsEmailVerified    bool      `json:"is_email_verified"`
	IsPhoneVerified    bool      `json:"is_phone_verified"`
	IsTelegramVerified bool      `json:"is_telegram_verified"`
	IsVerified         bool      `json:"is_verified"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func NewUserView(u *entity.User) UserView {
	v := UserView{
		ID:                 u.ID().String(),
		FirstName:          u.FirstName(),
		LastName:           u.LastName(),
		IsEmailVerified:    u.IsEmailVerified(),
		IsPhoneVerified:    u.IsPhoneVerified(),
		IsTelegramVerified: u.IsTelegramVerified(),
		IsVerified:         u.IsFullyVerified(),
		CreatedAt:          u.CreatedAt(),
		UpdatedAt:          u.UpdatedAt(),
	}
	if e := u.Email(); e != nil {
		s := e.String()
		v.Email = &s
	}
	if p := u.Phone(); p != nil {
		s := p.String()
		v.Phone = &s
	}
	if t := u.TelegramID(); t != nil {
		s := t.String()
		v.TelegramID = &s
	}
	return v
}
