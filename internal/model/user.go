package model

import "time"

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID int
	Role   string
}
