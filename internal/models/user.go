package models

import "time"

type User struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name" validate:"required,max=200"`
	Email     string    `db:"email" json:"email" validate:"required,email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (u *User) Validate() error {
	return validate.Struct(u)
}
