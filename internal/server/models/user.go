package models

import "time"

type User struct {
	ID         string
	Email      string
	FirstName  string
	LastName   string
	Phone      string
	SecretHash string
	Points     int64
	Level      string
	ProfilePic string
	Bio        string
	Downloads  int64
	CreatedAt  time.Time
}

// ProfileUpdate holds the mutable display fields. Nil means unchanged.
type ProfileUpdate struct {
	FirstName  *string
	LastName   *string
	Bio        *string
	ProfilePic *string
}

func (u ProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Bio == nil && u.ProfilePic == nil
}
