package user

import "time"

type User struct {
	Id           int
	Uid          string
	Email        string
	DisplayName  string
	PasswordHash string
	Verified     bool
	Created      time.Time
}
