// Package models defines the persistent entities of the messaging service.
package models

import "time"

// User is a full row of the users relation. Password holds the bcrypt hash,
// never the plaintext; it is omitted from anything that leaves the server.
type User struct {
	Username    string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	JoinAt      time.Time
	LastLoginAt *time.Time
}

// Profile is the public subset of a user exposed alongside messages and in
// the user listing.
type Profile struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Profile returns the public view of the user.
func (u *User) Profile() Profile {
	return Profile{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

// LoginStamp is the result of updating a user's last-login timestamp.
type LoginStamp struct {
	Username    string
	LastLoginAt time.Time
}
