package domain

// User record from the external user directory. Only the fields the review
// UI displays are carried.
type User struct {
	UID   int    `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Label returns the display label for the user: the name when set, otherwise
// the email.
func (u *User) Label() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
