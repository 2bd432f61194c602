package user

import "github.com/google/uuid"

// User is the referenced marketplace user. Projections read display
// names and contact details from it; this service never writes users.
type User struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email,omitempty"`
	Phone string    `json:"phone,omitempty"`
}

// Contact returns the preferred contact string for display.
func (u *User) Contact() string {
	if u.Phone != "" {
		return u.Phone
	}

	return u.Email
}
