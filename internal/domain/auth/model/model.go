package model

import "time"

type Role string

const (
	RoleEntrepreneur Role = "entrepreneur"
	RoleStudent      Role = "student"
	RoleInvestor     Role = "investor"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEntrepreneur, RoleStudent, RoleInvestor:
		return true
	}
	return false
}

// User is the server-owned account record. Role never changes within a
// session; EmailVerified is only flipped client-side immediately after the
// server confirmed a verification.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	PhoneNumber   string    `json:"phone_number,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
}

// UserPatch is a shallow local merge; nil fields are left untouched.
// Persisting the change is the caller's job (profile-update endpoint).
type UserPatch struct {
	Username      *string
	Email         *string
	PhoneNumber   *string
	EmailVerified *bool
}

func (u *User) Apply(p UserPatch) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	if p.EmailVerified != nil {
		u.EmailVerified = *p.EmailVerified
	}
}
