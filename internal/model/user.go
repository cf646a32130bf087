package model

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// Identity is the profile slice the hosted auth service exposes. User
// accounts live remotely; only the claims needed for capability checks
// travel with the JWT.
type Identity struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}
