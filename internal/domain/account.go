package domain

import "time"

// Account is an identity record. Admin is the elevated-privilege flag and is
// only changed by operators through the admin CLI.
type Account struct {
	ID           string    `json:"_id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Admin        bool      `json:"admin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Caller is the authenticated principal of a request, resolved from the
// bearer token on every call.
type Caller struct {
	AccountID string
	Email     string
	Elevated  bool
}

// Scope returns the visibility restriction for this caller.
func (c Caller) Scope() Scope {
	if c.Elevated {
		return Scope{Unrestricted: true}
	}
	return Scope{OwnerID: c.AccountID}
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Message   string `json:"message"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Admin     bool   `json:"admin"`
	CompanyID string `json:"companyId,omitempty"`
	Token     string `json:"token"`
}

// MessageResponse is the generic {"message": ...} body.
type MessageResponse struct {
	Message string `json:"message"`
}
