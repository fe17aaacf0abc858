package domain

import "time"

// ClientStatus is the lifecycle status of a client company.
type ClientStatus string

const (
	ClientActive   ClientStatus = "active"
	ClientInactive ClientStatus = "inactive"
	ClientChurned  ClientStatus = "churned"
)

// Valid reports whether s is a known status.
func (s ClientStatus) Valid() bool {
	switch s {
	case ClientActive, ClientInactive, ClientChurned:
		return true
	}
	return false
}

// Client is a tenant company. UserID references the contact Account and is
// never rendered to API callers.
type Client struct {
	ID               string       `json:"_id"`
	UserID           string       `json:"-"`
	CompanyName      string       `json:"companyName"`
	Address          string       `json:"address"`
	City             string       `json:"city"`
	State            string       `json:"state"`
	ZipCode          string       `json:"zipCode"`
	Phone            string       `json:"phone"`
	Status           ClientStatus `json:"status"`
	RegistrationDate time.Time    `json:"registrationDate"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// ClientView is a client joined with its contact account.
type ClientView struct {
	Client
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// CreateClientRequest is the body of POST /clients.
type CreateClientRequest struct {
	CompanyName   string       `json:"companyName"`
	Address       string       `json:"address"`
	City          string       `json:"city"`
	State         string       `json:"state"`
	ZipCode       string       `json:"zipCode"`
	ContactPerson string       `json:"contactPerson"`
	Email         string       `json:"email"`
	Phone         string       `json:"phone"`
	Status        ClientStatus `json:"status,omitempty"`
}

// CreatedResponse is returned by create endpoints.
type CreatedResponse struct {
	ID string `json:"_id"`
}

// ClientPatch holds the optional fields of PATCH /clients. Nil means unchanged.
type ClientPatch struct {
	CompanyName   *string       `json:"companyName,omitempty"`
	Address       *string       `json:"address,omitempty"`
	City          *string       `json:"city,omitempty"`
	State         *string       `json:"state,omitempty"`
	ZipCode       *string       `json:"zipCode,omitempty"`
	Phone         *string       `json:"phone,omitempty"`
	Status        *ClientStatus `json:"status,omitempty"`
	ContactPerson *string       `json:"contactPerson,omitempty"`
	Email         *string       `json:"email,omitempty"`
}

// Apply copies the client-owned fields of p onto c.
func (p ClientPatch) Apply(c *Client) {
	if p.CompanyName != nil {
		c.CompanyName = *p.CompanyName
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.City != nil {
		c.City = *p.City
	}
	if p.State != nil {
		c.State = *p.State
	}
	if p.ZipCode != nil {
		c.ZipCode = *p.ZipCode
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
}

// TouchesAccount reports whether the patch changes the linked contact account.
func (p ClientPatch) TouchesAccount() bool {
	return p.ContactPerson != nil || p.Email != nil
}
