package domain

import "time"

// Company is a recruiter account.
type Company struct {
	ID              string
	Name            string
	Email           string
	Address         string
	Phone           string
	Website         string
	ProfileComplete bool
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Creds Credentials
}

// CompanyView is the client projection of a Company.
type CompanyView struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Address         string    `json:"address,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Website         string    `json:"website,omitempty"`
	ProfileComplete bool      `json:"isProfileComplete"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (c *Company) AccountID() string         { return c.ID }
func (c *Company) AccountEmail() string      { return c.Email }
func (c *Company) AccountName() string       { return c.Name }
func (c *Company) AccountRole() Role         { return RoleCompany }
func (c *Company) Credentials() *Credentials { return &c.Creds }
func (c *Company) Touch(now time.Time)       { c.UpdatedAt = now }

func (c *Company) Public() interface{} { return c.View() }

func (c *Company) View() CompanyView {
	return CompanyView{
		ID:              c.ID,
		Name:            c.Name,
		Email:           c.Email,
		Address:         c.Address,
		Phone:           c.Phone,
		Website:         c.Website,
		ProfileComplete: c.ProfileComplete,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// HasCompleteProfile reports whether name, address, website and phone are all set.
func (c *Company) HasCompleteProfile() bool {
	return c.Name != "" && c.Address != "" && c.Website != "" && c.Phone != ""
}
