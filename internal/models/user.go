package models

import "time"

const (
	RoleTrainer = "trainer"
	RoleClient  = "client"
	RoleAdmin   = "admin"
)

type User struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Role             string    `json:"role"`
	StripeAccountID  *string   `json:"stripe_account_id,omitempty"`
	StripeCustomerID *string   `json:"stripe_customer_id,omitempty"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
