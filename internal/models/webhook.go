package models

// Identity provider webhook event types
const (
	IdentityUserCreated = "user.created"
	IdentityUserUpdated = "user.updated"
	IdentityUserDeleted = "user.deleted"
)

// IdentityEvent is the envelope delivered by the identity provider webhook
type IdentityEvent struct {
	Type string           `json:"type"`
	Data IdentityUserData `json:"data"`
}

// IdentityUserData is the user payload of an identity event
type IdentityUserData struct {
	ID             string          `json:"id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	ImageURL       string          `json:"image_url"`
	EmailAddresses []IdentityEmail `json:"email_addresses"`
}

// IdentityEmail is one email address attached to an identity user
type IdentityEmail struct {
	EmailAddress string `json:"email_address"`
	Verification *struct {
		Status string `json:"status"`
	} `json:"verification"`
}

// Verified reports whether the provider has confirmed the address
func (e IdentityEmail) Verified() bool {
	return e.Verification != nil && e.Verification.Status == "verified"
}

// IdentityProfile is what the service needs to create or refresh a user
type IdentityProfile struct {
	ProviderUID   string
	Email         string
	EmailVerified bool
	FullName      string
	ImageURL      string
}
