package clerk

import "encoding/json"

// WebhookEvent is the envelope Clerk posts to the webhook endpoint.
type WebhookEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UserData is the user payload inside user.* events.
type UserData struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	ImageURL        string `json:"image_url"`
	ProfileImageURL string `json:"profile_image_url"`
	EmailAddresses  []struct {
		EmailAddress string `json:"email_address"`
		Verification struct {
			Status string `json:"status"`
		} `json:"verification"`
	} `json:"email_addresses"`
}

// PrimaryEmail returns the first email address plus its verification
// state.
func (u *UserData) PrimaryEmail() (string, bool) {
	if len(u.EmailAddresses) == 0 {
		return "", false
	}
	first := u.EmailAddresses[0]
	return first.EmailAddress, first.Verification.Status == "verified"
}

// DisplayName falls back to the concatenated name when no username is
// set.
func (u *UserData) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName + u.LastName
}

// Avatar prefers the newer image_url field.
func (u *UserData) Avatar() string {
	if u.ImageURL != "" {
		return u.ImageURL
	}
	return u.ProfileImageURL
}
