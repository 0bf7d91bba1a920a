package client

import (
	"encoding/json"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubscriptionValidity is how long a paid subscription allows campaign
// sending, measured from SubscriptionStart.
const SubscriptionValidity = 30 * 24 * time.Hour

// Client is one account: credentials, business profile and the customer
// roster it owns. The roster is unique by customer email.
type Client struct {
	ID           uuid.UUID
	Username     string
	PasswordHash []byte
	PasswordSalt []byte

	SubscriptionStart *time.Time
	BusinessContext   string
	Profile           *Profile

	Roster        []CustomerRecord
	RosterVersion int64

	ResetToken          string
	ResetTokenExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubscriptionActive reports whether the client may send campaigns at the
// given instant.
func (c Client) SubscriptionActive(now time.Time) bool {
	if c.SubscriptionStart == nil {
		return false
	}
	return now.Sub(*c.SubscriptionStart) < SubscriptionValidity
}

// Profile holds the contact details shown on the account page.
type Profile struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

// CustomerRecord is one roster entry, keyed by email. All other columns of
// an uploaded row are kept as free-form attributes and later feed email
// personalization.
type CustomerRecord struct {
	Email      string
	Attributes map[string]string
}

// NormalizeEmail canonicalizes an email for use as a roster key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Equal reports field-by-field equality over email and the full attribute
// set. A record whose attributes all match the stored one is a re-upload
// no-op, not an update.
func (r CustomerRecord) Equal(other CustomerRecord) bool {
	if NormalizeEmail(r.Email) != NormalizeEmail(other.Email) {
		return false
	}
	return maps.Equal(r.Attributes, other.Attributes)
}

// CustomerRecord is stored and transported as a flat JSON object with the
// email alongside the arbitrary attributes, matching the uploaded row shape.

func (r CustomerRecord) MarshalJSON() ([]byte, error) {
	flat := make(map[string]string, len(r.Attributes)+1)
	for k, v := range r.Attributes {
		flat[k] = v
	}
	flat["email"] = NormalizeEmail(r.Email)
	return json.Marshal(flat)
}

func (r *CustomerRecord) UnmarshalJSON(data []byte) error {
	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	r.Email = NormalizeEmail(flat["email"])
	delete(flat, "email")
	if len(flat) == 0 {
		r.Attributes = nil
		return nil
	}
	r.Attributes = flat
	return nil
}
