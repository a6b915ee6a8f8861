package location

import "time"

// Person is a user sharing their location with the account.
type Person struct {
	ID         string  `json:"id"`                    // Opaque, stable identifier
	PictureURL *string `json:"picture_url,omitempty"` // Avatar URL, nil when the sharer has none
	FullName   string  `json:"full_name"`             // Display name
	Nickname   *string `json:"nickname,omitempty"`    // Shorter name, nil when unset
}

// Location is the most recent known position of one sharer.
// Values are snapshots: nothing in this package mutates a Location after decoding it.
type Location struct {
	Person Person `json:"person"`

	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Accuracy    *float64   `json:"accuracy,omitempty"`     // Accuracy radius in metres
	Address     *string    `json:"address,omitempty"`      // Server's best guess at the address
	CountryCode *string    `json:"country_code,omitempty"` // ISO country code of the address
	Timestamp   *time.Time `json:"timestamp,omitempty"`    // When the position was last updated (UTC)
	Battery     *uint8     `json:"battery,omitempty"`      // Phone battery level, nominally 0-100
	Charging    *bool      `json:"charging,omitempty"`     // Whether the phone is charging
}

// WithAddress returns a copy of l with its address set.
func (l Location) WithAddress(address string) Location {
	l.Address = &address
	return l
}
