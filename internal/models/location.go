package models

import (
	"time"

	"github.com/benmeehan/locationsharing/pkg/location"
)

// SharedLocation is the message emitted for one sharer's location.
type SharedLocation struct {
	PersonID    string     `json:"person_id"`
	FullName    string     `json:"full_name"`
	Nickname    *string    `json:"nickname,omitempty"`
	PictureURL  *string    `json:"picture_url,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Accuracy    *float64   `json:"accuracy,omitempty"`
	Address     *string    `json:"address,omitempty"`
	CountryCode *string    `json:"country_code,omitempty"`
	Battery     *uint8     `json:"battery,omitempty"`
	Charging    *bool      `json:"charging,omitempty"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// NewSharedLocation flattens a decoded location into a message.
func NewSharedLocation(loc location.Location, fetchedAt time.Time) SharedLocation {
	return SharedLocation{
		PersonID:    loc.Person.ID,
		FullName:    loc.Person.FullName,
		Nickname:    loc.Person.Nickname,
		PictureURL:  loc.Person.PictureURL,
		Timestamp:   loc.Timestamp,
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		Accuracy:    loc.Accuracy,
		Address:     loc.Address,
		CountryCode: loc.CountryCode,
		Battery:     loc.Battery,
		Charging:    loc.Charging,
		FetchedAt:   fetchedAt,
	}
}
