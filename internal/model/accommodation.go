package model

import "time"

// Accommodation mirrors the 'accommodations' table. Latitude and
// longitude are decimal degrees; the registration flow rejects a new
// accommodation when another one already exists inside a small
// bounding box around these coordinates.
type Accommodation struct {
	ID         uint64
	NameEn     string
	Info       string
	Country    string
	State      string
	City       string
	District   string
	Street     string
	PostalCode string
	Latitude   float64
	Longitude  float64
	CreatedAt  time.Time
}

// Room mirrors the 'rooms' table. PriceCents keeps money integral.
type Room struct {
	ID              uint64
	AccommodationID uint64
	RoomType        string
	ViewType        string
	BedType         string
	SquareMeter     uint32
	Capacity        uint32
	PriceCents      uint64
	Stock           uint32
}

// Allowed enum values for room attributes.
var (
	RoomTypes = map[string]bool{"SINGLE": true, "DOUBLE": true, "DELUXE": true, "SUITE": true}
	ViewTypes = map[string]bool{"CITY": true, "OCEAN": true, "MOUNTAIN": true, "GARDEN": true}
	BedTypes  = map[string]bool{"SINGLE": true, "TWIN": true, "DOUBLE": true, "QUEEN": true, "KING": true}
)
