// Package queue defines the message payloads exchanged over the broker
// plus the publisher and the background consumer.
package queue

// AccommodationRegisteredEvent is published after an admin successfully
// registers an accommodation. It carries enough detail for downstream
// consumers (logging, notifications, analytics) without another trip to
// the primary database.
type AccommodationRegisteredEvent struct {
	AccommodationID uint64  `json:"accommodation_id"`
	AdminID         uint64  `json:"admin_id"`
	NameEn          string  `json:"name_en"`
	Country         string  `json:"country"`
	City            string  `json:"city"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	RoomCount       int     `json:"room_count"`
	RegisteredAt    string  `json:"registered_at"`
}
