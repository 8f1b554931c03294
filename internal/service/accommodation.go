package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/f-lab-edu/retry-lee/internal/apperr"
	"github.com/f-lab-edu/retry-lee/internal/model"
	"github.com/f-lab-edu/retry-lee/internal/queue"
)

// proximityDegrees is the half-width of the duplicate-check bounding
// box, roughly 100 m at mid latitudes.
const proximityDegrees = 0.001

// AccommodationStore is the slice of AccommodationRepo this service
// needs.
type AccommodationStore interface {
	CountNearby(ctx context.Context, minLat, maxLat, minLon, maxLon float64) (int, error)
	CreateWithRooms(ctx context.Context, acc *model.Accommodation, rooms []model.Room) error
	List(ctx context.Context) ([]model.Accommodation, map[uint64][]model.Room, error)
}

// EventPublisher publishes domain events after a successful
// registration. Failures are best-effort.
type EventPublisher interface {
	PublishAccommodationRegistered(ctx context.Context, event queue.AccommodationRegisteredEvent) error
}

// RoomInput describes one room in a registration request.
type RoomInput struct {
	RoomType    string
	ViewType    string
	BedType     string
	SquareMeter uint32
	Capacity    uint32
	PriceCents  uint64
	Stock       uint32
}

// AccommodationInput describes a registration request, validated here
// before touching storage.
type AccommodationInput struct {
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
	Rooms      []RoomInput
}

// Accommodation implements the admin-side registration workflow and
// the public listing.
type Accommodation struct {
	store     AccommodationStore
	publisher EventPublisher
}

func NewAccommodation(store AccommodationStore, publisher EventPublisher) *Accommodation {
	return &Accommodation{store: store, publisher: publisher}
}

// Register validates the request, rejects it when another accommodation
// already sits in the proximity bounding box, persists the
// accommodation with its rooms in one transaction, then publishes an
// event. Publish failures are logged, never surfaced to the admin.
func (s *Accommodation) Register(ctx context.Context, adminID uint64, in AccommodationInput) (model.Accommodation, []model.Room, error) {
	if err := validateAccommodation(in); err != nil {
		return model.Accommodation{}, nil, err
	}

	n, err := s.store.CountNearby(ctx,
		in.Latitude-proximityDegrees, in.Latitude+proximityDegrees,
		in.Longitude-proximityDegrees, in.Longitude+proximityDegrees)
	if err != nil {
		return model.Accommodation{}, nil, err
	}
	if n > 0 {
		return model.Accommodation{}, nil, apperr.ErrDuplicateAccommodation
	}

	acc := model.Accommodation{
		NameEn:     strings.TrimSpace(in.NameEn),
		Info:       in.Info,
		Country:    in.Country,
		State:      in.State,
		City:       in.City,
		District:   in.District,
		Street:     in.Street,
		PostalCode: in.PostalCode,
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
	}
	rooms := make([]model.Room, 0, len(in.Rooms))
	for _, r := range in.Rooms {
		rooms = append(rooms, model.Room{
			RoomType:    r.RoomType,
			ViewType:    r.ViewType,
			BedType:     r.BedType,
			SquareMeter: r.SquareMeter,
			Capacity:    r.Capacity,
			PriceCents:  r.PriceCents,
			Stock:       r.Stock,
		})
	}
	if err := s.store.CreateWithRooms(ctx, &acc, rooms); err != nil {
		return model.Accommodation{}, nil, err
	}

	if s.publisher != nil {
		ev := queue.AccommodationRegisteredEvent{
			AccommodationID: acc.ID,
			AdminID:         adminID,
			NameEn:          acc.NameEn,
			Country:         acc.Country,
			City:            acc.City,
			Latitude:        acc.Latitude,
			Longitude:       acc.Longitude,
			RoomCount:       len(rooms),
			RegisteredAt:    time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.publisher.PublishAccommodationRegistered(ctx, ev); err != nil {
			log.Printf("accommodation: publish registered event failed: %v", err)
		}
	}
	return acc, rooms, nil
}

// List returns every accommodation with its rooms.
func (s *Accommodation) List(ctx context.Context) ([]model.Accommodation, map[uint64][]model.Room, error) {
	return s.store.List(ctx)
}

func validateAccommodation(in AccommodationInput) error {
	if strings.TrimSpace(in.NameEn) == "" || in.Country == "" || in.City == "" {
		return apperr.ErrInvalidInput
	}
	if in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180 {
		return apperr.ErrInvalidInput
	}
	if len(in.Rooms) == 0 {
		return apperr.ErrInvalidInput
	}
	for _, r := range in.Rooms {
		if !model.RoomTypes[r.RoomType] || !model.ViewTypes[r.ViewType] || !model.BedTypes[r.BedType] {
			return apperr.ErrInvalidInput
		}
		if r.Capacity == 0 || r.Stock == 0 {
			return apperr.ErrInvalidInput
		}
	}
	return nil
}
