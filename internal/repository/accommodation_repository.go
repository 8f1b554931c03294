package repository

import (
	"context"
	"database/sql"

	"github.com/f-lab-edu/retry-lee/internal/model"
)

// AccommodationRepo owns the 'accommodations' and 'rooms' tables.
type AccommodationRepo struct {
	db *sql.DB
}

func NewAccommodationRepo(db *sql.DB) *AccommodationRepo { return &AccommodationRepo{db: db} }

// CountNearby returns how many accommodations fall inside the given
// latitude/longitude bounding box. The proximity duplicate check uses
// this instead of a real distance computation.
func (r *AccommodationRepo) CountNearby(ctx context.Context, minLat, maxLat, minLon, maxLon float64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM accommodations WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?",
		minLat, maxLat, minLon, maxLon).Scan(&n)
	return n, err
}

// CreateWithRooms inserts an accommodation and its rooms in one
// transaction. IDs are populated on the passed structs.
func (r *AccommodationRepo) CreateWithRooms(ctx context.Context, acc *model.Accommodation, rooms []model.Room) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO accommodations
		 (name_en, info, country, state, city, district, street, postal_code, latitude, longitude)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		acc.NameEn, acc.Info, acc.Country, acc.State, acc.City, acc.District,
		acc.Street, acc.PostalCode, acc.Latitude, acc.Longitude)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	acc.ID = uint64(id)

	for i := range rooms {
		rooms[i].AccommodationID = acc.ID
		res, err := tx.ExecContext(ctx,
			`INSERT INTO rooms
			 (accommodation_id, room_type, view_type, bed_type, square_meter, capacity, price_cents, stock)
			 VALUES (?,?,?,?,?,?,?,?)`,
			rooms[i].AccommodationID, rooms[i].RoomType, rooms[i].ViewType, rooms[i].BedType,
			rooms[i].SquareMeter, rooms[i].Capacity, rooms[i].PriceCents, rooms[i].Stock)
		if err != nil {
			return err
		}
		rid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		rooms[i].ID = uint64(rid)
	}
	return tx.Commit()
}

// List returns all accommodations together with their rooms, newest
// first. Intended for the public browse endpoint, which sits behind the
// response cache.
func (r *AccommodationRepo) List(ctx context.Context) ([]model.Accommodation, map[uint64][]model.Room, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name_en, info, country, state, city, district, street, postal_code,
		        latitude, longitude, created_at
		 FROM accommodations ORDER BY id DESC`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var accs []model.Accommodation
	for rows.Next() {
		var a model.Accommodation
		if err := rows.Scan(&a.ID, &a.NameEn, &a.Info, &a.Country, &a.State, &a.City,
			&a.District, &a.Street, &a.PostalCode, &a.Latitude, &a.Longitude, &a.CreatedAt); err != nil {
			return nil, nil, err
		}
		accs = append(accs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	roomRows, err := r.db.QueryContext(ctx,
		`SELECT id, accommodation_id, room_type, view_type, bed_type, square_meter, capacity, price_cents, stock
		 FROM rooms ORDER BY id`)
	if err != nil {
		return nil, nil, err
	}
	defer roomRows.Close()

	byAcc := make(map[uint64][]model.Room)
	for roomRows.Next() {
		var rm model.Room
		if err := roomRows.Scan(&rm.ID, &rm.AccommodationID, &rm.RoomType, &rm.ViewType, &rm.BedType,
			&rm.SquareMeter, &rm.Capacity, &rm.PriceCents, &rm.Stock); err != nil {
			return nil, nil, err
		}
		byAcc[rm.AccommodationID] = append(byAcc[rm.AccommodationID], rm)
	}
	return accs, byAcc, roomRows.Err()
}
