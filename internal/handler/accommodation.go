package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/f-lab-edu/retry-lee/internal/apperr"
	"github.com/f-lab-edu/retry-lee/internal/middleware"
	"github.com/f-lab-edu/retry-lee/internal/model"
	"github.com/f-lab-edu/retry-lee/internal/service"
)

// AccommodationHandler exposes the admin registration endpoint and the
// public listing.
type AccommodationHandler struct {
	Accommodations *service.Accommodation
}

func NewAccommodationHandler(svc *service.Accommodation) *AccommodationHandler {
	return &AccommodationHandler{Accommodations: svc}
}

type roomReq struct {
	RoomType    string `json:"room_type"`
	ViewType    string `json:"view_type"`
	BedType     string `json:"bed_type"`
	SquareMeter uint32 `json:"square_meter"`
	Capacity    uint32 `json:"capacity"`
	PriceCents  uint64 `json:"price_cents"`
	Stock       uint32 `json:"stock"`
}

type accommodationReq struct {
	NameEn     string    `json:"name_en"`
	Info       string    `json:"info"`
	Country    string    `json:"country"`
	State      string    `json:"state"`
	City       string    `json:"city"`
	District   string    `json:"district"`
	Street     string    `json:"street"`
	PostalCode string    `json:"postal_code"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Rooms      []roomReq `json:"rooms"`
}

type roomResp struct {
	ID          uint64 `json:"id"`
	RoomType    string `json:"room_type"`
	ViewType    string `json:"view_type"`
	BedType     string `json:"bed_type"`
	SquareMeter uint32 `json:"square_meter"`
	Capacity    uint32 `json:"capacity"`
	PriceCents  uint64 `json:"price_cents"`
	Stock       uint32 `json:"stock"`
}

type accommodationResp struct {
	ID         uint64     `json:"id"`
	NameEn     string     `json:"name_en"`
	Info       string     `json:"info,omitempty"`
	Country    string     `json:"country"`
	State      string     `json:"state,omitempty"`
	City       string     `json:"city"`
	District   string     `json:"district,omitempty"`
	Street     string     `json:"street,omitempty"`
	PostalCode string     `json:"postal_code,omitempty"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Rooms      []roomResp `json:"rooms"`
}

// Register handles POST /v1/accommodations (ROLE_ADMIN). 201 with the
// stored record on success, 409/BE2001 when another accommodation sits
// inside the proximity box.
func (h *AccommodationHandler) Register(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.Role != model.RoleAdmin {
		// The authority middleware already gates this route; the check
		// here keeps the handler safe if it is ever wired bare.
		return errorJSON(c, apperr.ErrInvalidToken)
	}

	var req accommodationReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, apperr.ErrInvalidInput)
	}

	in := service.AccommodationInput{
		NameEn:     req.NameEn,
		Info:       req.Info,
		Country:    req.Country,
		State:      req.State,
		City:       req.City,
		District:   req.District,
		Street:     req.Street,
		PostalCode: req.PostalCode,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	}
	for _, r := range req.Rooms {
		in.Rooms = append(in.Rooms, service.RoomInput(r))
	}

	acc, rooms, err := h.Accommodations.Register(c.Request().Context(), p.ID, in)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, toAccommodationResp(acc, rooms))
}

// List handles GET /v1/accommodations. Public; served through the
// response cache.
func (h *AccommodationHandler) List(c echo.Context) error {
	accs, roomsByAcc, err := h.Accommodations.List(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	out := make([]accommodationResp, 0, len(accs))
	for _, a := range accs {
		out = append(out, toAccommodationResp(a, roomsByAcc[a.ID]))
	}
	return c.JSON(http.StatusOK, out)
}

func toAccommodationResp(a model.Accommodation, rooms []model.Room) accommodationResp {
	resp := accommodationResp{
		ID:         a.ID,
		NameEn:     a.NameEn,
		Info:       a.Info,
		Country:    a.Country,
		State:      a.State,
		City:       a.City,
		District:   a.District,
		Street:     a.Street,
		PostalCode: a.PostalCode,
		Latitude:   a.Latitude,
		Longitude:  a.Longitude,
		Rooms:      make([]roomResp, 0, len(rooms)),
	}
	for _, r := range rooms {
		resp.Rooms = append(resp.Rooms, roomResp{
			ID:          r.ID,
			RoomType:    r.RoomType,
			ViewType:    r.ViewType,
			BedType:     r.BedType,
			SquareMeter: r.SquareMeter,
			Capacity:    r.Capacity,
			PriceCents:  r.PriceCents,
			Stock:       r.Stock,
		})
	}
	return resp
}
