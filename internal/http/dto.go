package http

import (
	"time"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/slot"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type adminSignUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	AdmissionSecret string `json:"admission_secret"`
}

type sessionResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	UID       string `json:"uid"`
	Email     string `json:"email"`
}

type adminSignUpResponse struct {
	sessionResponse
	AdminID string `json:"admin_id"`
	Name    string `json:"name"`
}

type createBookingRequest struct {
	RoomID   string `json:"room_id"`
	Date     string `json:"date"`
	Slot     int    `json:"slot"`
	Duration int    `json:"duration"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Purpose  string `json:"purpose"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type reservationDTO struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	RoomName  string `json:"room_name"`
	Date      string `json:"date"`
	Slot      int    `json:"slot"`
	Duration  int    `json:"duration"`
	Hours     string `json:"hours"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Purpose   string `json:"purpose,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
}

type roomDTO struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type,omitempty"`
	Capacity int      `json:"capacity"`
	Features []string `json:"features"`
}

type slotDTO struct {
	Slot        int    `json:"slot"`
	Label       string `json:"label"`
	MaxDuration int    `json:"max_duration"`
}

type slotStateDTO struct {
	Slot          int    `json:"slot"`
	Label         string `json:"label"`
	Free          bool   `json:"free"`
	ReservationID string `json:"reservation_id,omitempty"`
	Status        string `json:"status,omitempty"`
}

type availabilityDTO struct {
	Room  roomDTO        `json:"room"`
	Date  string         `json:"date"`
	Slots []slotStateDTO `json:"slots"`
}

type conflictDTO struct {
	ReservationID string `json:"reservation_id"`
	Start         int    `json:"start"`
	End           int    `json:"end"`
	OverlapStart  int    `json:"overlap_start"`
	OverlapEnd    int    `json:"overlap_end"`
}

func toSessionResponse(session application.Session) sessionResponse {
	return sessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
		UID:       session.Identity.UID,
		Email:     session.Identity.Email,
	}
}

func toReservationDTO(r application.Reservation) reservationDTO {
	dto := reservationDTO{
		ID:       r.ID,
		RoomID:   r.RoomID,
		RoomName: r.RoomName,
		Date:     r.Date,
		Slot:     r.Slot,
		Duration: slot.NormalizeDuration(r.Duration),
		Hours:    r.Range().String(),
		Name:     r.RequesterName,
		Email:    r.RequesterEmail,
		Purpose:  r.Purpose,
		Status:   string(r.Status),
	}
	if !r.CreatedAt.IsZero() {
		dto.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	dtos := make([]reservationDTO, 0, len(reservations))
	for _, r := range reservations {
		dtos = append(dtos, toReservationDTO(r))
	}
	return dtos
}

func toRoomDTO(room application.Room) roomDTO {
	features := room.Features
	if features == nil {
		features = []string{}
	}
	return roomDTO{ID: room.ID, Name: room.Name, Type: room.Type, Capacity: room.Capacity, Features: features}
}

func toAvailabilityDTOs(grid []application.RoomAvailability) []availabilityDTO {
	dtos := make([]availabilityDTO, 0, len(grid))
	for _, entry := range grid {
		states := make([]slotStateDTO, 0, len(entry.Slots))
		for _, s := range entry.Slots {
			states = append(states, slotStateDTO{
				Slot:          s.Slot,
				Label:         s.Label,
				Free:          s.Free,
				ReservationID: s.ReservationID,
				Status:        string(s.Status),
			})
		}
		dtos = append(dtos, availabilityDTO{Room: toRoomDTO(entry.Room), Date: entry.Date, Slots: states})
	}
	return dtos
}

func toConflictDTOs(err *application.ConflictError) []conflictDTO {
	dtos := make([]conflictDTO, 0, len(err.Conflicts))
	for _, c := range err.Conflicts {
		dtos = append(dtos, conflictDTO{
			ReservationID: c.WithReservationID,
			Start:         c.Existing.Start,
			End:           c.Existing.End,
			OverlapStart:  c.Overlap.Start,
			OverlapEnd:    c.Overlap.End,
		})
	}
	return dtos
}
