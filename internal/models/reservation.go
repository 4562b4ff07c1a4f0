package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reservation books a stock item starting at booking_date. A nil
// return_date means the item has not come back yet; the optional fields
// are stored as explicit nulls so the document shape stays stable.
type Reservation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	StockItemID string             `bson:"stock_item_id" json:"stock_item_id"`
	BookingDate time.Time          `bson:"booking_date" json:"booking_date"`
	ClientData  *string            `bson:"client_data" json:"client_data"`
	ReturnDate  *time.Time         `bson:"return_date" json:"return_date"`
	Notes       *string            `bson:"notes" json:"notes"`
}

// UpdateReservation carries only the fields to change. There is no way to
// clear a field back to null through an update; a nil pointer means
// "leave untouched".
type UpdateReservation struct {
	StockItemID *string    `json:"stock_item_id"`
	BookingDate *time.Time `json:"booking_date"`
	ClientData  *string    `json:"client_data"`
	ReturnDate  *time.Time `json:"return_date"`
	Notes       *string    `json:"notes"`
}

func (u UpdateReservation) SetDocument() bson.D {
	var set bson.D
	if u.StockItemID != nil {
		set = append(set, bson.E{Key: "stock_item_id", Value: *u.StockItemID})
	}
	if u.BookingDate != nil {
		set = append(set, bson.E{Key: "booking_date", Value: *u.BookingDate})
	}
	if u.ClientData != nil {
		set = append(set, bson.E{Key: "client_data", Value: *u.ClientData})
	}
	if u.ReturnDate != nil {
		set = append(set, bson.E{Key: "return_date", Value: *u.ReturnDate})
	}
	if u.Notes != nil {
		set = append(set, bson.E{Key: "notes", Value: *u.Notes})
	}
	return set
}

type ReservationCollection struct {
	Reservations []Reservation `json:"reservations"`
}
