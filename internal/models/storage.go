package models

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Storage is a physical location holding stock. Closed schema.
type Storage struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name          string             `bson:"name" json:"name"`
	Address       string             `bson:"address" json:"address"`
	ContactNumber string             `bson:"contact_number" json:"contact_number"`
}

type UpdateStorage struct {
	Name          *string `json:"name"`
	Address       *string `json:"address"`
	ContactNumber *string `json:"contact_number"`
}

func (u UpdateStorage) SetDocument() bson.D {
	var set bson.D
	if u.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *u.Name})
	}
	if u.Address != nil {
		set = append(set, bson.E{Key: "address", Value: *u.Address})
	}
	if u.ContactNumber != nil {
		set = append(set, bson.E{Key: "contact_number", Value: *u.ContactNumber})
	}
	return set
}

type StorageCollection struct {
	Storages []Storage `json:"storages"`
}

// StorageSummary is the per-storage aggregation result: raw sizes of the
// joined stock item, reservation, and damage arrays.
type StorageSummary struct {
	StorageID         string `bson:"storage_id" json:"storage_id"`
	TotalReservations int    `bson:"total_reservations" json:"total_reservations"`
	TotalStockItems   int    `bson:"total_stock_items" json:"total_stock_items"`
	TotalDamages      int    `bson:"total_damages" json:"total_damages"`
}
