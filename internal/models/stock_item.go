package models

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StockItem is one physical unit of a resource at a storage. The
// resource_id and storage_id fields are soft references held as plain
// strings; nothing checks that the referenced documents exist.
type StockItem struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ResourceID string             `bson:"resource_id" json:"resource_id"`
	StorageID  string             `bson:"storage_id" json:"storage_id"`
}

type UpdateStockItem struct {
	ResourceID *string `json:"resource_id"`
	StorageID  *string `json:"storage_id"`
}

func (u UpdateStockItem) SetDocument() bson.D {
	var set bson.D
	if u.ResourceID != nil {
		set = append(set, bson.E{Key: "resource_id", Value: *u.ResourceID})
	}
	if u.StorageID != nil {
		set = append(set, bson.E{Key: "storage_id", Value: *u.StorageID})
	}
	return set
}

type StockItemCollection struct {
	StockItems []StockItem `json:"stock_items"`
}
