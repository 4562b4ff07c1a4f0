package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"rental-inventory-api/internal/models"
	"rental-inventory-api/internal/respond"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Server) createStockItem(w http.ResponseWriter, r *http.Request) {
	var in models.StockItem
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.ResourceID) == "" {
		http.Error(w, "resource_id is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.StorageID) == "" {
		http.Error(w, "storage_id is required", http.StatusBadRequest)
		return
	}
	in.ID = primitive.NilObjectID

	coll := s.DB.Collection("stock_items")
	res, err := coll.InsertOne(r.Context(), in)
	if err != nil {
		s.Log.Error().Err(err).Msg("insert stock item")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var created models.StockItem
	if err := coll.FindOne(r.Context(), bson.M{"_id": res.InsertedID}).Decode(&created); err != nil {
		s.Log.Error().Err(err).Msg("fetch created stock item")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (s *Server) listStockItems(w http.ResponseWriter, r *http.Request) {
	cur, err := s.DB.Collection("stock_items").Find(r.Context(), bson.M{}, options.Find().SetLimit(listLimit))
	if err != nil {
		s.Log.Error().Err(err).Msg("list stock items")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	stockItems := []models.StockItem{}
	if err := cur.All(r.Context(), &stockItems); err != nil {
		s.Log.Error().Err(err).Msg("decode stock items")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, models.StockItemCollection{StockItems: stockItems})
}

func (s *Server) updateStockItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		http.Error(w, "invalid stock item id", http.StatusBadRequest)
		return
	}
	var in models.UpdateStockItem
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	coll := s.DB.Collection("stock_items")
	if set := in.SetDocument(); len(set) > 0 {
		var updated models.StockItem
		err := coll.FindOneAndUpdate(
			r.Context(),
			bson.M{"_id": oid},
			bson.D{{Key: "$set", Value: set}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, fmt.Sprintf("stock item %s not found", id), http.StatusNotFound)
			return
		}
		if err != nil {
			s.Log.Error().Err(err).Msg("update stock item")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respond.JSON(w, http.StatusOK, updated)
		return
	}

	var existing models.StockItem
	err = coll.FindOne(r.Context(), bson.M{"_id": oid}).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, fmt.Sprintf("stock item %s not found", id), http.StatusNotFound)
		return
	}
	if err != nil {
		s.Log.Error().Err(err).Msg("fetch stock item")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, existing)
}

// damagedStockItems lists the stock items at a storage that have at least
// one damage record, with the damages and the owning resource joined in.
// The path parameter is a storage id matched against the stock items'
// storage_id field.
func (s *Server) damagedStockItems(w http.ResponseWriter, r *http.Request) {
	storageID := chi.URLParam(r, "id")
	cur, err := s.DB.Collection("stock_items").Aggregate(r.Context(), damagedStockItemsPipeline(storageID))
	if err != nil {
		s.Log.Error().Err(err).Msg("damaged stock items aggregation")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	results := []bson.M{}
	if err := cur.All(r.Context(), &results); err != nil {
		s.Log.Error().Err(err).Msg("decode damaged stock items")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, normalizeDocs(results))
}
