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

func (s *Server) createStorage(w http.ResponseWriter, r *http.Request) {
	var in models.Storage
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.Address) == "" {
		http.Error(w, "address is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.ContactNumber) == "" {
		http.Error(w, "contact_number is required", http.StatusBadRequest)
		return
	}
	in.ID = primitive.NilObjectID

	coll := s.DB.Collection("storages")
	res, err := coll.InsertOne(r.Context(), in)
	if err != nil {
		s.Log.Error().Err(err).Msg("insert storage")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var created models.Storage
	if err := coll.FindOne(r.Context(), bson.M{"_id": res.InsertedID}).Decode(&created); err != nil {
		s.Log.Error().Err(err).Msg("fetch created storage")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (s *Server) listStorages(w http.ResponseWriter, r *http.Request) {
	cur, err := s.DB.Collection("storages").Find(r.Context(), bson.M{}, options.Find().SetLimit(listLimit))
	if err != nil {
		s.Log.Error().Err(err).Msg("list storages")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	storages := []models.Storage{}
	if err := cur.All(r.Context(), &storages); err != nil {
		s.Log.Error().Err(err).Msg("decode storages")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, models.StorageCollection{Storages: storages})
}

func (s *Server) updateStorage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		http.Error(w, "invalid storage id", http.StatusBadRequest)
		return
	}
	var in models.UpdateStorage
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	coll := s.DB.Collection("storages")
	if set := in.SetDocument(); len(set) > 0 {
		var updated models.Storage
		err := coll.FindOneAndUpdate(
			r.Context(),
			bson.M{"_id": oid},
			bson.D{{Key: "$set", Value: set}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, fmt.Sprintf("storage %s not found", id), http.StatusNotFound)
			return
		}
		if err != nil {
			s.Log.Error().Err(err).Msg("update storage")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respond.JSON(w, http.StatusOK, updated)
		return
	}

	var existing models.Storage
	err = coll.FindOne(r.Context(), bson.M{"_id": oid}).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, fmt.Sprintf("storage %s not found", id), http.StatusNotFound)
		return
	}
	if err != nil {
		s.Log.Error().Err(err).Msg("fetch storage")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, existing)
}

// storageSummary reports, for every storage, how many stock items sit
// there and how many reservations and damage records those stock items
// have accumulated in total.
func (s *Server) storageSummary(w http.ResponseWriter, r *http.Request) {
	cur, err := s.DB.Collection("storages").Aggregate(r.Context(), storageSummaryPipeline())
	if err != nil {
		s.Log.Error().Err(err).Msg("storage summary aggregation")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	summaries := []models.StorageSummary{}
	if err := cur.All(r.Context(), &summaries); err != nil {
		s.Log.Error().Err(err).Msg("decode storage summaries")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, summaries)
}
