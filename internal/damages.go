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

func (s *Server) createDamages(w http.ResponseWriter, r *http.Request) {
	var in models.Damages
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.StockItemID) == "" {
		http.Error(w, "stock_item_id is required", http.StatusBadRequest)
		return
	}

	coll := s.DB.Collection("damages")
	res, err := coll.InsertOne(r.Context(), in)
	if err != nil {
		s.Log.Error().Err(err).Msg("insert damages")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var created models.Damages
	if err := coll.FindOne(r.Context(), bson.M{"_id": res.InsertedID}).Decode(&created); err != nil {
		s.Log.Error().Err(err).Msg("fetch created damages")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (s *Server) listDamages(w http.ResponseWriter, r *http.Request) {
	cur, err := s.DB.Collection("damages").Find(r.Context(), bson.M{}, options.Find().SetLimit(listLimit))
	if err != nil {
		s.Log.Error().Err(err).Msg("list damages")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	damages := []models.Damages{}
	if err := cur.All(r.Context(), &damages); err != nil {
		s.Log.Error().Err(err).Msg("decode damages")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, models.DamagesCollection{Damages: damages})
}

func (s *Server) updateDamages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		http.Error(w, "invalid damages id", http.StatusBadRequest)
		return
	}
	var in models.UpdateDamages
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	coll := s.DB.Collection("damages")
	if set := in.SetDocument(); len(set) > 0 {
		var updated models.Damages
		err := coll.FindOneAndUpdate(
			r.Context(),
			bson.M{"_id": oid},
			bson.D{{Key: "$set", Value: set}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, fmt.Sprintf("damages %s not found", id), http.StatusNotFound)
			return
		}
		if err != nil {
			s.Log.Error().Err(err).Msg("update damages")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respond.JSON(w, http.StatusOK, updated)
		return
	}

	var existing models.Damages
	err = coll.FindOne(r.Context(), bson.M{"_id": oid}).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, fmt.Sprintf("damages %s not found", id), http.StatusNotFound)
		return
	}
	if err != nil {
		s.Log.Error().Err(err).Msg("fetch damages")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, existing)
}
