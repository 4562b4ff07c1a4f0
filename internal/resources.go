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

func (s *Server) createResource(w http.ResponseWriter, r *http.Request) {
	var in models.Resource
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	coll := s.DB.Collection("resources")
	res, err := coll.InsertOne(r.Context(), in)
	if err != nil {
		s.Log.Error().Err(err).Msg("insert resource")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var created models.Resource
	if err := coll.FindOne(r.Context(), bson.M{"_id": res.InsertedID}).Decode(&created); err != nil {
		s.Log.Error().Err(err).Msg("fetch created resource")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	cur, err := s.DB.Collection("resources").Find(r.Context(), bson.M{}, options.Find().SetLimit(listLimit))
	if err != nil {
		s.Log.Error().Err(err).Msg("list resources")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resources := []models.Resource{}
	if err := cur.All(r.Context(), &resources); err != nil {
		s.Log.Error().Err(err).Msg("decode resources")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, models.ResourceCollection{Resources: resources})
}

func (s *Server) updateResource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		http.Error(w, "invalid resource id", http.StatusBadRequest)
		return
	}
	var in models.UpdateResource
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	coll := s.DB.Collection("resources")
	if set := in.SetDocument(); len(set) > 0 {
		var updated models.Resource
		err := coll.FindOneAndUpdate(
			r.Context(),
			bson.M{"_id": oid},
			bson.D{{Key: "$set", Value: set}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, fmt.Sprintf("resource %s not found", id), http.StatusNotFound)
			return
		}
		if err != nil {
			s.Log.Error().Err(err).Msg("update resource")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respond.JSON(w, http.StatusOK, updated)
		return
	}

	// Empty payloads are not an error: confirm the document exists and
	// return it unchanged.
	var existing models.Resource
	err = coll.FindOne(r.Context(), bson.M{"_id": oid}).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, fmt.Sprintf("resource %s not found", id), http.StatusNotFound)
		return
	}
	if err != nil {
		s.Log.Error().Err(err).Msg("fetch resource")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, existing)
}
