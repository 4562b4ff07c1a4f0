package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rental-inventory-api/internal/models"
	"rental-inventory-api/internal/respond"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultOverdueDays = 14

func (s *Server) createReservation(w http.ResponseWriter, r *http.Request) {
	var in models.Reservation
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(in.StockItemID) == "" {
		http.Error(w, "stock_item_id is required", http.StatusBadRequest)
		return
	}
	if in.BookingDate.IsZero() {
		http.Error(w, "booking_date is required", http.StatusBadRequest)
		return
	}
	in.ID = primitive.NilObjectID

	coll := s.DB.Collection("reservations")
	res, err := coll.InsertOne(r.Context(), in)
	if err != nil {
		s.Log.Error().Err(err).Msg("insert reservation")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var created models.Reservation
	if err := coll.FindOne(r.Context(), bson.M{"_id": res.InsertedID}).Decode(&created); err != nil {
		s.Log.Error().Err(err).Msg("fetch created reservation")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (s *Server) listReservations(w http.ResponseWriter, r *http.Request) {
	cur, err := s.DB.Collection("reservations").Find(r.Context(), bson.M{}, options.Find().SetLimit(listLimit))
	if err != nil {
		s.Log.Error().Err(err).Msg("list reservations")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	reservations := []models.Reservation{}
	if err := cur.All(r.Context(), &reservations); err != nil {
		s.Log.Error().Err(err).Msg("decode reservations")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, models.ReservationCollection{Reservations: reservations})
}

func (s *Server) updateReservation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		http.Error(w, "invalid reservation id", http.StatusBadRequest)
		return
	}
	var in models.UpdateReservation
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	coll := s.DB.Collection("reservations")
	if set := in.SetDocument(); len(set) > 0 {
		var updated models.Reservation
		err := coll.FindOneAndUpdate(
			r.Context(),
			bson.M{"_id": oid},
			bson.D{{Key: "$set", Value: set}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, fmt.Sprintf("reservation %s not found", id), http.StatusNotFound)
			return
		}
		if err != nil {
			s.Log.Error().Err(err).Msg("update reservation")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		respond.JSON(w, http.StatusOK, updated)
		return
	}

	var existing models.Reservation
	err = coll.FindOne(r.Context(), bson.M{"_id": oid}).Decode(&existing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		http.Error(w, fmt.Sprintf("reservation %s not found", id), http.StatusNotFound)
		return
	}
	if err != nil {
		s.Log.Error().Err(err).Msg("fetch reservation")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, existing)
}

// overdueReservations reports open reservations at a storage booked
// strictly after now minus the days threshold. The filter direction is
// kept from the system this one replaces; see the pipeline for the
// caveat about the name.
func (s *Server) overdueReservations(w http.ResponseWriter, r *http.Request) {
	storageID := chi.URLParam(r, "storageID")
	days := defaultOverdueDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid days parameter", http.StatusBadRequest)
			return
		}
		days = n
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	cur, err := s.DB.Collection("reservations").Aggregate(r.Context(), overduePipeline(storageID, cutoff))
	if err != nil {
		s.Log.Error().Err(err).Msg("overdue reservations aggregation")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeFacetResult(w, r, cur, "overdueCount", "overdueReservations")
}

// unreturnedReservations reports every open reservation at a storage,
// regardless of booking age.
func (s *Server) unreturnedReservations(w http.ResponseWriter, r *http.Request) {
	storageID := chi.URLParam(r, "storageID")
	cur, err := s.DB.Collection("reservations").Aggregate(r.Context(), unreturnedPipeline(storageID))
	if err != nil {
		s.Log.Error().Err(err).Msg("unreturned reservations aggregation")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeFacetResult(w, r, cur, "unreturnedCount", "unreturnedReservations")
}

// writeFacetResult emits the single document a $facet stage produces.
// The guard for an empty cursor keeps the response shape stable.
func (s *Server) writeFacetResult(w http.ResponseWriter, r *http.Request, cur *mongo.Cursor, countKey, listKey string) {
	results := []bson.M{}
	if err := cur.All(r.Context(), &results); err != nil {
		s.Log.Error().Err(err).Msg("decode facet result")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(results) == 0 {
		respond.JSON(w, http.StatusOK, bson.M{countKey: 0, listKey: []interface{}{}})
		return
	}
	respond.JSON(w, http.StatusOK, normalizeDoc(results[0]))
}

// detailedReservations returns every reservation enriched with its stock
// item, resource, and storage sub-documents.
func (s *Server) detailedReservations(w http.ResponseWriter, r *http.Request) {
	cur, err := s.DB.Collection("reservations").Aggregate(r.Context(), detailedReservationsPipeline())
	if err != nil {
		s.Log.Error().Err(err).Msg("detailed reservations aggregation")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	results := []bson.M{}
	if err := cur.All(r.Context(), &results); err != nil {
		s.Log.Error().Err(err).Msg("decode detailed reservations")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, normalizeDocs(results))
}
