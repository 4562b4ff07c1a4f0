package models

import (
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Resource is a rentable catalog item. The schema is open: any field the
// client sends beyond the ones modeled here lands in Extra and round-trips
// verbatim through both JSON and BSON.
type Resource struct {
	ID    primitive.ObjectID     `bson:"_id,omitempty" json:"-"`
	Title string                 `bson:"title" json:"-"`
	Extra map[string]interface{} `bson:",inline" json:"-"`
}

// MarshalJSON merges the extra fields into a flat object next to id and title.
func (r Resource) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.Extra)+2)
	for k, v := range r.Extra {
		out[k] = v
	}
	if !r.ID.IsZero() {
		out["id"] = r.ID.Hex()
	}
	out["title"] = r.Title
	return json.Marshal(out)
}

// UnmarshalJSON splits the payload into the modeled fields and the extras.
// A client-supplied "id" is dropped; the store assigns identifiers.
func (r *Resource) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Title = ""
	r.Extra = nil
	for k, v := range raw {
		switch k {
		case "id", "_id":
			// ignored
		case "title":
			if err := json.Unmarshal(v, &r.Title); err != nil {
				return err
			}
		default:
			var val interface{}
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			if r.Extra == nil {
				r.Extra = map[string]interface{}{}
			}
			r.Extra[k] = val
		}
	}
	return nil
}

// UpdateResource is a partial update: only fields present and non-null in
// the payload make it into the set document.
type UpdateResource struct {
	Title *string
	Extra map[string]interface{}
}

func (u *UpdateResource) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.Title = nil
	u.Extra = nil
	for k, v := range raw {
		if string(v) == "null" {
			continue
		}
		switch k {
		case "id", "_id":
			// ignored
		case "title":
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			u.Title = &s
		default:
			var val interface{}
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			if u.Extra == nil {
				u.Extra = map[string]interface{}{}
			}
			u.Extra[k] = val
		}
	}
	return nil
}

// SetDocument builds the $set payload for the update. Extra keys are
// emitted in sorted order so the document is deterministic.
func (u UpdateResource) SetDocument() bson.D {
	var set bson.D
	if u.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *u.Title})
	}
	for _, k := range sortedKeys(u.Extra) {
		set = append(set, bson.E{Key: k, Value: u.Extra[k]})
	}
	return set
}

// ResourceCollection wraps the list response.
type ResourceCollection struct {
	Resources []Resource `json:"resources"`
}
