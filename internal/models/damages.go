package models

import (
	"encoding/json"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Damages is an incident record against a stock item, optionally tied to
// the reservation during which the damage happened. Open schema, same
// treatment as Resource: unmodeled fields live in Extra.
type Damages struct {
	ID            primitive.ObjectID     `bson:"_id,omitempty" json:"-"`
	StockItemID   string                 `bson:"stock_item_id" json:"-"`
	ReservationID *string                `bson:"reservation_id" json:"-"`
	Extra         map[string]interface{} `bson:",inline" json:"-"`
}

func (d Damages) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(d.Extra)+3)
	for k, v := range d.Extra {
		out[k] = v
	}
	if !d.ID.IsZero() {
		out["id"] = d.ID.Hex()
	}
	out["stock_item_id"] = d.StockItemID
	out["reservation_id"] = d.ReservationID
	return json.Marshal(out)
}

func (d *Damages) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.StockItemID = ""
	d.ReservationID = nil
	d.Extra = nil
	for k, v := range raw {
		switch k {
		case "id", "_id":
			// ignored
		case "stock_item_id":
			if err := json.Unmarshal(v, &d.StockItemID); err != nil {
				return err
			}
		case "reservation_id":
			if string(v) == "null" {
				continue
			}
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			d.ReservationID = &s
		default:
			var val interface{}
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			if d.Extra == nil {
				d.Extra = map[string]interface{}{}
			}
			d.Extra[k] = val
		}
	}
	return nil
}

type UpdateDamages struct {
	StockItemID   *string
	ReservationID *string
	Extra         map[string]interface{}
}

func (u *UpdateDamages) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.StockItemID = nil
	u.ReservationID = nil
	u.Extra = nil
	for k, v := range raw {
		if string(v) == "null" {
			continue
		}
		switch k {
		case "id", "_id":
			// ignored
		case "stock_item_id":
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			u.StockItemID = &s
		case "reservation_id":
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return err
			}
			u.ReservationID = &s
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

func (u UpdateDamages) SetDocument() bson.D {
	var set bson.D
	if u.StockItemID != nil {
		set = append(set, bson.E{Key: "stock_item_id", Value: *u.StockItemID})
	}
	if u.ReservationID != nil {
		set = append(set, bson.E{Key: "reservation_id", Value: *u.ReservationID})
	}
	for _, k := range sortedKeys(u.Extra) {
		set = append(set, bson.E{Key: k, Value: u.Extra[k]})
	}
	return set
}

type DamagesCollection struct {
	Damages []Damages `json:"damages"`
}

func sortedKeys(m map[string]interface{}) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
