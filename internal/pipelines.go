package internal

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// The referencing documents store their foreign ids as plain strings while
// _id is a native ObjectID, so every join converts explicitly in the
// direction it crosses that boundary ($toObjectId or $toString). A join
// without the conversion silently matches nothing.

// lookupByStringRef joins `from` on its _id against a string reference
// field of the current document. The joined documents lose their _id.
func lookupByStringRef(from, refField, as string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: from},
		{Key: "let", Value: bson.D{
			{Key: "converted", Value: bson.D{{Key: "$toObjectId", Value: "$" + refField}}},
		}},
		{Key: "pipeline", Value: bson.A{
			bson.D{{Key: "$match", Value: bson.D{
				{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{"$$converted", "$_id"}}}},
			}}},
			bson.D{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
		}},
		{Key: "as", Value: as},
	}}}
}

// reservationsByStorage is the shared front half of the overdue and
// unreturned pipelines: join each reservation to its stock item and keep
// the ones sitting at the given storage that have no return date.
func reservationsByStorage(storageID string, extraClauses ...bson.D) mongo.Pipeline {
	clauses := bson.A{
		bson.D{{Key: "stock_item.storage_id", Value: bson.D{{Key: "$eq", Value: storageID}}}},
		bson.D{{Key: "return_date", Value: bson.D{{Key: "$eq", Value: nil}}}},
	}
	for _, c := range extraClauses {
		clauses = append(clauses, c)
	}
	return mongo.Pipeline{
		lookupByStringRef("stock_items", "stock_item_id", "stock_item"),
		bson.D{{Key: "$unwind", Value: bson.D{{Key: "path", Value: "$stock_item"}}}},
		bson.D{{Key: "$match", Value: bson.D{{Key: "$and", Value: clauses}}}},
		bson.D{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
	}
}

// countAndSortFacet shapes the filtered reservations into a single
// document: a count (0 when nothing matched) and the list sorted
// ascending by booking date.
func countAndSortFacet(countKey, listKey string) mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$facet", Value: bson.D{
			{Key: countKey, Value: bson.A{
				bson.D{{Key: "$count", Value: "count"}},
			}},
			{Key: listKey, Value: bson.A{
				bson.D{{Key: "$sort", Value: bson.D{{Key: "booking_date", Value: 1}}}},
			}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: countKey, Value: bson.D{{Key: "$ifNull", Value: bson.A{
				bson.D{{Key: "$arrayElemAt", Value: bson.A{"$" + countKey + ".count", 0}}},
				0,
			}}}},
			{Key: listKey, Value: 1},
		}}},
	}
}

// overduePipeline keeps open reservations at the storage whose booking
// date is strictly later than the cutoff. The comparison direction is
// inherited behavior: despite the name, it selects recently booked
// reservations that are still out, not old ones.
func overduePipeline(storageID string, cutoff time.Time) mongo.Pipeline {
	p := reservationsByStorage(storageID, bson.D{
		{Key: "$expr", Value: bson.D{{Key: "$gt", Value: bson.A{"$booking_date", cutoff}}}},
	})
	return append(p, countAndSortFacet("overdueCount", "overdueReservations")...)
}

// unreturnedPipeline keeps every open reservation at the storage,
// regardless of age.
func unreturnedPipeline(storageID string) mongo.Pipeline {
	p := reservationsByStorage(storageID)
	return append(p, countAndSortFacet("unreturnedCount", "unreturnedReservations")...)
}

// lookupDetails joins `from` on a string reference and flattens the
// result to a single sub-document with a stringified id. A zero-match
// join leaves the field absent entirely, not an empty object.
func lookupDetails(from, refField, as string) mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "let", Value: bson.D{
				{Key: "converted", Value: bson.D{{Key: "$toObjectId", Value: "$" + refField}}},
			}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{
					{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{"$$converted", "$_id"}}}},
				}}},
				bson.D{{Key: "$addFields", Value: bson.D{
					{Key: "id", Value: bson.D{{Key: "$toString", Value: "$_id"}}},
				}}},
				bson.D{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
			}},
			{Key: "as", Value: as},
		}}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: as, Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$" + as, 0}}}},
		}}},
	}
}

// detailedReservationsPipeline enriches every reservation with its stock
// item and, through it, the resource and storage. All three joined
// sub-documents are flattened; every id comes out as a plain string.
func detailedReservationsPipeline() mongo.Pipeline {
	p := lookupDetails("stock_items", "stock_item_id", "stock_item_details")
	p = append(p, lookupDetails("resources", "stock_item_details.resource_id", "resource_details")...)
	p = append(p, lookupDetails("storages", "stock_item_details.storage_id", "storage_details")...)
	return append(p,
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "id", Value: bson.D{{Key: "$toString", Value: "$_id"}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
	)
}

// damagedStockItemsPipeline selects the stock items at a storage that
// have at least one damage record, carrying the damages along and the
// owning resource as a one-element array.
func damagedStockItemsPipeline(storageID string) mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "storage_id", Value: storageID}}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "damages"},
			{Key: "let", Value: bson.D{
				{Key: "converted", Value: bson.D{{Key: "$toString", Value: "$_id"}}},
			}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{
					{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{"$$converted", "$stock_item_id"}}}},
				}}},
				bson.D{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
			}},
			{Key: "as", Value: "damages"},
		}}},
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "damages", Value: bson.D{{Key: "$ne", Value: bson.A{}}}},
		}}},
		lookupByStringRef("resources", "resource_id", "resource"),
		bson.D{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
	}
}

// storageSummaryPipeline produces one record per storage with the raw
// sizes of its joined stock item, reservation, and damage arrays. Counts
// are not deduplicated and ignore reservation status.
func storageSummaryPipeline() mongo.Pipeline {
	lookupByStockItemIDs := func(from string) bson.D {
		return bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "let", Value: bson.D{{Key: "ids", Value: "$stock_item_ids"}}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{
					{Key: "$expr", Value: bson.D{{Key: "$in", Value: bson.A{"$stock_item_id", "$$ids"}}}},
				}}},
			}},
			{Key: "as", Value: from},
		}}}
	}
	return mongo.Pipeline{
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "stock_items"},
			{Key: "let", Value: bson.D{
				{Key: "sid", Value: bson.D{{Key: "$toString", Value: "$_id"}}},
			}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{
					{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{"$storage_id", "$$sid"}}}},
				}}},
			}},
			{Key: "as", Value: "stock_items"},
		}}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "stock_item_ids", Value: bson.D{{Key: "$map", Value: bson.D{
				{Key: "input", Value: "$stock_items"},
				{Key: "as", Value: "item"},
				{Key: "in", Value: bson.D{{Key: "$toString", Value: "$$item._id"}}},
			}}}},
		}}},
		lookupByStockItemIDs("reservations"),
		lookupByStockItemIDs("damages"),
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "storage_id", Value: bson.D{{Key: "$toString", Value: "$_id"}}},
			{Key: "total_reservations", Value: bson.D{{Key: "$size", Value: "$reservations"}}},
			{Key: "total_stock_items", Value: bson.D{{Key: "$size", Value: "$stock_items"}}},
			{Key: "total_damages", Value: bson.D{{Key: "$size", Value: "$damages"}}},
		}}},
	}
}
