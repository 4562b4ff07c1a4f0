package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func stageKeys(p mongo.Pipeline) []string {
	keys := make([]string, len(p))
	for i, stage := range p {
		keys[i] = stage[0].Key
	}
	return keys
}

func TestLookupByStringRef(t *testing.T) {
	stage := lookupByStringRef("stock_items", "stock_item_id", "stock_item")
	require.Equal(t, "$lookup", stage[0].Key)

	lookup := stage[0].Value.(bson.D)
	assert.Equal(t, bson.E{Key: "from", Value: "stock_items"}, lookup[0])
	assert.Equal(t, bson.E{Key: "as", Value: "stock_item"}, lookup[3])

	// The let binding must convert the string reference to an ObjectID,
	// otherwise the join matches nothing.
	let := lookup[1].Value.(bson.D)
	assert.Equal(t, "converted", let[0].Key)
	assert.Equal(t, bson.D{{Key: "$toObjectId", Value: "$stock_item_id"}}, let[0].Value)

	sub := lookup[2].Value.(bson.A)
	require.Len(t, sub, 2)
	match := sub[0].(bson.D)
	assert.Equal(t, "$match", match[0].Key)
	project := sub[1].(bson.D)
	assert.Equal(t, bson.D{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}}, project)
}

func TestOverduePipeline(t *testing.T) {
	cutoff := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	p := overduePipeline("storage-1", cutoff)

	require.Equal(t, []string{"$lookup", "$unwind", "$match", "$project", "$facet", "$project"}, stageKeys(p))

	match := p[2][0].Value.(bson.D)
	require.Equal(t, "$and", match[0].Key)
	clauses := match[0].Value.(bson.A)
	require.Len(t, clauses, 3)

	storageClause := clauses[0].(bson.D)
	assert.Equal(t, "stock_item.storage_id", storageClause[0].Key)
	assert.Equal(t, bson.D{{Key: "$eq", Value: "storage-1"}}, storageClause[0].Value)

	returnClause := clauses[1].(bson.D)
	assert.Equal(t, "return_date", returnClause[0].Key)
	assert.Equal(t, bson.D{{Key: "$eq", Value: nil}}, returnClause[0].Value)

	// The date clause compares strictly greater than the cutoff, so
	// recent bookings pass and old ones do not.
	dateClause := clauses[2].(bson.D)
	assert.Equal(t, "$expr", dateClause[0].Key)
	assert.Equal(t, bson.D{{Key: "$gt", Value: bson.A{"$booking_date", cutoff}}}, dateClause[0].Value)

	facet := p[4][0].Value.(bson.D)
	assert.Equal(t, "overdueCount", facet[0].Key)
	assert.Equal(t, "overdueReservations", facet[1].Key)
	sortStage := facet[1].Value.(bson.A)[0].(bson.D)
	assert.Equal(t, bson.D{{Key: "$sort", Value: bson.D{{Key: "booking_date", Value: 1}}}}, sortStage)
}

func TestUnreturnedPipeline(t *testing.T) {
	p := unreturnedPipeline("storage-2")

	require.Equal(t, []string{"$lookup", "$unwind", "$match", "$project", "$facet", "$project"}, stageKeys(p))

	match := p[2][0].Value.(bson.D)
	clauses := match[0].Value.(bson.A)
	require.Len(t, clauses, 2, "unreturned has no date threshold")

	facet := p[4][0].Value.(bson.D)
	assert.Equal(t, "unreturnedCount", facet[0].Key)
	assert.Equal(t, "unreturnedReservations", facet[1].Key)
}

func TestFacetCountDefaultsToZero(t *testing.T) {
	p := countAndSortFacet("overdueCount", "overdueReservations")
	project := p[1][0].Value.(bson.D)

	var countExpr interface{}
	for _, e := range project {
		if e.Key == "overdueCount" {
			countExpr = e.Value
		}
	}
	require.NotNil(t, countExpr)
	ifNull := countExpr.(bson.D)
	assert.Equal(t, "$ifNull", ifNull[0].Key)
	assert.Equal(t, 0, ifNull[0].Value.(bson.A)[1])
}

func TestDetailedReservationsPipeline(t *testing.T) {
	p := detailedReservationsPipeline()

	// Three lookup+flatten pairs, then the id stringification and the
	// final projection.
	require.Equal(t, []string{
		"$lookup", "$addFields",
		"$lookup", "$addFields",
		"$lookup", "$addFields",
		"$addFields", "$project",
	}, stageKeys(p))

	wantJoins := []struct {
		from string
		ref  string
		as   string
	}{
		{"stock_items", "$stock_item_id", "stock_item_details"},
		{"resources", "$stock_item_details.resource_id", "resource_details"},
		{"storages", "$stock_item_details.storage_id", "storage_details"},
	}
	for i, want := range wantJoins {
		lookup := p[i*2][0].Value.(bson.D)
		assert.Equal(t, want.from, lookup[0].Value)
		let := lookup[1].Value.(bson.D)
		assert.Equal(t, bson.D{{Key: "$toObjectId", Value: want.ref}}, let[0].Value)
		assert.Equal(t, want.as, lookup[3].Value)

		// Flattening uses $arrayElemAt so a zero-match join leaves the
		// field absent instead of producing an empty object.
		flatten := p[i*2+1][0].Value.(bson.D)
		assert.Equal(t, want.as, flatten[0].Key)
		assert.Equal(t, bson.D{{Key: "$arrayElemAt", Value: bson.A{"$" + want.as, 0}}}, flatten[0].Value)
	}

	idStage := p[6][0].Value.(bson.D)
	assert.Equal(t, bson.E{Key: "id", Value: bson.D{{Key: "$toString", Value: "$_id"}}}, idStage[0])
}

func TestDamagedStockItemsPipeline(t *testing.T) {
	p := damagedStockItemsPipeline("storage-3")

	require.Equal(t, []string{"$match", "$lookup", "$match", "$lookup", "$project"}, stageKeys(p))

	assert.Equal(t, bson.D{{Key: "storage_id", Value: "storage-3"}}, p[0][0].Value)

	// Damages are keyed by the stringified stock item id, so this join
	// converts in the other direction: _id to string.
	damagesLookup := p[1][0].Value.(bson.D)
	assert.Equal(t, "damages", damagesLookup[0].Value)
	let := damagesLookup[1].Value.(bson.D)
	assert.Equal(t, bson.D{{Key: "$toString", Value: "$_id"}}, let[0].Value)

	nonEmpty := p[2][0].Value.(bson.D)
	assert.Equal(t, "damages", nonEmpty[0].Key)
	assert.Equal(t, bson.D{{Key: "$ne", Value: bson.A{}}}, nonEmpty[0].Value)

	resourceLookup := p[3][0].Value.(bson.D)
	assert.Equal(t, "resources", resourceLookup[0].Value)
	assert.Equal(t, "resource", resourceLookup[3].Value)
}

func TestStorageSummaryPipeline(t *testing.T) {
	p := storageSummaryPipeline()

	require.Equal(t, []string{"$lookup", "$addFields", "$lookup", "$lookup", "$project"}, stageKeys(p))

	stockLookup := p[0][0].Value.(bson.D)
	assert.Equal(t, "stock_items", stockLookup[0].Value)
	let := stockLookup[1].Value.(bson.D)
	assert.Equal(t, bson.D{{Key: "$toString", Value: "$_id"}}, let[0].Value)

	for i, from := range []string{"reservations", "damages"} {
		lookup := p[2+i][0].Value.(bson.D)
		assert.Equal(t, from, lookup[0].Value)
		assert.Equal(t, from, lookup[3].Value)
		sub := lookup[2].Value.(bson.A)
		match := sub[0].(bson.D)[0].Value.(bson.D)
		assert.Equal(t, bson.D{{Key: "$in", Value: bson.A{"$stock_item_id", "$$ids"}}}, match[0].Value)
	}

	project := p[4][0].Value.(bson.D)
	keys := make([]string, len(project))
	for i, e := range project {
		keys[i] = e.Key
	}
	assert.Equal(t, []string{"_id", "storage_id", "total_reservations", "total_stock_items", "total_damages"}, keys)
	assert.Equal(t, bson.D{{Key: "$toString", Value: "$_id"}}, project[1].Value)
}
