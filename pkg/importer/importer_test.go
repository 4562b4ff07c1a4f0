package importer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"
	"go.mongodb.org/mongo-driver/mongo"
)

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func TestParseResourceSheet(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("resources")
	require.NoError(t, err)

	addRow(sheet, "Title", "category", "seats")
	addRow(sheet, "Kayak", "watercraft", "2")
	addRow(sheet, "", "misc", "") // missing title
	addRow(sheet, "Tent")

	resources, summary := ParseResourceSheet(sheet, 50)

	require.Len(t, resources, 2)
	assert.Equal(t, "Kayak", resources[0].Title)
	assert.Equal(t, "watercraft", resources[0].Extra["category"])
	assert.Equal(t, "2", resources[0].Extra["seats"])
	assert.Equal(t, "Tent", resources[1].Title)
	assert.Nil(t, resources[1].Extra)

	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 1, summary.Errors)
	require.Len(t, summary.Samples, 1)
	assert.Equal(t, 3, summary.Samples[0].Row)
	assert.Equal(t, "title is required", summary.Samples[0].Message)
}

func TestParseResourceSheetEmptyHeader(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("resources")
	require.NoError(t, err)

	resources, summary := ParseResourceSheet(sheet, 50)

	assert.Nil(t, resources)
	assert.Equal(t, 1, summary.Errors)
}

func TestParseResourceSheetCapsErrorSamples(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("resources")
	require.NoError(t, err)

	addRow(sheet, "title", "note")
	for i := 0; i < 5; i++ {
		addRow(sheet, "", "no title here")
	}

	_, summary := ParseResourceSheet(sheet, 2)

	assert.Equal(t, 5, summary.Errors)
	assert.Len(t, summary.Samples, 2)
}

func TestParseStockItemSheet(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("stock_items")
	require.NoError(t, err)

	addRow(sheet, "resource_id", "storage_id")
	addRow(sheet, "res-1", "stor-1")
	addRow(sheet, "res-2", "") // missing storage
	addRow(sheet, "res-3", "stor-2")

	items, summary := ParseStockItemSheet(sheet, 50)

	require.Len(t, items, 2)
	assert.Equal(t, "res-1", items[0].ResourceID)
	assert.Equal(t, "stor-1", items[0].StorageID)
	assert.Equal(t, "res-3", items[1].ResourceID)

	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, "resource_id and storage_id are required", summary.Samples[0].Message)
}

func workbookBytes(t *testing.T, build func(f *xlsx.File)) []byte {
	t.Helper()
	f := xlsx.NewFile()
	build(f)
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestImportExcelDryRun(t *testing.T) {
	data := workbookBytes(t, func(f *xlsx.File) {
		resources, err := f.AddSheet("Resources")
		require.NoError(t, err)
		addRow(resources, "title")
		addRow(resources, "Kayak")
		addRow(resources, "Tent")

		items, err := f.AddSheet("stock_items")
		require.NoError(t, err)
		addRow(items, "resource_id", "storage_id")
		addRow(items, "res-1", "stor-1")

		ignored, err := f.AddSheet("unrelated")
		require.NoError(t, err)
		addRow(ignored, "whatever")
	})

	// Dry run never touches the database, so nil is fine here.
	summary, err := ImportExcel(context.Background(), nil, bytes.NewReader(data), ImportOptions{DryRun: true})
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, 3, summary.Inserted)
	assert.Equal(t, 0, summary.Errors)
	require.Len(t, summary.Sheets, 2, "unknown sheets are skipped")
	assert.Equal(t, "Resources", summary.Sheets[0].Name)
	assert.Equal(t, 2, summary.Sheets[0].Inserted)
	assert.Equal(t, "stock_items", summary.Sheets[1].Name)
	assert.Equal(t, 1, summary.Sheets[1].Inserted)
}

func TestInsertedBeforeFailure(t *testing.T) {
	partial := mongo.BulkWriteException{
		WriteErrors: []mongo.BulkWriteError{
			{WriteError: mongo.WriteError{Index: 3, Code: 11000, Message: "duplicate key"}},
		},
	}
	assert.Equal(t, 3, insertedBeforeFailure(partial, 10))

	assert.Equal(t, 0, insertedBeforeFailure(errors.New("connection reset"), 10))
	assert.Equal(t, 0, insertedBeforeFailure(mongo.BulkWriteException{}, 10))

	// An index past the batch means the error is not about this batch.
	bogus := mongo.BulkWriteException{
		WriteErrors: []mongo.BulkWriteError{
			{WriteError: mongo.WriteError{Index: 42, Code: 11000, Message: "duplicate key"}},
		},
	}
	assert.Equal(t, 0, insertedBeforeFailure(bogus, 10))
}

func TestImportExcelRejectsGarbage(t *testing.T) {
	_, err := ImportExcel(context.Background(), nil, bytes.NewReader([]byte("not a workbook")), ImportOptions{DryRun: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open workbook")
}
