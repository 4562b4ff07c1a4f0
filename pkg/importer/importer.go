package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"rental-inventory-api/internal/models"

	"github.com/tealeg/xlsx/v3"
	"go.mongodb.org/mongo-driver/mongo"
)

// ImportOptions configures a bulk import run.
type ImportOptions struct {
	DryRun    bool
	MaxErrors int // per sheet, default 50
}

// RowError describes a row that could not be imported.
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetSummary holds the import statistics for one sheet.
type SheetSummary struct {
	Name     string     `json:"name"`
	Inserted int        `json:"inserted"`
	Skipped  int        `json:"skipped"`
	Errors   int        `json:"errors"`
	Samples  []RowError `json:"error_samples,omitempty"`
}

// ImportSummary holds the overall statistics.
type ImportSummary struct {
	Inserted int            `json:"inserted"`
	Skipped  int            `json:"skipped"`
	Errors   int            `json:"errors"`
	Sheets   []SheetSummary `json:"sheets"`
	DryRun   bool           `json:"dry_run"`
}

// ImportExcel reads an xlsx workbook and inserts its rows into the
// rental collections. A "resources" sheet needs a title column; every
// other column becomes an extra field on the resource. A "stock_items"
// sheet needs resource_id and storage_id columns. Unknown sheets are
// ignored.
func ImportExcel(ctx context.Context, db *mongo.Database, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{DryRun: opts.DryRun, Sheets: []SheetSummary{}}
	if opts.MaxErrors == 0 {
		opts.MaxErrors = 50
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("read workbook: %w", err)
	}
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("open workbook: %w", err)
	}

	for _, sheet := range xlFile.Sheets {
		var sheetSummary SheetSummary
		var docs []interface{}

		switch strings.ToLower(strings.TrimSpace(sheet.Name)) {
		case "resources":
			var resources []models.Resource
			resources, sheetSummary = ParseResourceSheet(sheet, opts.MaxErrors)
			for _, doc := range resources {
				docs = append(docs, doc)
			}
		case "stock_items":
			var items []models.StockItem
			items, sheetSummary = ParseStockItemSheet(sheet, opts.MaxErrors)
			for _, doc := range items {
				docs = append(docs, doc)
			}
		default:
			continue
		}

		if !opts.DryRun && len(docs) > 0 {
			coll := db.Collection(strings.ToLower(strings.TrimSpace(sheet.Name)))
			if _, err := coll.InsertMany(ctx, docs); err != nil {
				// Ordered inserts persist everything before the failing
				// document, so the counts reflect the partial write.
				inserted := insertedBeforeFailure(err, len(docs))
				sheetSummary.Inserted = inserted
				sheetSummary.Errors += len(docs) - inserted
				sheetSummary.Samples = append(sheetSummary.Samples, RowError{
					Sheet:   sheet.Name,
					Row:     0,
					Message: fmt.Sprintf("insert stopped after %d of %d documents: %s", inserted, len(docs), err.Error()),
				})
			}
		}

		summary.Sheets = append(summary.Sheets, sheetSummary)
		summary.Inserted += sheetSummary.Inserted
		summary.Skipped += sheetSummary.Skipped
		summary.Errors += sheetSummary.Errors
	}

	return summary, nil
}

// insertedBeforeFailure reports how many documents an ordered InsertMany
// wrote before it stopped. The first write error's index is that count;
// for any other kind of failure nothing can be assumed.
func insertedBeforeFailure(err error, total int) int {
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) && len(bwe.WriteErrors) > 0 {
		if idx := bwe.WriteErrors[0].Index; idx >= 0 && idx <= total {
			return idx
		}
	}
	return 0
}

// ParseResourceSheet turns the sheet's data rows into resources. The
// first row is the header; a "title" column (case-insensitive) is
// required, everything else lands in the resource's extras.
func ParseResourceSheet(sheet *xlsx.Sheet, maxErrors int) ([]models.Resource, SheetSummary) {
	summary := SheetSummary{Name: sheet.Name}
	headers, err := headerRow(sheet)
	if err != nil {
		summary.Errors++
		summary.Samples = append(summary.Samples, RowError{Sheet: sheet.Name, Row: 1, Message: err.Error()})
		return nil, summary
	}

	var resources []models.Resource
	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		values := rowValues(sheet, rowIdx, headers)
		if len(values) == 0 {
			summary.Skipped++
			continue
		}

		res := models.Resource{}
		for header, value := range values {
			if strings.EqualFold(header, "title") {
				res.Title = value
				continue
			}
			if res.Extra == nil {
				res.Extra = map[string]interface{}{}
			}
			res.Extra[header] = value
		}
		if res.Title == "" {
			recordError(&summary, maxErrors, RowError{Sheet: sheet.Name, Row: rowIdx + 1, Message: "title is required"})
			continue
		}
		resources = append(resources, res)
		summary.Inserted++
	}
	return resources, summary
}

// ParseStockItemSheet turns the sheet's data rows into stock items. The
// header must contain resource_id and storage_id columns.
func ParseStockItemSheet(sheet *xlsx.Sheet, maxErrors int) ([]models.StockItem, SheetSummary) {
	summary := SheetSummary{Name: sheet.Name}
	headers, err := headerRow(sheet)
	if err != nil {
		summary.Errors++
		summary.Samples = append(summary.Samples, RowError{Sheet: sheet.Name, Row: 1, Message: err.Error()})
		return nil, summary
	}

	var items []models.StockItem
	for rowIdx := 1; rowIdx < sheet.MaxRow; rowIdx++ {
		values := rowValues(sheet, rowIdx, headers)
		if len(values) == 0 {
			summary.Skipped++
			continue
		}

		item := models.StockItem{}
		for header, value := range values {
			switch {
			case strings.EqualFold(header, "resource_id"):
				item.ResourceID = value
			case strings.EqualFold(header, "storage_id"):
				item.StorageID = value
			}
		}
		if item.ResourceID == "" || item.StorageID == "" {
			recordError(&summary, maxErrors, RowError{Sheet: sheet.Name, Row: rowIdx + 1, Message: "resource_id and storage_id are required"})
			continue
		}
		items = append(items, item)
		summary.Inserted++
	}
	return items, summary
}

// headerRow maps column index to header name from the sheet's first row.
func headerRow(sheet *xlsx.Sheet) (map[int]string, error) {
	row, err := sheet.Row(0)
	if err != nil {
		return nil, fmt.Errorf("read header row: %w", err)
	}
	headers := map[int]string{}
	for colIdx := 0; colIdx < sheet.MaxCol; colIdx++ {
		cell := row.GetCell(colIdx)
		if cell == nil {
			break
		}
		name := strings.TrimSpace(cell.String())
		if name == "" {
			continue
		}
		headers[colIdx] = name
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("header row is empty")
	}
	return headers, nil
}

// rowValues extracts the non-empty cells of a data row keyed by header.
func rowValues(sheet *xlsx.Sheet, rowIdx int, headers map[int]string) map[string]string {
	row, err := sheet.Row(rowIdx)
	if err != nil {
		return nil
	}
	values := map[string]string{}
	for colIdx, header := range headers {
		cell := row.GetCell(colIdx)
		if cell == nil {
			continue
		}
		value := strings.TrimSpace(cell.String())
		if value == "" {
			continue
		}
		values[header] = value
	}
	return values
}

func recordError(summary *SheetSummary, maxErrors int, rowErr RowError) {
	summary.Errors++
	if len(summary.Samples) < maxErrors {
		summary.Samples = append(summary.Samples, rowErr)
	}
}
