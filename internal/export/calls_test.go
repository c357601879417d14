package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"pbx-api/internal/apperr"
	"pbx-api/internal/models"
)

var sampleCalls = []models.CallRecord{
	{
		Src:         "1001",
		Dst:         "5551234, ext 2",
		CallDate:    time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC),
		Duration:    42,
		Disposition: "ANSWERED",
	},
	{
		Src:         "1002",
		Dst:         "600",
		CallDate:    time.Date(2024, time.May, 1, 8, 0, 5, 0, time.UTC),
		Duration:    0,
		Disposition: "NO ANSWER",
	},
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatCSV {
		t.Fatalf("default format = %q, %v", f, err)
	}
	if f, err := ParseFormat("xlsx"); err != nil || f != FormatXLSX {
		t.Fatalf("xlsx format = %q, %v", f, err)
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, time.May, 3, 12, 0, 0, 0, time.UTC)
	if got := FormatXLSX.FileName("week", at); got != "calls_week_20240503.xlsx" {
		t.Fatalf("file name = %q", got)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatCSV, sampleCalls); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][2] != "calldate" {
		t.Fatalf("header = %v", records[0])
	}
	if records[1][1] != "5551234, ext 2" || records[1][2] != "2024-05-01 09:30:00" || records[1][3] != "42" {
		t.Fatalf("row = %v", records[1])
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatXLSX, sampleCalls); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "src" || rows[2][4] != "NO ANSWER" {
		t.Fatalf("unexpected rows %v", rows)
	}
}
