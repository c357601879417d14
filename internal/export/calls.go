// Package export renders call records as downloadable CSV or XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"pbx-api/internal/apperr"
	"pbx-api/internal/models"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	sheetName  = "Sheet1"
	timeLayout = "2006-01-02 15:04:05"
)

var Columns = []string{"src", "dst", "calldate", "duration", "disposition"}

var ErrUnknownFormat = fmt.Errorf("%w: format must be csv or xlsx", apperr.ErrInvalidInput)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", ErrUnknownFormat
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName is calls_<period>_<YYYYMMDD>.<ext>.
func (f Format) FileName(period string, at time.Time) string {
	return fmt.Sprintf("calls_%s_%s.%s", period, at.Format("20060102"), f)
}

func Write(w io.Writer, f Format, calls []models.CallRecord) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, calls)
	case FormatCSV:
		return WriteCSV(w, calls)
	default:
		return ErrUnknownFormat
	}
}

func WriteCSV(w io.Writer, calls []models.CallRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, c := range calls {
		rec := []string{
			c.Src,
			c.Dst,
			c.CallDate.Format(timeLayout),
			strconv.Itoa(c.Duration),
			c.Disposition,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(w io.Writer, calls []models.CallRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return err
		}
	}

	for row, c := range calls {
		values := []interface{}{c.Src, c.Dst, c.CallDate.Format(timeLayout), c.Duration, c.Disposition}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
