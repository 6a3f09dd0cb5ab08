// Package ingest converts bank-export workbooks into the transaction table.
package ingest

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/spending-patterns/internal/domain"
)

// DefaultSheet is the zero-based sheet index holding the transaction list
// in the bank export.
const DefaultSheet = 1

type column int

const (
	colDate column = iota
	colTime
	colType
	colCategory
	colSubcategory
	colDescription
	colAmount
	colCurrency
	colPayment
	colMemo
)

var headers = map[string]column{
	"날짜":   colDate,
	"시간":   colTime,
	"타입":   colType,
	"대분류":  colCategory,
	"소분류":  colSubcategory,
	"내용":   colDescription,
	"금액":   colAmount,
	"화폐":   colCurrency,
	"결제수단": colPayment,
	"메모":   colMemo,

	"date":           colDate,
	"time":           colTime,
	"type":           colType,
	"category":       colCategory,
	"subcategory":    colSubcategory,
	"description":    colDescription,
	"amount":         colAmount,
	"currency":       colCurrency,
	"payment_method": colPayment,
	"payment method": colPayment,
	"memo":           colMemo,
}

var dateLayouts = []string{
	"2006-01-02",
	"2006.01.02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

var timeLayouts = []string{"15:04:05", "15:04"}

// Options controls workbook parsing.
type Options struct {
	// Sheet is the zero-based sheet index. A workbook with a single sheet
	// is read regardless.
	Sheet int
}

// Workbook reads the transaction sheet, combines the date and time cells
// into one timestamp, sorts rows newest first and assigns ids so that the
// oldest row gets 0.
func Workbook(r io.Reader, opts Options) (domain.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &domain.ValidationError{Field: "file", Message: "not a readable .xlsx workbook", Err: err}
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), opts.Sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "ingest.Workbook: read sheet %q", sheet)
	}
	if len(rows) == 0 {
		return nil, domain.NewValidationError("file", fmt.Sprintf("sheet %q is empty", sheet))
	}

	index, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	t := make(domain.Table, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		tx, err := parseRow(row, index)
		if err != nil {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("row %d", i+2), Message: err.Error()}
		}
		t = append(t, tx)
	}

	sort.SliceStable(t, func(i, j int) bool { return t[i].Timestamp.After(t[j].Timestamp) })
	n := int64(len(t))
	for i := range t {
		t[i].ID = (n - 1) - int64(i)
	}
	return t, nil
}

func pickSheet(sheets []string, idx int) (string, error) {
	switch {
	case idx >= 0 && idx < len(sheets):
		return sheets[idx], nil
	case len(sheets) == 1:
		return sheets[0], nil
	default:
		return "", domain.NewValidationError("file", fmt.Sprintf("workbook has no sheet %d", idx))
	}
}

func mapHeader(header []string) (map[column]int, error) {
	index := make(map[column]int)
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if c, ok := headers[key]; ok {
			if _, dup := index[c]; !dup {
				index[c] = i
			}
		}
	}
	for _, required := range []column{colDate, colAmount} {
		if _, ok := index[required]; !ok {
			return nil, domain.NewValidationError("file", "header row lacks a date or amount column")
		}
	}
	return index, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, index map[column]int, c column) string {
	i, ok := index[c]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseRow(row []string, index map[column]int) (domain.Transaction, error) {
	date, err := parseDate(cell(row, index, colDate))
	if err != nil {
		return domain.Transaction{}, err
	}
	offset, err := parseTimeOfDay(cell(row, index, colTime))
	if err != nil {
		return domain.Transaction{}, err
	}
	amount, err := parseAmount(cell(row, index, colAmount))
	if err != nil {
		return domain.Transaction{}, err
	}

	return domain.Transaction{
		Timestamp:     date.Add(offset),
		Type:          cell(row, index, colType),
		Category:      cell(row, index, colCategory),
		Subcategory:   cell(row, index, colSubcategory),
		Description:   cell(row, index, colDescription),
		Amount:        amount,
		Currency:      cell(row, index, colCurrency),
		PaymentMethod: cell(row, index, colPayment),
		Memo:          cell(row, index, colMemo),
	}, nil
}

// parseDate accepts an Excel date serial or a text date. The time of day
// carried by either is dropped.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		ts, err := excelize.ExcelDateToTime(math.Floor(serial), false)
		if err != nil {
			return time.Time{}, fmt.Errorf("date %q: %w", raw, err)
		}
		return ts.UTC(), nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			y, m, d := ts.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q is not recognised", raw)
}

// parseTimeOfDay accepts an Excel day fraction or HH:MM[:SS] text. An
// empty cell means midnight.
func parseTimeOfDay(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	if frac, err := strconv.ParseFloat(raw, 64); err == nil {
		_, frac = math.Modf(frac)
		return time.Duration(math.Round(frac*86400)) * time.Second, nil
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return time.Duration(ts.Hour())*time.Hour +
				time.Duration(ts.Minute())*time.Minute +
				time.Duration(ts.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("time %q is not recognised", raw)
}

func parseAmount(raw string) (int64, error) {
	clean := strings.ReplaceAll(raw, ",", "")
	if clean == "" {
		return 0, fmt.Errorf("amount is empty")
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a number", raw)
	}
	return int64(math.Round(v)), nil
}
