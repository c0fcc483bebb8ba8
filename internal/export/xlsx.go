package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"restoran-analytics/internal/analytics"

	"github.com/xuri/excelize/v2"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	SheetSummary    = "Summary"
	SheetSeries     = "Series"
	SheetItems      = "Items"
	SheetCategories = "Categories"
	SheetWaiters    = "Waiters"
	SheetBreakdown  = "Breakdown"
)

// Filename is the download name of a report workbook.
func Filename(r *analytics.Report) string {
	return fmt.Sprintf("report-%s-%s.xlsx", r.Granularity, r.Period.Start.Format("2006-01-02"))
}

// Workbook renders r into an xlsx file. The caller must Close it.
func Workbook(r *analytics.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	w := &writer{f: f}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	w.header = header

	w.summary(r)
	w.series(r)
	w.ranked(SheetItems, "Item", r.TopItems)
	w.ranked(SheetCategories, "Category", r.TopCategories)
	w.ranked(SheetWaiters, "Waiter", r.WaiterTable)
	w.breakdown(r)
	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	return f, nil
}

// Write renders r and writes the workbook to out.
func Write(out io.Writer, r *analytics.Report) error {
	f, err := Workbook(r)
	if err != nil {
		return fmt.Errorf("rendering workbook: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Bytes renders r into memory.
func Bytes(r *analytics.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writer keeps the first error so sheet builders stay linear.
type writer struct {
	f      *excelize.File
	header int
	err    error
}

func (w *writer) sheet(name string) {
	if w.err != nil || name == SheetSummary {
		return
	}
	_, w.err = w.f.NewSheet(name)
}

func (w *writer) row(sheet string, n int, values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(sheet, cell, &values)
}

func (w *writer) headerRow(sheet string, titles ...any) {
	w.row(sheet, 1, titles...)
	if w.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(titles), 1)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(sheet, "A1", last, w.header)
}

func (w *writer) summary(r *analytics.Report) {
	s := SheetSummary
	h := r.Headline
	rows := [][]any{
		{"Granularity", string(r.Granularity)},
		{"Period", r.Period.Start.Format(time.DateTime), r.Period.End.Format(time.DateTime)},
		{"Previous period", r.PreviousPeriod.Start.Format(time.DateTime), r.PreviousPeriod.End.Format(time.DateTime)},
		{},
		{"Metric", "Current", "Previous", "Change %"},
		{"Orders", h.Orders, r.Previous.Orders, r.Comparison.Orders},
		{"Revenue", h.Revenue.InexactFloat64(), r.Previous.Revenue.InexactFloat64(), r.Comparison.Revenue},
		{"Average order value", h.AverageOrderValue.InexactFloat64(),
			analytics.AverageOrderValue(r.Previous.Revenue, r.Previous.Orders).InexactFloat64(),
			r.Comparison.AverageOrderValue},
		{"Paid orders", h.PaidOrders, r.Previous.PaidOrders, r.Comparison.PaidOrders},
		{"Paid revenue", h.PaidRevenue.InexactFloat64()},
		{"Unpaid revenue", h.UnpaidRevenue.InexactFloat64()},
		{"Items sold", h.Items},
		{"Average items per order", h.AverageItemsPerOrder.InexactFloat64()},
		{},
		{"Generated at", r.GeneratedAt.Format(time.DateTime)},
	}
	for i, values := range rows {
		w.row(s, i+1, values...)
	}
	if w.err == nil {
		w.err = w.f.SetCellStyle(s, "A5", "D5", w.header)
	}
}

func (w *writer) series(r *analytics.Report) {
	s := SheetSeries
	w.sheet(s)
	titles := []any{"Bucket", "Orders", "Revenue", "Paid", "Unpaid", "Average order value"}
	for _, t := range analytics.OrderTypes {
		titles = append(titles, string(t))
	}
	w.headerRow(s, titles...)
	for i, p := range r.Series {
		values := []any{
			p.Label, p.Orders, p.Revenue.InexactFloat64(), p.PaidRevenue.InexactFloat64(),
			p.UnpaidRevenue.InexactFloat64(), p.AverageOrderValue.InexactFloat64(),
		}
		for _, t := range analytics.OrderTypes {
			values = append(values, p.TypeRevenue[t].InexactFloat64())
		}
		w.row(s, i+2, values...)
	}
}

func (w *writer) ranked(s, title string, entries []analytics.RankedEntry) {
	w.sheet(s)
	w.headerRow(s, "#", title, "Count", "Revenue", "% of revenue")
	for i, e := range entries {
		w.row(s, i+2, i+1, e.Name, e.Count, e.Revenue.InexactFloat64(), e.PercentageOfTotal)
	}
}

func (w *writer) breakdown(r *analytics.Report) {
	s := SheetBreakdown
	w.sheet(s)
	w.headerRow(s, "Dimension", "Key", "Orders", "Revenue", "% of revenue")
	n := 2
	for _, tb := range r.ByType {
		w.row(s, n, "type", string(tb.Type), tb.Orders, tb.Revenue.InexactFloat64(), tb.PercentageOfTotal)
		n++
	}
	for _, e := range r.OrdersByStatus {
		w.row(s, n, "status", e.Key, e.Count)
		n++
	}
	for _, e := range r.OrdersByWeekday {
		w.row(s, n, "weekday", e.Key, e.Count)
		n++
	}
	for _, p := range r.Hourly {
		w.row(s, n, "hour", p.Label, p.Orders, p.Revenue.InexactFloat64())
		n++
	}
}
