// Package shoppinglist aggregates cart ingredients and renders the plain-text
// shopping list download.
package shoppinglist

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"time"
)

// ContentType is the media type of the rendered list.
const ContentType = "text/plain; charset=utf-8"

// Line is one ingredient row of a recipe in the cart.
type Line struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

// Item is the summed amount of one (name, unit) pair.
type Item struct {
	Name            string
	MeasurementUnit string
	Amount          int64
}

type key struct {
	name string
	unit string
}

// Aggregate groups lines by name and unit, sums their amounts and orders the
// result by name, then unit.
func Aggregate(lines []Line) []Item {
	sums := make(map[key]int64, len(lines))
	for _, l := range lines {
		sums[key{l.Name, l.MeasurementUnit}] += l.Amount
	}
	items := make([]Item, 0, len(sums))
	for k, amount := range sums {
		items = append(items, Item{Name: k.name, MeasurementUnit: k.unit, Amount: amount})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items
}

// Render writes the list for the given day.
//
//	Shopping list for 2026-03-01:
//	1. eggs - 3 pcs
//	2. flour - 350 g
func Render(w io.Writer, day time.Time, items []Item) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Shopping list for %s:\n", day.Format(time.DateOnly))
	if len(items) == 0 {
		fmt.Fprintln(bw, "Your shopping cart is empty.")
	}
	for i, item := range items {
		fmt.Fprintf(bw, "%d. %s - %d %s\n", i+1, item.Name, item.Amount, item.MeasurementUnit)
	}
	return bw.Flush()
}

// Filename is the attachment name offered to username.
func Filename(username string) string {
	return username + "-shopping-list.txt"
}

// ContentDisposition is the attachment header for username's list. The name is
// always quoted since usernames may contain '@'.
func ContentDisposition(username string) string {
	return `attachment; filename="` + Filename(username) + `"`
}
