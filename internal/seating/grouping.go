// Package seating recommends how to seat a party across adjacent rows when
// the marketplace does not expose seat-level selection.  The search is
// tiered by row count: a single row is always preferred, then two stacked
// rows, then three.
package seating

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/stegverse/cfp-tickets/internal/model"
)

// MaxOptions caps the number of options returned by FindGroupings.
const MaxOptions = 5

// Request is the set of constraints for one grouping search.
type Request struct {
	PartySize    int
	MaxRows      int
	StackedRows  bool     // allow the three-row tier
	PriceCeiling *float64 // nil means no ceiling
}

// FindGroupings returns at most MaxOptions grouping options for the party,
// cheapest first.  Only the first tier that yields any option is used.
// An empty result is a valid answer, never an error.
func FindGroupings(inventory []model.SeatBlock, req Request) []model.GroupingOption {
	if req.PartySize < 1 || req.MaxRows < 1 {
		return nil
	}
	blocks := filterBlocks(inventory, req.PriceCeiling)
	if len(blocks) == 0 {
		return nil
	}

	out := singleRow(blocks, req.PartySize)
	if len(out) == 0 && req.MaxRows >= 2 {
		out = twoRows(blocks, req.PartySize)
	}
	if len(out) == 0 && req.MaxRows >= 3 && req.StackedRows {
		out = threeRows(blocks, req.PartySize)
	}
	if len(out) == 0 {
		return nil
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AvgPricePerSeat < out[j].AvgPricePerSeat
	})
	if len(out) > MaxOptions {
		out = out[:MaxOptions]
	}
	for _, opt := range out {
		mustBeSound(opt, req)
	}
	return out
}

func filterBlocks(inventory []model.SeatBlock, ceiling *float64) []model.SeatBlock {
	out := make([]model.SeatBlock, 0, len(inventory))
	for _, b := range inventory {
		if !b.Valid() {
			continue
		}
		if ceiling != nil && b.PricePerSeat > *ceiling {
			continue
		}
		out = append(out, b)
	}
	return out
}

func singleRow(blocks []model.SeatBlock, party int) []model.GroupingOption {
	var out []model.GroupingOption
	for _, b := range blocks {
		if b.Capacity() < party {
			continue
		}
		out = append(out, combine([]model.SeatBlock{b}, party))
	}
	return out
}

// twoRows pairs blocks of the same section whose seat ranges overlap; the
// overlap stands in for "stacked" rows.
func twoRows(blocks []model.SeatBlock, party int) []model.GroupingOption {
	var out []model.GroupingOption
	for i := 0; i < len(blocks); i++ {
		for j := i + 1; j < len(blocks); j++ {
			a, b := blocks[i], blocks[j]
			if a.Section != b.Section || !a.Overlaps(b) {
				continue
			}
			if a.Capacity()+b.Capacity() < party {
				continue
			}
			out = append(out, combine([]model.SeatBlock{a, b}, party))
		}
	}
	return out
}

// threeRows combines same-section triples.  Unlike twoRows it does not
// require the rows to overlap pairwise.  When two of the rows already seat
// the party the third gets no allocation, yet it still appears in Rows and
// its price still counts in AvgPricePerSeat.
// TODO: decide with the product owner whether triples need the same overlap
// check as pairs, and whether a row seating nobody should be dropped from
// the option; today three scattered rows of a section can qualify.
func threeRows(blocks []model.SeatBlock, party int) []model.GroupingOption {
	var out []model.GroupingOption
	for i := 0; i < len(blocks); i++ {
		for j := i + 1; j < len(blocks); j++ {
			if blocks[i].Section != blocks[j].Section {
				continue
			}
			for k := j + 1; k < len(blocks); k++ {
				a, b, c := blocks[i], blocks[j], blocks[k]
				if c.Section != a.Section {
					continue
				}
				if a.Capacity()+b.Capacity()+c.Capacity() < party {
					continue
				}
				out = append(out, combine([]model.SeatBlock{a, b, c}, party))
			}
		}
	}
	return out
}

// combine builds one option seating exactly party people across rows.
// Seats are split as evenly as the capacities allow and anchored on the
// right-most first seat so stacked runs line up where they overlap.
func combine(rows []model.SeatBlock, party int) model.GroupingOption {
	caps := make([]int, len(rows))
	anchor := rows[0].SeatStart
	sum := 0.0
	for i, r := range rows {
		caps[i] = r.Capacity()
		if r.SeatStart > anchor {
			anchor = r.SeatStart
		}
		sum += r.PricePerSeat
	}
	counts := splitParty(party, caps)

	opt := model.GroupingOption{
		Section:         rows[0].Section,
		Rows:            make([]string, 0, len(rows)),
		AvgPricePerSeat: sum / float64(len(rows)),
		Allocations:     make([]model.RowAllocation, 0, len(rows)),
	}
	for i, r := range rows {
		opt.Rows = append(opt.Rows, r.Row)
		opt.TotalTickets += counts[i]
		if counts[i] == 0 {
			continue
		}
		start := placeRun(r, counts[i], anchor)
		opt.Allocations = append(opt.Allocations, model.RowAllocation{
			Row:       r.Row,
			SeatStart: start,
			SeatEnd:   start + counts[i] - 1,
			Seats:     counts[i],
		})
	}
	opt.SeatRangeDescription = describe(opt)
	return opt
}

// splitParty spreads party over rows without exceeding any capacity.
// The caller guarantees the capacities add up to at least party.
func splitParty(party int, caps []int) []int {
	counts := make([]int, len(caps))
	remaining := party
	for remaining > 0 {
		open := make([]int, 0, len(caps))
		for i := range caps {
			if counts[i] < caps[i] {
				open = append(open, i)
			}
		}
		if len(open) == 0 {
			break
		}
		share := remaining / len(open)
		if share == 0 {
			share = 1
		}
		for _, i := range open {
			if remaining == 0 {
				break
			}
			give := min(share, caps[i]-counts[i], remaining)
			counts[i] += give
			remaining -= give
		}
	}
	return counts
}

// placeRun returns the first seat of an n-seat run inside b, as close to
// anchor as the block allows.
func placeRun(b model.SeatBlock, n, anchor int) int {
	start := anchor
	if start < b.SeatStart {
		start = b.SeatStart
	}
	if start+n-1 > b.SeatEnd {
		start = b.SeatEnd - n + 1
	}
	return start
}

func describe(opt model.GroupingOption) string {
	if len(opt.Allocations) == 1 {
		a := opt.Allocations[0]
		return fmt.Sprintf("Section %s, Row %s, %s", opt.Section, a.Row, seatSpan(a))
	}
	parts := make([]string, 0, len(opt.Allocations))
	for _, a := range opt.Allocations {
		parts = append(parts, "Row "+a.Row+" "+seatSpan(a))
	}
	return fmt.Sprintf("Section %s, Rows %s: %s", opt.Section, strings.Join(opt.Rows, "/"), strings.Join(parts, "; "))
}

func seatSpan(a model.RowAllocation) string {
	if a.SeatStart == a.SeatEnd {
		return "Seat " + strconv.Itoa(a.SeatStart)
	}
	return fmt.Sprintf("Seats %d-%d", a.SeatStart, a.SeatEnd)
}

func mustBeSound(opt model.GroupingOption, req Request) {
	if opt.TotalTickets < req.PartySize {
		panic(fmt.Sprintf("seating: option in section %s seats %d of a party of %d", opt.Section, opt.TotalTickets, req.PartySize))
	}
	if len(opt.Rows) > req.MaxRows {
		panic(fmt.Sprintf("seating: option in section %s spans %d rows, limit %d", opt.Section, len(opt.Rows), req.MaxRows))
	}
}
