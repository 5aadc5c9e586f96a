package model

// SeatBlock describes a contiguous run of same-row seats in one venue
// section sharing a single per-seat price.  Blocks come from inventory
// and are never mutated; the grouping engine only combines them.
//
// Fields:
//	Section      - venue section label (e.g. "112").
//	Row          - row label within the section.
//	SeatStart    - first seat number of the run.
//	SeatEnd      - last seat number of the run (inclusive, >= SeatStart).
//	PricePerSeat - price of one seat in the block.
type SeatBlock struct {
	Section      string  `json:"section"`
	Row          string  `json:"row"`
	SeatStart    int     `json:"seat_start"`
	SeatEnd      int     `json:"seat_end"`
	PricePerSeat float64 `json:"price_per_seat"`
}

// Capacity returns the number of seats in the block, or 0 for a block
// whose range is inverted.
func (b SeatBlock) Capacity() int {
	if b.SeatEnd < b.SeatStart {
		return 0
	}
	return b.SeatEnd - b.SeatStart + 1
}

// Valid reports whether the block has a usable seat range.
func (b SeatBlock) Valid() bool {
	return b.SeatEnd >= b.SeatStart
}

// Overlaps reports whether two blocks share at least one seat number.
func (b SeatBlock) Overlaps(o SeatBlock) bool {
	return b.SeatStart <= o.SeatEnd && o.SeatStart <= b.SeatEnd
}

// RowAllocation is the part of a party seated in one row.
type RowAllocation struct {
	Row       string `json:"row"`
	SeatStart int    `json:"seat_start"`
	SeatEnd   int    `json:"seat_end"`
	Seats     int    `json:"seats"`
}

// GroupingOption is a candidate allocation of a party across one to three
// rows of the same section.
type GroupingOption struct {
	Section              string          `json:"section"`
	Rows                 []string        `json:"rows"`
	TotalTickets         int             `json:"total_tickets"`
	AvgPricePerSeat      float64         `json:"avg_price_per_seat"`
	SeatRangeDescription string          `json:"seat_range_description"`
	Allocations          []RowAllocation `json:"allocations"`
}
