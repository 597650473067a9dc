package models

import (
	"math"
	"slices"
	"time"
)

// Range is an inclusive badge number range.
type Range struct {
	Lo int
	Hi int
}

func (r Range) Contains(n int) bool {
	return n >= r.Lo && n <= r.Hi
}

// Policy holds the event-wide rules consulted by entity adjustments and the
// badge numbering engine.
type Policy struct {
	BadgeRanges       map[BadgeType]Range
	Preassigned       []BadgeType
	ShiftCustomBadges bool
	PreCon            bool
	AtTheCon          bool

	AttendeePrice    int
	OneDayPrice      int
	GroupPrice       int
	DealerBadgePrice int
	TablePrices      []int
	TableExtraPrices map[int]int

	ShiftlessDepts []Department
	CoreNights     []int
	SetupNights    []int
	TeardownNights []int

	// Epoch is the first hour of the event proper; Eschaton is its end.
	Epoch    time.Time
	Eschaton time.Time

	Clock func() time.Time
}

// DefaultPolicy returns the built-in ranges and prices.
func DefaultPolicy() *Policy {
	return &Policy{
		BadgeRanges: map[BadgeType]Range{
			StaffBadge:     {1, 399},
			GuestBadge:     {400, 499},
			SupporterBadge: {500, 999},
			AttendeeBadge:  {3000, 29999},
			OneDayBadge:    {30000, 39999},
		},
		Preassigned:       []BadgeType{StaffBadge, SupporterBadge, GuestBadge},
		ShiftCustomBadges: true,
		PreCon:            true,

		AttendeePrice:    50,
		OneDayPrice:      35,
		GroupPrice:       40,
		DealerBadgePrice: 30,
		TablePrices:      []int{0, 125, 175, 250, 325},
		TableExtraPrices: map[int]int{PowerExtra: 50, WallExtra: 25},

		ShiftlessDepts: []Department{StaffingDept},
		CoreNights:     []int{Thursday, Friday, Saturday},
		SetupNights:    []int{Tuesday, Wednesday},
		TeardownNights: []int{Sunday, Monday},

		Clock: time.Now,
	}
}

func (p *Policy) Now() time.Time {
	if p.Clock == nil {
		return time.Now().UTC()
	}
	return p.Clock().UTC()
}

// Range returns the numeric range for t; ok is false for unranged types.
func (p *Policy) Range(t BadgeType) (Range, bool) {
	r, ok := p.BadgeRanges[t]
	return r, ok
}

func (p *Policy) IsPreassigned(t BadgeType) bool {
	return slices.Contains(p.Preassigned, t)
}

// MaxBadge is the highest number of any range.
func (p *Policy) MaxBadge() int {
	hi := 0
	for _, r := range p.BadgeRanges {
		hi = max(hi, r.Hi)
	}
	return hi
}

// TablePrice is the cost of n tables; counts past the price list cost 999.
func (p *Policy) TablePrice(tables float64) int {
	n := int(math.Ceil(tables))
	if n < 0 || n >= len(p.TablePrices) {
		return 999
	}
	return p.TablePrices[n]
}
