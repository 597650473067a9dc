package models

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/datatypes"
)

type Attendee struct {
	Base
	GroupID *string `gorm:"type:uuid;index" link:"groups" json:"group_id"`

	Status      BadgeStatus `json:"status"`
	Placeholder bool        `json:"placeholder"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Email       string      `json:"email"`
	Interests   Interests   `json:"interests"`
	Comments    string      `json:"comments"`
	ForReview   string      `json:"for_review"`
	AdminNotes  string      `json:"admin_notes"`

	BadgeNum  int       `gorm:"index:idx_badge" json:"badge_num"`
	BadgeType BadgeType `gorm:"index:idx_badge" json:"badge_type"`
	Ribbon    Ribbon    `json:"ribbon"`

	Affiliate  string     `json:"affiliate"`
	Shirt      ShirtSize  `json:"shirt"`
	RegStation *int       `json:"reg_station"`
	Registered time.Time  `json:"registered"`
	CheckedIn  *time.Time `json:"checked_in"`

	Paid            PaymentStatus `json:"paid"`
	OverriddenPrice *int          `json:"overridden_price"`
	AmountPaid      int           `json:"amount_paid"`
	AmountExtra     DonationTier  `json:"amount_extra"`
	AmountRefunded  int           `json:"amount_refunded"`

	BadgePrintedName string `json:"badge_printed_name"`

	Staffing       bool           `json:"staffing"`
	RequestedDepts Departments    `json:"requested_depts"`
	AssignedDepts  Departments    `json:"assigned_depts"`
	Trusted        bool           `json:"trusted"`
	NonshiftHours  int            `json:"nonshift_hours"`
	PastYears      datatypes.JSON `json:"past_years"`
}

func (Attendee) TableName() string { return "attendees" }

func (a *Attendee) String() string {
	return fmt.Sprintf("<Attendee %s>", a.FullName())
}

func (a *Attendee) IsUnassigned() bool {
	return a.FirstName == ""
}

func (a *Attendee) IsDealer() bool {
	return a.Ribbon == DealerRibbon || a.BadgeType == PseudoDealerBadge
}

func (a *Attendee) IsDeptHead() bool {
	return a.Ribbon == DeptHeadRibbon
}

func (a *Attendee) FullName() string {
	if a.GroupID != nil && a.IsUnassigned() {
		return fmt.Sprintf("[Unassigned %s]", a.Badge())
	}
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

func (a *Attendee) LastFirst() string {
	if a.GroupID != nil && a.IsUnassigned() {
		return fmt.Sprintf("[Unassigned %s]", a.Badge())
	}
	return a.LastName + ", " + a.FirstName
}

// Badge is the printed description, e.g. "Staff #12 (Department Head)".
func (a *Attendee) Badge() string {
	var badge string
	switch {
	case a.Paid == NotPaid:
		badge = "Unpaid " + a.BadgeType.String()
	case a.BadgeNum != 0:
		badge = fmt.Sprintf("%s #%d", a.BadgeType, a.BadgeNum)
	default:
		badge = a.BadgeType.String()
	}
	if a.Ribbon != NoRibbon {
		badge += fmt.Sprintf(" (%s)", a.Ribbon)
	}
	return badge
}

func (a *Attendee) HasPersonalizedBadge(p *Policy) bool {
	return p.IsPreassigned(a.BadgeType)
}

func (a *Attendee) BadgeCost(p *Policy) int {
	switch {
	case a.Paid == PaidByGroup || a.Paid == NeedNotPay:
		return 0
	case a.OverriddenPrice != nil:
		return *a.OverriddenPrice
	case a.BadgeType == OneDayBadge:
		return p.OneDayPrice
	default:
		return p.AttendeePrice
	}
}

func (a *Attendee) TotalCost(p *Policy) int {
	return a.BadgeCost(p) + a.AmountExtra.Int()
}

func (a *Attendee) AmountUnpaid(p *Policy) int {
	return max(0, a.TotalCost(p)-a.AmountPaid)
}

func (a *Attendee) GetsPaidShirt() bool {
	return a.AmountExtra >= ShirtLevel || a.BadgeType == SupporterBadge
}

// GetsFreeShirt needs the weighted hours of the attendee's shifts.
func (a *Attendee) GetsFreeShirt(p *Policy, weightedHours float64) bool {
	return a.IsDeptHead() ||
		a.BadgeType == StaffBadge ||
		a.Staffing && (a.AssignedDepts != "" && !a.TakesShifts(p) || weightedHours >= 6)
}

func (a *Attendee) GetsShirt(p *Policy, weightedHours float64) bool {
	return a.GetsPaidShirt() || a.GetsFreeShirt(p, weightedHours)
}

// ShirtEligible does not depend on hours: every staffer is eligible.
func (a *Attendee) ShirtEligible() bool {
	return a.GetsPaidShirt() || a.IsDeptHead() || a.BadgeType == StaffBadge || a.Staffing
}

// TakesShifts is true for staffers assigned to a department that runs shifts.
func (a *Attendee) TakesShifts(p *Policy) bool {
	if !a.Staffing {
		return false
	}
	for _, d := range a.AssignedDepts.Ints() {
		if !slices.Contains(p.ShiftlessDepts, Department(d)) {
			return true
		}
	}
	return false
}

func (a *Attendee) PresaveAdjustments(ctx context.Context, tx Tx) error {
	if err := a.staffingAdjustments(ctx, tx); err != nil {
		return err
	}
	if err := a.badgeAdjustments(ctx, tx); err != nil {
		return err
	}
	a.statusAdjustments(tx)
	a.miscAdjustments(tx.Policy())
	return nil
}

func (a *Attendee) staffingAdjustments(ctx context.Context, tx Tx) error {
	if a.Ribbon == DeptHeadRibbon {
		a.Staffing, a.Trusted = true, true
		a.BadgeType = StaffBadge
		if a.Paid == NotPaid {
			a.Paid = NeedNotPay
		}
	}

	if !a.IsNew() {
		oldRibbon := origValue(tx, a, "ribbon", a.Ribbon)
		oldStaffing := origValue(tx, a, "staffing", a.Staffing)
		switch {
		case a.Staffing && !oldStaffing, a.Ribbon == VolunteerRibbon && oldRibbon != VolunteerRibbon:
			a.Staffing = true
			if a.Ribbon == NoRibbon {
				a.Ribbon = VolunteerRibbon
			}
		case a.Ribbon == DeptHeadRibbon:
			// dept heads keep staffing when they lose the volunteer ribbon
		case oldStaffing && !a.Staffing, a.Ribbon != VolunteerRibbon && oldRibbon == VolunteerRibbon:
			if err := a.UnsetVolunteering(ctx, tx); err != nil {
				return err
			}
		}
	}

	if a.BadgeType == StaffBadge && a.Ribbon == VolunteerRibbon {
		a.Ribbon = NoRibbon
	}
	if a.BadgeType == StaffBadge {
		a.Staffing = true
	}
	return nil
}

// UnsetVolunteering drops staffing state, gives back a staff badge number and
// removes every shift the attendee holds.
func (a *Attendee) UnsetVolunteering(ctx context.Context, tx Tx) error {
	a.Staffing, a.Trusted = false, false
	a.RequestedDepts, a.AssignedDepts = "", ""
	if a.Ribbon == VolunteerRibbon {
		a.Ribbon = NoRibbon
	}
	if a.BadgeType == StaffBadge {
		vacated := a.BadgeNum
		if tx.Policy().ShiftCustomBadges && vacated != 0 {
			a.BadgeNum = 0
			if err := tx.ShiftBadges(ctx, StaffBadge, vacated, 0, Down); err != nil {
				return err
			}
		}
		a.BadgeType = AttendeeBadge
	}
	shifts, err := tx.AttendeeShifts(ctx, a.ID)
	if err != nil {
		return err
	}
	for _, s := range shifts {
		tx.Delete(s)
	}
	return nil
}

func (a *Attendee) badgeAdjustments(ctx context.Context, tx Tx) error {
	p := tx.Policy()

	if a.BadgeType == PseudoGroupBadge || a.BadgeType == PseudoDealerBadge {
		dealer := a.IsDealer()
		a.BadgeType = AttendeeBadge
		if dealer {
			a.Ribbon = DealerRibbon
		}
	}

	if a.AmountExtra >= SupporterLevel && a.AmountUnpaid(p) == 0 && a.BadgeType == AttendeeBadge {
		a.BadgeType = SupporterBadge
	}

	if !p.PreCon {
		return nil
	}
	if a.Paid == NotPaid || !a.HasPersonalizedBadge(p) || a.IsUnassigned() {
		a.BadgeNum = 0
		return nil
	}
	if a.BadgeNum == 0 {
		next, err := tx.NextBadgeNum(ctx, a.BadgeType, 0)
		if err != nil {
			return err
		}
		if r, ok := p.Range(a.BadgeType); ok && next > r.Hi {
			return nil
		}
		a.BadgeNum = next
	}
	return nil
}

func (a *Attendee) statusAdjustments(tx Tx) {
	oldStatus := origValue(tx, a, "status", a.Status)
	oldAmountPaid := origValue(tx, a, "amount_paid", a.AmountPaid)
	if oldStatus != a.Status || oldAmountPaid == a.AmountPaid {
		return
	}
	switch {
	case a.Paid == NotPaid || a.Placeholder:
		a.Status = NewStatus
	case a.Paid == HasPaid || a.Paid == NeedNotPay:
		a.Status = CompletedStatus
	}
}

func (a *Attendee) miscAdjustments(p *Policy) {
	if a.AmountExtra == NoDonation {
		a.Affiliate = ""
	}
	if !a.ShirtEligible() {
		a.Shirt = NoShirt
	}
	if a.Paid != Refunded {
		a.AmountRefunded = 0
	}
	if a.Registered.IsZero() {
		a.Registered = p.Now()
	}
	if p.AtTheCon && a.BadgeNum != 0 && a.IsNew() {
		now := p.Now()
		a.CheckedIn = &now
	}
	a.FirstName = titleIfUniform(a.FirstName)
	a.LastName = titleIfUniform(a.LastName)
}

var titleCaser = cases.Title(language.Und)

// titleIfUniform title-cases names typed entirely in one case.
func titleIfUniform(s string) string {
	var upper, lower bool
	for _, r := range s {
		upper = upper || unicode.IsUpper(r)
		lower = lower || unicode.IsLower(r)
	}
	if upper == lower {
		return s
	}
	return titleCaser.String(s)
}

// OnDelete removes detail records and shifts, hands over group leadership and
// closes the gap left by a personalized badge number.
func (a *Attendee) OnDelete(ctx context.Context, tx Tx) error {
	details, err := tx.Details(ctx, a.ID)
	if err != nil {
		return err
	}
	for _, d := range details {
		tx.Delete(d)
	}
	shifts, err := tx.AttendeeShifts(ctx, a.ID)
	if err != nil {
		return err
	}
	for _, s := range shifts {
		tx.Delete(s)
	}

	if a.GroupID != nil {
		g, err := tx.Group(ctx, *a.GroupID)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return err
		case g.LeaderID != nil && *g.LeaderID == a.ID:
			g.LeaderID = nil
		}
	}

	p := tx.Policy()
	if a.HasPersonalizedBadge(p) && p.ShiftCustomBadges && a.BadgeNum != 0 {
		vacated := a.BadgeNum
		a.BadgeNum = 0
		return tx.ShiftBadges(ctx, a.BadgeType, vacated, 0, Down)
	}
	return nil
}
