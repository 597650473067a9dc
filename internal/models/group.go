package models

import (
	"context"
	"fmt"
	"math"
	"time"
)

type Group struct {
	Base
	Name         string       `json:"name"`
	Tables       float64      `json:"tables"`
	Address      string       `json:"address"`
	Website      string       `json:"website"`
	Wares        string       `json:"wares"`
	Description  string       `json:"description"`
	SpecialNeeds string       `json:"special_needs"`
	AmountPaid   int          `json:"amount_paid"`
	Cost         int          `json:"cost"`
	AutoRecalc   bool         `json:"auto_recalc"`
	Status       DealerStatus `json:"status"`
	TableExtras  TableExtras  `json:"table_extras"`
	CanAdd       bool         `json:"can_add"`
	AdminNotes   string       `json:"admin_notes"`
	Registered   time.Time    `json:"registered"`
	Approved     *time.Time   `json:"approved"`
	LeaderID     *string      `gorm:"type:uuid" link:"attendees" json:"leader_id"`
}

func (Group) TableName() string { return "groups" }

func NewGroup(name string) *Group {
	return &Group{Name: name, AutoRecalc: true}
}

func (g *Group) String() string {
	return fmt.Sprintf("<Group %s>", g.Name)
}

// IsDealer is true for groups with tables that are new or carry money.
func (g *Group) IsDealer() bool {
	return g.Tables > 0 && (g.IsNew() || g.AmountPaid > 0 || g.Cost > 0)
}

func (g *Group) IsUnpaid() bool {
	return g.Cost > 0 && g.AmountPaid == 0
}

func (g *Group) Badges(members []*Attendee) int {
	return len(members)
}

func (g *Group) UnregisteredBadges(members []*Attendee) int {
	n := 0
	for _, a := range members {
		if a.IsUnassigned() {
			n++
		}
	}
	return n
}

// Floating returns the unclaimed badges the group paid for.
func (g *Group) Floating(members []*Attendee) []*Attendee {
	var floating []*Attendee
	for _, a := range members {
		if a.IsUnassigned() && a.Paid == PaidByGroup {
			floating = append(floating, a)
		}
	}
	return floating
}

func (g *Group) BadgesPurchased(members []*Attendee) int {
	n := 0
	for _, a := range members {
		if a.Paid == PaidByGroup {
			n++
		}
	}
	return n
}

// NewRibbon is the ribbon handed to badges added to the group.
func (g *Group) NewRibbon(members []*Attendee) Ribbon {
	for _, a := range members {
		if a.Ribbon == BandRibbon {
			return BandRibbon
		}
	}
	if g.IsDealer() {
		return DealerAsstRibbon
	}
	return NoRibbon
}

func (g *Group) TableCost(p *Policy) int {
	total := p.TablePrice(g.Tables)
	for _, extra := range g.TableExtras.Ints() {
		total += p.TableExtraPrices[extra]
	}
	return total
}

func (g *Group) NewBadgeCost(p *Policy) int {
	if g.Tables > 0 {
		return p.DealerBadgePrice
	}
	return p.GroupPrice
}

func (g *Group) BadgeCost(p *Policy, members []*Attendee) int {
	total := 0
	for _, a := range members {
		if a.Paid == PaidByGroup {
			total += p.GroupPrice
		}
	}
	return total
}

// AmountExtra is what new groups owe for member kick-ins.
func (g *Group) AmountExtra(p *Policy, members []*Attendee) int {
	if !g.IsNew() {
		return 0
	}
	total := 0
	for _, a := range members {
		if a.Paid == PaidByGroup {
			total += a.AmountUnpaid(p)
		}
	}
	return total
}

func (g *Group) DefaultCost(p *Policy, members []*Attendee) int {
	return g.TableCost(p) + g.BadgeCost(p, members) + g.AmountExtra(p, members)
}

func (g *Group) AmountUnpaid(p *Policy, members []*Attendee) int {
	if g.IsNew() {
		return g.DefaultCost(p, members)
	}
	return max(0, g.Cost-g.AmountPaid)
}

func (g *Group) DealerMaxBadges() int {
	return int(math.Ceil(g.Tables)) + 1
}

func (g *Group) DealerBadgesRemaining(members []*Attendee) int {
	return g.DealerMaxBadges() - len(members)
}

func (g *Group) MinBadgesAddable(members []*Attendee) int {
	switch {
	case g.IsDealer() && len(members) >= g.DealerMaxBadges():
		return 0
	case g.IsDealer() || g.CanAdd:
		return 1
	default:
		return 5
	}
}

// Email is the leader's address, or the only member address on file.
func (g *Group) Email(members []*Attendee) string {
	var emails []string
	for _, a := range members {
		if g.LeaderID != nil && a.ID == *g.LeaderID && a.Email != "" {
			return a.Email
		}
		if a.Email != "" {
			emails = append(emails, a.Email)
		}
	}
	if g.LeaderID == nil && len(emails) == 1 {
		return emails[0]
	}
	return ""
}

func (g *Group) leader(members []*Attendee) *Attendee {
	if g.LeaderID == nil {
		return nil
	}
	for _, a := range members {
		if a.ID == *g.LeaderID {
			return a
		}
	}
	return nil
}

func (g *Group) PresaveAdjustments(ctx context.Context, tx Tx) error {
	p := tx.Policy()
	members, err := tx.GroupMembers(ctx, g.ID)
	if err != nil {
		return err
	}

	var assigned []*Attendee
	for _, a := range members {
		if !a.IsUnassigned() {
			assigned = append(assigned, a)
		}
	}
	if len(assigned) == 1 {
		id := assigned[0].ID
		g.LeaderID = &id
	}
	if g.AutoRecalc {
		g.Cost = g.DefaultCost(p, members)
	}
	if g.Registered.IsZero() {
		g.Registered = p.Now()
	}
	if g.Status == Approved && g.Approved == nil {
		now := p.Now()
		g.Approved = &now
	}
	if leader := g.leader(members); leader != nil && g.IsDealer() {
		leader.Ribbon = DealerRibbon
	}
	return nil
}

// OnDelete detaches members; attendees outlive their group.
func (g *Group) OnDelete(ctx context.Context, tx Tx) error {
	members, err := tx.GroupMembers(ctx, g.ID)
	if err != nil {
		return err
	}
	for _, a := range members {
		a.GroupID = nil
	}
	return nil
}
