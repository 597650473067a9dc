package models

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Nights is the set of hotel nights a row covers. Rows embed it by value.
type Nights struct {
	Set NightSet `gorm:"column:nights" json:"nights"`
}

var nightDisplayOrder = []int{Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday, Monday}

// NightsDisplay joins the night labels in the order they fall during the event.
func NightsDisplay(n Nights) string {
	ordered := n.Set.Ints()
	slices.SortFunc(ordered, func(a, b int) int {
		return slices.Index(nightDisplayOrder, a) - slices.Index(nightDisplayOrder, b)
	})
	opts := optionsOf[nights]()
	labels := make([]string, 0, len(ordered))
	for _, night := range ordered {
		label, _ := opts.Label(night)
		labels = append(labels, label)
	}
	return strings.Join(labels, " / ")
}

// SetupTeardown reports whether any requested night falls outside the core nights.
func SetupTeardown(n Nights, p *Policy) bool {
	for _, night := range n.Set.Ints() {
		if !slices.Contains(p.CoreNights, night) {
			return true
		}
	}
	return false
}

func overlapsNights(n Nights, days []int) bool {
	for _, night := range n.Set.Ints() {
		if slices.Contains(days, night) {
			return true
		}
	}
	return false
}

type HotelRequest struct {
	Base
	AttendeeID        string `gorm:"type:uuid;uniqueIndex" link:"attendees" json:"attendee_id"`
	Nights            Nights `gorm:"embedded" json:"nights"`
	WantedRoommates   string `json:"wanted_roommates"`
	UnwantedRoommates string `json:"unwanted_roommates"`
	SpecialNeeds      string `json:"special_needs"`
	Approved          bool   `json:"approved"`
}

func (HotelRequest) TableName() string { return "hotel_requests" }

func (h *HotelRequest) String() string {
	return fmt.Sprintf("<HotelRequest %s>", h.AttendeeID)
}

// Decline keeps only the core nights.
func (h *HotelRequest) Decline(p *Policy) {
	var keep []int
	for _, night := range h.Nights.Set.Ints() {
		if slices.Contains(p.CoreNights, night) {
			keep = append(keep, night)
		}
	}
	h.Nights.Set = NewMultiChoice[nights](keep...)
}

func (h *HotelRequest) ApprovedForSetup(p *Policy) bool {
	return h != nil && h.Approved && overlapsNights(h.Nights, p.SetupNights)
}

func (h *HotelRequest) ApprovedForTeardown(p *Policy) bool {
	return h != nil && h.Approved && overlapsNights(h.Nights, p.TeardownNights)
}

type FoodRestrictions struct {
	Base
	AttendeeID string             `gorm:"type:uuid;uniqueIndex" link:"attendees" json:"attendee_id"`
	Standard   FoodRestrictionSet `json:"standard"`
	NoCheese   bool               `json:"no_cheese"`
	Freeform   string             `json:"freeform"`
}

func (FoodRestrictions) TableName() string { return "food_restrictions" }

func (f *FoodRestrictions) String() string {
	return fmt.Sprintf("<FoodRestrictions %s>", f.AttendeeID)
}

// Has answers for the kitchen: vegans are not listed as vegetarian, and
// either diet implies no pork.
func (f *FoodRestrictions) Has(restriction int) bool {
	switch {
	case restriction == Vegetarian && f.Standard.Has(Vegan):
		return false
	case restriction == NoPork && (f.Standard.Has(Vegetarian) || f.Standard.Has(Vegan)):
		return true
	default:
		return f.Standard.Has(restriction)
	}
}

type AdminAccount struct {
	Base
	AttendeeID string `gorm:"type:uuid;uniqueIndex" link:"attendees" json:"attendee_id"`
	Hashed     string `gorm:"column:hashed" json:"-"`
	Access     Access `json:"access"`
}

func (AdminAccount) TableName() string { return "admin_accounts" }

func (a *AdminAccount) String() string {
	return fmt.Sprintf("<AdminAccount %s>", a.AttendeeID)
}

func (a *AdminAccount) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	a.Hashed = string(hashed)
	return nil
}

func (a *AdminAccount) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(a.Hashed), []byte(password)) == nil
}
