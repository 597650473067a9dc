package models

// Option sets bound to Choice / MultiChoice columns. The zero value of every
// single-select enumeration is its default option.

type badgeTypes struct{}
type ribbons struct{}
type paymentStatuses struct{}
type badgeStatuses struct{}
type shirtSizes struct{}
type donationTiers struct{}
type dealerStatuses struct{}
type tableExtras struct{}
type departments struct{}
type jobTypes struct{}
type workedStatuses struct{}
type ratings struct{}
type nights struct{}
type trackingActions struct{}
type accessLevels struct{}
type foodRestrictions struct{}
type interests struct{}

type (
	BadgeType     = Choice[badgeTypes]
	Ribbon        = Choice[ribbons]
	PaymentStatus = Choice[paymentStatuses]
	BadgeStatus   = Choice[badgeStatuses]
	ShirtSize     = Choice[shirtSizes]
	DonationTier  = Choice[donationTiers]
	DealerStatus  = Choice[dealerStatuses]
	Department    = Choice[departments]
	JobType       = Choice[jobTypes]
	WorkedStatus  = Choice[workedStatuses]
	Rating        = Choice[ratings]
	Action        = Choice[trackingActions]

	TableExtras        = MultiChoice[tableExtras]
	Departments        = MultiChoice[departments]
	NightSet           = MultiChoice[nights]
	Access             = MultiChoice[accessLevels]
	FoodRestrictionSet = MultiChoice[foodRestrictions]
	Interests          = MultiChoice[interests]
)

const (
	AttendeeBadge     BadgeType = 0
	SupporterBadge    BadgeType = 1
	StaffBadge        BadgeType = 2
	GuestBadge        BadgeType = 3
	OneDayBadge       BadgeType = 4
	PseudoGroupBadge  BadgeType = 5
	PseudoDealerBadge BadgeType = 6
)

func (badgeTypes) Options() Options {
	return Options{
		{int(AttendeeBadge), "Attendee"},
		{int(SupporterBadge), "Supporter"},
		{int(StaffBadge), "Staff"},
		{int(GuestBadge), "Guest"},
		{int(OneDayBadge), "One Day"},
		{int(PseudoGroupBadge), "Group"},
		{int(PseudoDealerBadge), "Dealer"},
	}
}

const (
	NoRibbon         Ribbon = 0
	VolunteerRibbon  Ribbon = 1
	DeptHeadRibbon   Ribbon = 2
	DealerRibbon     Ribbon = 3
	DealerAsstRibbon Ribbon = 4
	BandRibbon       Ribbon = 5
	PressRibbon      Ribbon = 6
)

func (ribbons) Options() Options {
	return Options{
		{int(NoRibbon), "no ribbon"},
		{int(VolunteerRibbon), "Volunteer"},
		{int(DeptHeadRibbon), "Department Head"},
		{int(DealerRibbon), "Shopkeep"},
		{int(DealerAsstRibbon), "Shopkeep Assistant"},
		{int(BandRibbon), "Band"},
		{int(PressRibbon), "Press"},
	}
}

const (
	NotPaid     PaymentStatus = 0
	HasPaid     PaymentStatus = 1
	NeedNotPay  PaymentStatus = 2
	Refunded    PaymentStatus = 3
	PaidByGroup PaymentStatus = 4
)

func (paymentStatuses) Options() Options {
	return Options{
		{int(NotPaid), "Not Paid"},
		{int(HasPaid), "Paid"},
		{int(NeedNotPay), "Doesn't Need to"},
		{int(Refunded), "Paid and Refunded"},
		{int(PaidByGroup), "Paid by group"},
	}
}

const (
	NewStatus       BadgeStatus = 0
	CompletedStatus BadgeStatus = 1
	DeferredStatus  BadgeStatus = 2
	InvalidStatus   BadgeStatus = 3
)

func (badgeStatuses) Options() Options {
	return Options{
		{int(NewStatus), "New"},
		{int(CompletedStatus), "Complete"},
		{int(DeferredStatus), "Deferred"},
		{int(InvalidStatus), "Invalid"},
	}
}

const (
	NoShirt     ShirtSize = 0
	SizeUnknown ShirtSize = 1
	ShirtSmall  ShirtSize = 2
	ShirtMedium ShirtSize = 3
	ShirtLarge  ShirtSize = 4
	ShirtXL     ShirtSize = 5
	ShirtXXL    ShirtSize = 6
)

func (shirtSizes) Options() Options {
	return Options{
		{int(NoShirt), "no shirt"},
		{int(SizeUnknown), "size unknown"},
		{int(ShirtSmall), "small"},
		{int(ShirtMedium), "medium"},
		{int(ShirtLarge), "large"},
		{int(ShirtXL), "x-large"},
		{int(ShirtXXL), "xx-large"},
	}
}

// Donation tiers are dollar amounts; any amount may be stored.
const (
	NoDonation     DonationTier = 0
	RibbonLevel    DonationTier = 5
	ButtonLevel    DonationTier = 20
	ShirtLevel     DonationTier = 40
	SupporterLevel DonationTier = 60
	SeasonLevel    DonationTier = 120
)

func (donationTiers) Options() Options {
	return Options{
		{int(NoDonation), "No thanks"},
		{int(RibbonLevel), "Ribbon"},
		{int(ButtonLevel), "Button"},
		{int(ShirtLevel), "T-shirt"},
		{int(SupporterLevel), "Supporter Package"},
		{int(SeasonLevel), "Season Pass"},
	}
}

func (donationTiers) AllowUnspecified() bool { return true }

const (
	Unapproved DealerStatus = 0
	Waitlisted DealerStatus = 1
	Approved   DealerStatus = 2
)

func (dealerStatuses) Options() Options {
	return Options{
		{int(Unapproved), "Pending Approval"},
		{int(Waitlisted), "Waitlisted"},
		{int(Approved), "Approved"},
	}
}

const (
	PowerExtra = 1
	WallExtra  = 2
)

func (tableExtras) Options() Options {
	return Options{
		{PowerExtra, "Power"},
		{WallExtra, "Wall space"},
	}
}

const (
	ArcadeDept   Department = 1
	ConsoleDept  Department = 2
	SecurityDept Department = 3
	RegDeskDept  Department = 4
	StaffingDept Department = 5
	TechOpsDept  Department = 6
	PanelsDept   Department = 7
)

func (departments) Options() Options {
	return Options{
		{int(ArcadeDept), "Arcade"},
		{int(ConsoleDept), "Consoles"},
		{int(SecurityDept), "Security"},
		{int(RegDeskDept), "Registration"},
		{int(StaffingDept), "Staffing Ops"},
		{int(TechOpsDept), "Tech Ops"},
		{int(PanelsDept), "Panels"},
	}
}

const (
	RegularJob  JobType = 0
	SetupJob    JobType = 1
	TeardownJob JobType = 2
)

func (jobTypes) Options() Options {
	return Options{
		{int(RegularJob), "Regular Shift"},
		{int(SetupJob), "Setup"},
		{int(TeardownJob), "Teardown"},
	}
}

const (
	ShiftUnmarked WorkedStatus = 0
	ShiftWorked   WorkedStatus = 1
	ShiftUnworked WorkedStatus = 2
)

func (workedStatuses) Options() Options {
	return Options{
		{int(ShiftUnmarked), "SELECT A STATUS"},
		{int(ShiftWorked), "This shift was worked"},
		{int(ShiftUnworked), "Staffer didn't show up or got sick"},
	}
}

const (
	Unrated    Rating = 0
	RatedBad   Rating = 1
	RatedGood  Rating = 2
	RatedGreat Rating = 3
)

func (ratings) Options() Options {
	return Options{
		{int(Unrated), "Shift Unrated"},
		{int(RatedBad), "Staffer performed poorly"},
		{int(RatedGood), "Staffer performed well"},
		{int(RatedGreat), "Staffer went above and beyond"},
	}
}

const (
	Monday    = 0
	Tuesday   = 1
	Wednesday = 2
	Thursday  = 3
	Friday    = 4
	Saturday  = 5
	Sunday    = 6
)

func (nights) Options() Options {
	return Options{
		{Monday, "Monday"},
		{Tuesday, "Tuesday"},
		{Wednesday, "Wednesday"},
		{Thursday, "Thursday"},
		{Friday, "Friday"},
		{Saturday, "Saturday"},
		{Sunday, "Sunday"},
	}
}

const (
	ActionCreated        Action = 0
	ActionUpdated        Action = 1
	ActionDeleted        Action = 2
	ActionAutoBadgeShift Action = 3
)

func (trackingActions) Options() Options {
	return Options{
		{int(ActionCreated), "created"},
		{int(ActionUpdated), "updated"},
		{int(ActionDeleted), "deleted"},
		{int(ActionAutoBadgeShift), "automatic badge-shift"},
	}
}

const (
	AccountsAccess   = 1
	StaffingAccess   = 2
	PeopleAccess     = 3
	RegCheckinAccess = 4
)

func (accessLevels) Options() Options {
	return Options{
		{AccountsAccess, "Account Management"},
		{StaffingAccess, "Staffing"},
		{PeopleAccess, "People"},
		{RegCheckinAccess, "Checkins"},
	}
}

const (
	Vegetarian = 1
	Vegan      = 2
	GlutenFree = 3
	NoPork     = 4
)

func (foodRestrictions) Options() Options {
	return Options{
		{Vegetarian, "Vegetarian"},
		{Vegan, "Vegan"},
		{GlutenFree, "Gluten-free"},
		{NoPork, "No pork"},
	}
}

const (
	ConsoleInterest = 1
	ArcadeInterest  = 2
	LANInterest     = 3
	MusicInterest   = 4
	PanelsInterest  = 5
)

func (interests) Options() Options {
	return Options{
		{ConsoleInterest, "Consoles"},
		{ArcadeInterest, "Arcade"},
		{LANInterest, "LAN"},
		{MusicInterest, "Music"},
		{PanelsInterest, "Panels"},
	}
}

func NewDepartments(ds ...Department) Departments {
	vals := make([]int, len(ds))
	for i, d := range ds {
		vals[i] = d.Int()
	}
	return NewMultiChoice[departments](vals...)
}

func NewNightSet(days ...int) NightSet {
	return NewMultiChoice[nights](days...)
}

func NewInterests(vals ...int) Interests {
	return NewMultiChoice[interests](vals...)
}

func NewTableExtras(vals ...int) TableExtras {
	return NewMultiChoice[tableExtras](vals...)
}

func NewAccess(vals ...int) Access {
	return NewMultiChoice[accessLevels](vals...)
}

func NewFoodRestrictionSet(vals ...int) FoodRestrictionSet {
	return NewMultiChoice[foodRestrictions](vals...)
}
