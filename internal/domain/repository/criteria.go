package repository

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// NewPage clamps number to >= 1 and size to [1, max], using def when size is unset.
func NewPage(number, size, def, max int) Page {
	if number < 1 {
		number = 1
	}
	if size <= 0 {
		size = def
	}
	if size > max {
		size = max
	}
	return Page{Number: number, Size: size}
}

// BookingScope selects which bookings a query sees. Implementations are
// ParentScope, NannyScope, PartyScope and AllBookings.
type BookingScope interface{ bookingScope() }

// ParentScope matches bookings where UserID is the parent.
type ParentScope struct{ UserID string }

// NannyScope matches bookings where UserID is the nanny.
type NannyScope struct{ UserID string }

// PartyScope matches bookings where UserID is either party.
type PartyScope struct{ UserID string }

// AllBookings matches every booking.
type AllBookings struct{}

func (ParentScope) bookingScope() {}
func (NannyScope) bookingScope()  {}
func (PartyScope) bookingScope()  {}
func (AllBookings) bookingScope() {}

// NannyFilter is one conjunctive search predicate. Implementations are
// CityContains, RateRange, MinYears, HasLanguage, HasSkill and MinRating.
type NannyFilter interface{ nannyFilter() }

// CityContains is a case-insensitive substring match on the profile city.
type CityContains struct{ City string }

// RateRange bounds the hourly rate; nil ends are open.
type RateRange struct{ Min, Max *int }

type MinYears struct{ Years int }

type HasLanguage struct{ Language string }

type HasSkill struct{ Skill string }

type MinRating struct{ Rating float64 }

func (CityContains) nannyFilter() {}
func (RateRange) nannyFilter()    {}
func (MinYears) nannyFilter()     {}
func (HasLanguage) nannyFilter()  {}
func (HasSkill) nannyFilter()     {}
func (MinRating) nannyFilter()    {}

// NannySort is the ordering of search results.
type NannySort string

const (
	SortRating     NannySort = "rating"
	SortRateAsc    NannySort = "rate_asc"
	SortRateDesc   NannySort = "rate_desc"
	SortExperience NannySort = "experience"
	SortReviews    NannySort = "reviews"
	SortNewest     NannySort = "newest"
)

// ParseNannySort falls back to SortRating for unknown keys.
func ParseNannySort(s string) NannySort {
	switch NannySort(s) {
	case SortRating, SortRateAsc, SortRateDesc, SortExperience, SortReviews, SortNewest:
		return NannySort(s)
	}
	return SortRating
}

type NannySearch struct {
	Filters []NannyFilter
	Sort    NannySort
	Page    Page
}
