package domain

type SortOrder string

const (
	SortLowToHigh SortOrder = "lowToHigh"
	SortHighToLow SortOrder = "highToLow"
)

const (
	DefaultPriceFrom    = 0
	DefaultPriceTo      = 10000
	DefaultMinOccupancy = 2
	DefaultPerPage      = 10
)

// Option sets offered by the list view.
var (
	PerPageOptions   = []int{10, 20, 30, 40, 50, 100}
	OccupancyOptions = []int{2, 3, 4, 5, 6}
)

// Filter is the list view's search/filter/sort state.
type Filter struct {
	Search       string
	PriceFrom    float64
	PriceTo      float64
	MinOccupancy int
	Sort         SortOrder
}

func DefaultFilter() Filter {
	return Filter{
		PriceFrom:    DefaultPriceFrom,
		PriceTo:      DefaultPriceTo,
		MinOccupancy: DefaultMinOccupancy,
		Sort:         SortLowToHigh,
	}
}

// Pagination is the list view's paging state. Offset is the zero-based
// index of the first item on the current page.
type Pagination struct {
	PerPage int
	Offset  int
}

// HotelsPage is one rendered page of the filtered collection.
type HotelsPage struct {
	Items     []Hotel
	Total     int // filtered length
	Fetched   int // raw catalog length
	PageCount int
	Selected  int // selected page index
	PerPage   int
	Offset    int
}

func ValidPerPage(n int) bool {
	for _, v := range PerPageOptions {
		if v == n {
			return true
		}
	}
	return false
}
