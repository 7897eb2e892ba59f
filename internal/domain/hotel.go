package domain

import "errors"

var ErrNotFound = errors.New("not found")

// Hotel is one record from the listing endpoint. Values are never mutated
// after mapping; pipelines return new slices.
type Hotel struct {
	ID             int64
	Slug           string
	Link           string
	Name           string
	Address        string
	Rate           *float64 // nightly rate
	Occupancy      *int
	Rating         *string
	Amenities      string // untrusted markup
	Description    string
	AttachmentsURL string // wp:attachment collection
	RawJSON        []byte // full listing payload
}

// HotelView is a hotel together with its image list, as shown on the
// detail page and the JSON API.
type HotelView struct {
	Hotel  Hotel
	Images []string
}

// Cover returns the first image or "".
func (v HotelView) Cover() string {
	if len(v.Images) == 0 {
		return ""
	}
	return v.Images[0]
}
