package model

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation bounds for Listing fields.
const (
	MinDescriptionLength = 10
	MinYearBuilt         = 1800
	MaxYearBuilt         = 2030
)

// Listing is the canonical, validated representation of a scraped property
// listing. Optional fields are pointers so "unknown" is distinguishable from
// a zero value; the tri-state amenity flags stay nil when the source page
// says nothing either way.
type Listing struct {
	ListingID       string   `json:"listing_id"`
	ListingURL      string   `json:"listing_url,omitempty"`
	PropertyAddress string   `json:"property_address"`
	City            string   `json:"city"`
	State           string   `json:"state"`
	ZipCode         string   `json:"zip_code"`
	Bedrooms        int      `json:"bedrooms"`
	Bathrooms       float64  `json:"bathrooms"`
	SquareMeters    *int     `json:"square_meters"`
	LotSize         *int     `json:"lot_size"`
	YearBuilt       *int     `json:"year_built"`
	PropertyType    *string  `json:"property_type"`
	Stories         *int     `json:"stories"`
	GarageSpaces    *int     `json:"garage_spaces"`
	ListPrice       float64  `json:"list_price"`
	HasPool         *bool    `json:"has_pool"`
	HasGarage       *bool    `json:"has_garage"`
	HasBasement     *bool    `json:"has_basement"`
	HasFireplace    *bool    `json:"has_fireplace"`
	Description     string   `json:"description"`
	RealtorName     *string  `json:"realtor_name,omitempty"`
	RealtorAgency   *string  `json:"realtor_agency,omitempty"`
	ListingDate     *Date    `json:"listing_date,omitempty"`
}

// FieldViolation names one field that failed validation.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every violation found in one pass so callers can
// log the full picture instead of the first failure.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s: %s", v.Field, v.Message)
	}
	return "invalid listing: " + strings.Join(parts, "; ")
}

// Validate checks every invariant and returns a *ValidationError enumerating
// all violations, or nil when the listing is well formed.
func (l *Listing) Validate() error {
	var violations []FieldViolation
	add := func(field, msg string) {
		violations = append(violations, FieldViolation{Field: field, Message: msg})
	}

	if l.ListingID == "" {
		add("listing_id", "must not be empty")
	}
	if l.ListingURL != "" {
		u, err := url.Parse(l.ListingURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("listing_url", "must be an absolute http(s) URL")
		}
	}
	for _, f := range []struct{ name, val string }{
		{"property_address", l.PropertyAddress},
		{"city", l.City},
		{"state", l.State},
		{"zip_code", l.ZipCode},
	} {
		if strings.TrimSpace(f.val) == "" {
			add(f.name, "must not be empty")
		}
	}
	if l.Bedrooms < 0 {
		add("bedrooms", "must not be negative")
	}
	if l.Bathrooms < 0 {
		add("bathrooms", "must not be negative")
	}
	if l.SquareMeters != nil && *l.SquareMeters <= 0 {
		add("square_meters", "must be positive when present")
	}
	if l.LotSize != nil && *l.LotSize <= 0 {
		add("lot_size", "must be positive when present")
	}
	if l.YearBuilt != nil && (*l.YearBuilt < MinYearBuilt || *l.YearBuilt > MaxYearBuilt) {
		add("year_built", fmt.Sprintf("must be between %d and %d when present", MinYearBuilt, MaxYearBuilt))
	}
	if l.Stories != nil && *l.Stories < 1 {
		add("stories", "must be at least 1 when present")
	}
	if l.GarageSpaces != nil && *l.GarageSpaces < 0 {
		add("garage_spaces", "must not be negative when present")
	}
	if l.ListPrice <= 0 {
		add("list_price", "must be positive")
	}
	if utf8.RuneCountInString(strings.TrimSpace(l.Description)) < MinDescriptionLength {
		add("description", fmt.Sprintf("must be at least %d characters", MinDescriptionLength))
	}

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

// ListingIDFromURL derives a stable listing ID from the source URL. The same
// URL always maps to the same ID, so fallback results remain joinable with a
// later successful run.
func ListingIDFromURL(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	return "PRG-" + strings.ToUpper(hex.EncodeToString(sum[:])[:12])
}

// Date is a calendar date that unmarshals from both "2006-01-02" and full
// RFC 3339 timestamps. Listing sources are inconsistent about which they emit.
type Date struct {
	time.Time
}

// NewDate returns a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) *Date {
	return &Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("model: cannot parse date %q", s)
}
