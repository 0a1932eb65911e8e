package model

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// RawListing is the untrusted output of a scrape, before conversion. Field
// values are strings exactly as they appeared on the page; nothing here is
// validated.
type RawListing struct {
	URL             string            `json:"url"`
	ScrapedAt       time.Time         `json:"scraped_at,omitempty"`
	Title           string            `json:"title,omitempty"`
	Price           string            `json:"price,omitempty"`
	PricePerSqm     string            `json:"price_per_m2,omitempty"`
	Category        string            `json:"category,omitempty"`
	Description     string            `json:"description,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty"`
	PropertyDetails map[string]string `json:"property_details,omitempty"`
	Amenities       []string          `json:"amenities,omitempty"`
	Location        RawLocation       `json:"location,omitempty"`
	PropertyID      string            `json:"property_id,omitempty"`
}

// RawLocation is the location block of a scraped listing. Sources emit it
// either as an object with city/district/street or as a single display
// string; the union is resolved once here so nothing downstream has to care.
type RawLocation struct {
	City     string `json:"city,omitempty"`
	District string `json:"district,omitempty"`
	Street   string `json:"street,omitempty"`
	Full     string `json:"full,omitempty"`
}

// Matches display strings like "Praha 5 - Smíchov" or "Brno - Veveří".
var locDisplayRe = regexp.MustCompile(`^([^-]+?)\s*-\s*(.+)$`)

func (l *RawLocation) UnmarshalJSON(data []byte) error {
	type plain RawLocation
	var obj plain
	if err := json.Unmarshal(data, &obj); err == nil {
		*l = RawLocation(obj)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	l.Full = strings.TrimSpace(s)
	if m := locDisplayRe.FindStringSubmatch(l.Full); m != nil {
		l.City = strings.TrimSpace(m[1])
		l.District = strings.TrimSpace(m[2])
	} else {
		l.City = l.Full
	}
	return nil
}

// Address returns the best human-readable address available, in order of
// preference: full display string, street + city, title, URL.
func (r *RawListing) Address() string {
	if r.Location.Full != "" {
		return r.Location.Full
	}
	var parts []string
	if r.Location.Street != "" {
		parts = append(parts, r.Location.Street)
	}
	if r.Location.District != "" {
		parts = append(parts, r.Location.District)
	}
	if r.Location.City != "" {
		parts = append(parts, r.Location.City)
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	if r.Title != "" {
		return r.Title
	}
	return r.URL
}
