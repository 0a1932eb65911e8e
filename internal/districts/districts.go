// Package districts carries the embedded Prague reference tables used to
// enrich consistency reports: neighborhood to administrative district
// mapping, price statistics, crime rates and the local amenity index.
package districts

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/flatcheck/flatcheck/internal/czech"
)

//go:embed data/prague.yaml
var pragueData []byte

// Stats is the per-district enrichment attached to a report. Crime and
// amenity figures are normalized per capita against the worst district, so
// every rate lands in (0, 1] and 1.0 marks the district with the highest
// incidence.
type Stats struct {
	Name               string  `json:"name" yaml:"name"`
	Number             int     `json:"number" yaml:"number"`
	AvgPricePerSqmCZK  int     `json:"avg_price_per_sqm_czk" yaml:"avg_price_per_sqm_czk"`
	PriceChangePercent float64 `json:"price_change_percent" yaml:"price_change_percent"`
	PriceCategory      string  `json:"price_category" yaml:"price_category"`
	Population         int     `json:"population" yaml:"population"`
	ViolentCrimeRate   float64 `json:"violent_crime_rate" yaml:"-"`
	BurglaryRate       float64 `json:"burglary_rate" yaml:"-"`
	FireRate           float64 `json:"fire_rate" yaml:"-"`
	KebabIndex         float64 `json:"kebab_index" yaml:"-"`
}

type rawDistrict struct {
	Stats         `yaml:",inline"`
	Crimes        crimeCounts `yaml:"crimes"`
	KebabSpots    int         `yaml:"kebab_spots"`
	Neighborhoods []string    `yaml:"neighborhoods"`
}

type crimeCounts struct {
	Violent  int `yaml:"violent"`
	Burglary int `yaml:"burglary"`
	Fire     int `yaml:"fire"`
}

// Catalog is a read-only lookup over the embedded tables. Safe for
// concurrent use once constructed.
type Catalog struct {
	byDistrict     map[string]Stats
	byNeighborhood map[string]string
	ordered        []Stats
}

// New loads the embedded Prague tables.
func New() (*Catalog, error) {
	return Load(pragueData)
}

// Load parses district data from YAML and normalizes the per-capita rates.
func Load(data []byte) (*Catalog, error) {
	var doc struct {
		Districts []rawDistrict `yaml:"districts"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "districts: parse data")
	}
	if len(doc.Districts) == 0 {
		return nil, eris.New("districts: no districts in data")
	}

	var maxViolent, maxBurglary, maxFire, maxKebab float64
	for _, d := range doc.Districts {
		if d.Population <= 0 {
			return nil, eris.Errorf("districts: %s has no population", d.Name)
		}
		pop := float64(d.Population)
		maxViolent = max(maxViolent, float64(d.Crimes.Violent)/pop)
		maxBurglary = max(maxBurglary, float64(d.Crimes.Burglary)/pop)
		maxFire = max(maxFire, float64(d.Crimes.Fire)/pop)
		maxKebab = max(maxKebab, float64(d.KebabSpots)/pop)
	}

	c := &Catalog{
		byDistrict:     make(map[string]Stats, len(doc.Districts)),
		byNeighborhood: make(map[string]string),
	}
	for _, d := range doc.Districts {
		pop := float64(d.Population)
		s := d.Stats
		s.ViolentCrimeRate = normalize(float64(d.Crimes.Violent)/pop, maxViolent)
		s.BurglaryRate = normalize(float64(d.Crimes.Burglary)/pop, maxBurglary)
		s.FireRate = normalize(float64(d.Crimes.Fire)/pop, maxFire)
		s.KebabIndex = normalize(float64(d.KebabSpots)/pop, maxKebab)

		c.byDistrict[czech.Fold(s.Name)] = s
		// Scraped pages say "Praha 8", the tables say "Prague 8".
		c.byDistrict[czech.Fold(strings.ReplaceAll(s.Name, "Prague", "Praha"))] = s
		c.ordered = append(c.ordered, s)
		for _, n := range d.Neighborhoods {
			c.byNeighborhood[czech.Fold(n)] = s.Name
		}
	}
	sort.Slice(c.ordered, func(i, j int) bool { return c.ordered[i].Number < c.ordered[j].Number })

	return c, nil
}

func normalize(ratio, maxRatio float64) float64 {
	if maxRatio <= 0 {
		return 0
	}
	return ratio / maxRatio
}

// AdminDistrict maps a neighborhood name to its administrative district.
// Lookup ignores case and diacritics.
func (c *Catalog) AdminDistrict(neighborhood string) (string, bool) {
	d, ok := c.byNeighborhood[czech.Fold(neighborhood)]
	return d, ok
}

// StatsFor returns the stats for an administrative district name such as
// "Prague 8". Lookup ignores case and diacritics.
func (c *Catalog) StatsFor(district string) (Stats, bool) {
	s, ok := c.byDistrict[czech.Fold(district)]
	return s, ok
}

// All returns every district ordered by number.
func (c *Catalog) All() []Stats {
	out := make([]Stats, len(c.ordered))
	copy(out, c.ordered)
	return out
}
