package bezrealitky

import (
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/flatcheck/flatcheck/internal/model"
)

var (
	wsRe         = regexp.MustCompile(`\s+`)
	propertyIDRe = regexp.MustCompile(`/(\d+)-`)

	// Listed prices group digits with regular, no-break or zero-width
	// spaces: "8 499 000 Kč".
	priceRe      = regexp.MustCompile(`\d+[\s  ​]+\d+[\s  ​]+\d+\s*Kč`)
	pricePerM2Re = regexp.MustCompile(`[\d\s  ​]+Kč\s*/\s*m[²2]`)

	titleAreaRe        = regexp.MustCompile(`\d+\s*m²`)
	titleDispositionRe = regexp.MustCompile(`(?i)\b\d+\+(?:kk|1)\b`)

	cityDistrictRe = regexp.MustCompile(`(?i),\s*(Praha(?:\s*\d+)?|Brno|Ostrava|Plzeň|Liberec|Olomouc|Pardubice|Hradec Králové)\s*[-–]\s*([^,]+?)$`)
	cityOnlyRe     = regexp.MustCompile(`(?i),\s*(Praha(?:\s*\d+)?|Brno|Ostrava|Plzeň|Liberec|Olomouc)(?:\s|$)`)
)

// Keywords whose presence on the page marks an amenity.
var amenityKeywords = []string{
	"Sklep", "Lodžie", "Balkon", "Terasa", "Zahrada",
	"Parkování", "Garáž", "Internet", "Výtah", "Bazén",
}

// Fragments that identify boilerplate paragraphs, not descriptions.
var boilerplateMarkers = []string{"cookies", "soukromí", "podmínky", "© 20", "seznam.cz"}

// ParseListingPage extracts a raw listing from a Bezrealitky.cz detail page.
// Extraction is best effort: whatever the page does not yield stays empty,
// and the conversion stage deals with the gaps.
func ParseListingPage(url string, r io.Reader) (*model.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "bezrealitky: parse html")
	}

	raw := &model.RawListing{
		URL:        url,
		Title:      cleanText(doc.Find("h1").First().Text()),
		Attributes: parseAttributeTable(doc),
	}

	if m := propertyIDRe.FindStringSubmatch(url); m != nil {
		raw.PropertyID = m[1]
	}

	pageText := doc.Text()
	raw.Price = cleanText(priceRe.FindString(pageText))
	raw.PricePerSqm = cleanText(pricePerM2Re.FindString(pageText))

	switch {
	case strings.Contains(pageText, "Prodej"):
		raw.Category = "Prodej"
	case strings.Contains(pageText, "Pronájem"):
		raw.Category = "Pronájem"
	}

	raw.Description = pickDescription(doc)
	raw.Amenities = findAmenities(pageText)
	raw.Location = parseLocation(raw.Title)
	raw.PropertyDetails = buildPropertyDetails(raw)

	return raw, nil
}

func cleanText(s string) string {
	return wsRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

func parseAttributeTable(doc *goquery.Document) map[string]string {
	attrs := make(map[string]string)
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != 2 {
			return
		}
		key := cleanText(cells.Eq(0).Text())
		value := cleanText(cells.Eq(1).Text())
		if key != "" && value != "" {
			attrs[key] = value
		}
	})
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

// pickDescription takes the longest paragraph that looks like listing prose:
// long enough to carry content, short enough not to be a legal wall of text.
func pickDescription(doc *goquery.Document) string {
	var best string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := cleanText(p.Text())
		if len(text) <= 100 || len(text) >= 2000 {
			return
		}
		lower := strings.ToLower(text)
		for _, marker := range boilerplateMarkers {
			if strings.Contains(lower, marker) {
				return
			}
		}
		if len(text) > len(best) {
			best = text
		}
	})
	return best
}

func findAmenities(pageText string) []string {
	var found []string
	lower := strings.ToLower(pageText)
	for _, keyword := range amenityKeywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			found = append(found, keyword)
		}
	}
	return found
}

func parseLocation(title string) model.RawLocation {
	var loc model.RawLocation
	if m := cityDistrictRe.FindStringSubmatch(title); m != nil {
		loc.City = cleanText(m[1])
		loc.District = cleanText(m[2])
		loc.Full = loc.City + " - " + loc.District
	} else if m := cityOnlyRe.FindStringSubmatch(title); m != nil {
		loc.City = cleanText(m[1])
		loc.Full = loc.City
	}
	return loc
}

// buildPropertyDetails condenses the loosely keyed attribute table into the
// stable keys the conversion stage reads, falling back to the title where
// the table is missing a row.
func buildPropertyDetails(raw *model.RawListing) map[string]string {
	details := make(map[string]string)
	put := func(key, value string) {
		if value != "" {
			details[key] = value
		}
	}

	area := raw.Attributes["Užitná plocha"]
	if area == "" {
		area = titleAreaRe.FindString(raw.Title)
	}
	put("area", area)

	disposition := raw.Attributes["Dispozice"]
	if disposition == "" {
		disposition = titleDispositionRe.FindString(raw.Title)
	}
	put("disposition", disposition)

	put("floor", raw.Attributes["Podlaží"])
	put("buildingType", raw.Attributes["Konstrukce budovy"])
	put("condition", raw.Attributes["Stav"])
	put("ownership", raw.Attributes["Vlastnictví"])
	put("energyRating", raw.Attributes["PENB"])
	put("availableFrom", raw.Attributes["Dostupné od"])

	perSqm := raw.PricePerSqm
	if perSqm == "" {
		perSqm = raw.Attributes["Cena za jednotku"]
	}
	put("pricePerM2", perSqm)

	if len(details) == 0 {
		return nil
	}
	return details
}
