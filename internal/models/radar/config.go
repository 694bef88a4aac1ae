package radar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
)

// View is one radar zoom range for a city: a range label (e.g. "64km") and the
// loop page it is scraped from.
type View struct {
	Range string
	Url   string
}

// City is a validated configuration record. Views are ordered by ascending
// numeric range, smallest zoom first.
type City struct {
	Name         string
	FriendlyName string
	Views        []View
}

type rawCity struct {
	City         string            `json:"City"`
	FriendlyName string            `json:"FriendlyName"`
	Views        map[string]string `json:"Views"`
}

// Only these cities are processed; other records in the config are ignored.
var targetCities = map[string]struct{}{
	"Sydney":    {},
	"Melbourne": {},
	"Brisbane":  {},
	"Perth":     {},
	"Adelaide":  {},
	"Hobart":    {},
	"Darwin":    {},
	"Canberra":  {},
}

var utf8Bom = []byte{0xef, 0xbb, 0xbf}

var rangeRegex = regexp.MustCompile(`(\d+)`)

// Load reads the city configuration from a UTF-8 JSON document (a leading
// byte-order mark is tolerated) and returns the allow-listed cities with
// their views sorted smallest range first.
func Load(path string) ([]City, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, utf8Bom)

	var raw []rawCity
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
	}

	cities := make([]City, 0, len(raw))
	for _, r := range raw {
		if _, ok := targetCities[r.City]; !ok {
			continue
		}
		cities = append(cities, City{
			Name:         r.City,
			FriendlyName: r.FriendlyName,
			Views:        sortedViews(r.Views),
		})
	}
	return cities, nil
}

func sortedViews(views map[string]string) []View {
	sorted := make([]View, 0, len(views))
	for label, url := range views {
		sorted = append(sorted, View{Range: label, Url: url})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return parseRange(sorted[i].Range) < parseRange(sorted[j].Range)
	})
	return sorted
}

// parseRange extracts the integer part of a range label like "64km".
// Unparsable labels sort last.
func parseRange(label string) int {
	match := rangeRegex.FindString(label)
	if match == "" {
		return 9999
	}
	km, err := strconv.Atoi(match)
	if err != nil {
		return 9999
	}
	return km
}
