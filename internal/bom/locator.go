package bom

import (
	"fmt"
	"log"
	"regexp"
)

// DefaultBaseUrl is the bureau host that loop pages, transparencies and radar
// frames are served from.
const DefaultBaseUrl = "https://reg.bom.gov.au"

var (
	productIdRegex = regexp.MustCompile(`(IDR\d+)`)

	// Frame paths are embedded in the page as a scripted variable:
	//   theImageNames[0] = "/radar/IDR023.T.202608261030.png";
	// Order of appearance is chronological capture order and must be kept.
	frameNameRegex = regexp.MustCompile(`theImageNames\[\d+\]\s*=\s*"([^"]+)"`)
)

// RadarSource holds everything needed to build one animated loop: the product
// identifier, the four static transparency layers derived from it, and the
// ordered radar frame URLs scraped from the loop page.
type RadarSource struct {
	ProductId     string
	BackgroundUrl string
	TopographyUrl string
	LocationsUrl  string
	RangeUrl      string
	FrameUrls     []string
}

// Locate derives a RadarSource from a loop page. Absence (nil) is returned,
// not an error, when the page reference carries no product code, the page
// cannot be fetched, or no frame paths are found in the body; each case is
// logged and the view is abandoned.
func Locate(client Client, pageUrl, baseUrl string) *RadarSource {
	productId := productIdRegex.FindString(pageUrl)
	if productId == "" {
		log.Printf("No product code found in page reference %s", pageUrl)
		return nil
	}

	content, err := client.FetchPage(pageUrl)
	if err != nil {
		log.Printf("Failed to fetch page %s: %v", pageUrl, err)
		return nil
	}

	matches := frameNameRegex.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		log.Printf("Could not find radar frames in %s", pageUrl)
		return nil
	}

	frameUrls := make([]string, len(matches))
	for i, match := range matches {
		frameUrls[i] = baseUrl + match[1]
	}

	source := NewRadarSource(productId, baseUrl)
	source.FrameUrls = frameUrls
	return source
}

// NewRadarSource derives the four static layer URLs for a product code. The
// layers are not checked for existence here; a missing layer surfaces as a
// fetch failure downstream.
func NewRadarSource(productId, baseUrl string) *RadarSource {
	layerUrl := func(kind string) string {
		return fmt.Sprintf("%s/products/radar_transparencies/%s.%s.png", baseUrl, productId, kind)
	}
	return &RadarSource{
		ProductId:     productId,
		BackgroundUrl: layerUrl("background"),
		TopographyUrl: layerUrl("topography"),
		LocationsUrl:  layerUrl("locations"),
		RangeUrl:      layerUrl("range"),
	}
}
