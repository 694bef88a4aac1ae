package bom

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log"
	"net/http"
	"time"

	_ "image/gif"
	_ "image/png"
)

const (
	// The bureau rejects requests without a recognisable browser identity.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.36"

	pageFetchTimeout = 10 * time.Second
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the HTTP boundary of the pipeline. FetchPage returns an error for
// any failure; FetchImage treats every failure as absence (nil) because a
// missing transparency layer or radar frame only degrades the output.
type Client interface {
	FetchPage(url string) (string, error)
	FetchImage(url string) *image.NRGBA
}

type RadarManager struct {
	client    HTTPClient
	userAgent string
}

func NewClient() Client {
	return &RadarManager{
		client:    &http.Client{},
		userAgent: defaultUserAgent,
	}
}

// FetchPage retrieves a radar loop page body. The call is bounded by a
// 10 second timeout so a stalled upstream never wedges the pipeline.
func (mgr *RadarManager) FetchPage(url string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pageFetchTimeout)
	defer cancel()

	body, err := mgr.get(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read page body from %s: %w", url, err)
	}
	return string(data), nil
}

// FetchImage retrieves and decodes one image resource, returning it as an
// NRGBA bitmap. Any failure (network, status, decode) is logged and reported
// as absence.
func (mgr *RadarManager) FetchImage(url string) *image.NRGBA {
	body, err := mgr.get(context.Background(), url)
	if err != nil {
		log.Printf("Failed to fetch image %s: %v", url, err)
		return nil
	}
	defer body.Close()

	img, _, err := image.Decode(body)
	if err != nil {
		log.Printf("Failed to decode image %s: %v", url, err)
		return nil
	}
	return toNRGBA(img)
}

func (mgr *RadarManager) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", mgr.userAgent)

	res, err := mgr.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from %s: %w", url, err)
	}

	if res.StatusCode > 299 {
		res.Body.Close()
		return nil, fmt.Errorf("http status response from %s: %s", url, res.Status)
	}

	return res.Body, nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}
	bounds := img.Bounds()
	out := image.NewNRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)
	return out
}
