package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/nao1215/schoolcrew/internal/model"
)

// Geolocation endpoints.
const (
	DefaultPrimaryLocationURL  = "https://ipapi.co/json/"
	DefaultFallbackLocationURL = "http://ip-api.com/json/"
)

const manualHint = "Please specify your location manually."

// Location detects the caller's city from its public IP address.
// It queries ipapi.co first and falls back to ip-api.com when the first
// provider reports an error in its body (typically rate limiting).
type Location struct {
	client      *http.Client
	primaryURL  string
	fallbackURL string
	timeout     time.Duration
}

// LocationOption configures a Location tool.
type LocationOption func(*Location)

// WithLocationEndpoints overrides both provider URLs.
func WithLocationEndpoints(primary, fallback string) LocationOption {
	return func(l *Location) {
		l.primaryURL = primary
		l.fallbackURL = fallback
	}
}

// WithLocationTimeout bounds each provider request.
func WithLocationTimeout(d time.Duration) LocationOption {
	return func(l *Location) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// NewLocation creates the location tool. A nil client means http.DefaultClient.
func NewLocation(client *http.Client, opts ...LocationOption) *Location {
	if client == nil {
		client = http.DefaultClient
	}
	l := &Location{
		client:      client,
		primaryURL:  DefaultPrimaryLocationURL,
		fallbackURL: DefaultFallbackLocationURL,
		timeout:     10 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name implements Tool.
func (l *Location) Name() string { return "get_current_location" }

// Description implements Tool.
func (l *Location) Description() string {
	return "Get current location information including city, region, and country based on IP address."
}

// Run implements Tool. The query is ignored.
func (l *Location) Run(ctx context.Context, _ string) string {
	place, err := l.Locate(ctx)
	var de *decodeError
	switch {
	case errors.Is(err, ErrLocationUnknown):
		return "Unable to determine current location. " + manualHint
	case errors.As(err, &de):
		return fmt.Sprintf("Unexpected error: %v. %s", de.err, manualHint)
	case err != nil:
		return fmt.Sprintf("Error getting location: %v. %s", err, manualHint)
	}
	return "Current Location: " + place.String()
}

// Place is a detected location. Missing fields are "Unknown".
type Place struct {
	City    string
	Region  string
	Country string
}

// String returns "city, region, country".
func (p Place) String() string {
	return p.City + ", " + p.Region + ", " + p.Country
}

// ErrLocationUnknown is returned when the fallback provider cannot place
// the address either.
var ErrLocationUnknown = errors.New("unable to determine current location")

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "failed to decode location: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// Locate detects the current place, trying the fallback provider when the
// primary one reports an error.
func (l *Location) Locate(ctx context.Context) (Place, error) {
	data, err := l.lookup(ctx, l.primaryURL)
	if err != nil {
		return Place{}, err
	}
	if _, failed := data["error"]; !failed {
		return Place{field(data, "city"), field(data, "region"), field(data, "country_name")}, nil
	}

	fallback, err := l.lookup(ctx, l.fallbackURL)
	if err != nil {
		return Place{}, err
	}
	if fallback["status"] != "success" {
		return Place{}, ErrLocationUnknown
	}
	return Place{field(fallback, "city"), field(fallback, "regionName"), field(fallback, "country")}, nil
}

// ResolveInputs replaces a "use my current location" request in
// inputs["location"] with the detected place. When detection fails the
// phrase is dropped if another location remains ("Bangalore | use my
// current location" becomes "Bangalore"); otherwise inputs are returned
// unchanged. No lookup is made for explicit locations.
func (l *Location) ResolveInputs(ctx context.Context, inputs map[string]string) map[string]string {
	loc := inputs["location"]
	if !(model.SearchRequest{Location: loc}).UsesCurrentLocation() {
		return inputs
	}

	resolved := maps.Clone(inputs)
	place, err := l.Locate(ctx)
	if err == nil && place.City != unknownField {
		resolved["location"] = place.String()
		return resolved
	}
	if rest := withoutCurrentLocation(loc); rest != "" {
		resolved["location"] = rest
	}
	return resolved
}

// withoutCurrentLocation removes the current-location phrase and the
// separators around it.
func withoutCurrentLocation(loc string) string {
	i := strings.Index(strings.ToLower(loc), model.CurrentLocation)
	if i < 0 {
		return strings.TrimSpace(loc)
	}
	rest := loc[:i] + loc[i+len(model.CurrentLocation):]
	return strings.Trim(rest, " |,;/-")
}

func (l *Location) lookup(ctx context.Context, url string) (map[string]any, error) {
	body, err := l.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &decodeError{err: err}
	}
	return data, nil
}

func (l *Location) fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%d %s for url: %s", resp.StatusCode, http.StatusText(resp.StatusCode), url)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

const unknownField = "Unknown"

// field renders m[key] as text, "Unknown" when missing or null.
func field(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return unknownField
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
