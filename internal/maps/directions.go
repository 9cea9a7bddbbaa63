package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"taxibackend/internal/domain"
)

const defaultDirectionsURL = "https://maps.googleapis.com/maps/api/directions/json"

var ErrNoRoute = errors.New("no route found")

// Route is the first leg of the first route returned by the provider.
type Route struct {
	DistanceKM  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
}

type Directions interface {
	Route(ctx context.Context, origin, destination string) (Route, error)
}

type GoogleClient struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

func NewGoogleClient(apiKey string) *GoogleClient {
	return &GoogleClient{
		APIKey:  apiKey,
		BaseURL: defaultDirectionsURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value float64 `json:"value"`
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

func (c *GoogleClient) Route(ctx context.Context, origin, destination string) (Route, error) {
	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("key", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Route{}, domain.ExternalServiceError{Service: "directions", Err: withoutURL(err)}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Route{}, domain.ExternalServiceError{Service: "directions", Err: withoutURL(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Route{}, domain.ExternalServiceError{Service: "directions", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var body directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Route{}, domain.ExternalServiceError{Service: "directions", Err: err}
	}
	if len(body.Routes) == 0 {
		return Route{}, ErrNoRoute
	}
	if len(body.Routes[0].Legs) == 0 {
		return Route{}, domain.ExternalServiceError{Service: "directions", Err: errors.New("route without legs")}
	}

	leg := body.Routes[0].Legs[0]
	return Route{
		DistanceKM:  leg.Distance.Value / 1000,
		DurationMin: leg.Duration.Value / 60,
	}, nil
}

// withoutURL drops the request URL, which carries the API key, from
// transport errors.
func withoutURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s request: %w", uerr.Op, uerr.Err)
	}
	return err
}
