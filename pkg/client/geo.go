// ABOUTME: Best-effort geolocation lookup used to tag outgoing messages
// ABOUTME: with the sender's country; failures disable the tag silently
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aeolun/parley/pkg/protocol"
)

const geoLookupURL = "http://ip-api.com/json"

// geoResponse is the slice of the ip-api.com payload we care about.
type geoResponse struct {
	Status      string `json:"status"`
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
}

// LookupLocation asks ip-api.com where this client appears to be. The
// result tags outgoing messages; callers treat any error as "no tag" and
// move on, so a slow or blocked lookup never delays startup for long.
func LookupLocation(ctx context.Context) (*protocol.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geoLookupURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("location lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("location lookup returned status %d", resp.StatusCode)
	}

	var geo geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&geo); err != nil {
		return nil, fmt.Errorf("failed to parse location response: %w", err)
	}
	if geo.Status != "success" || geo.CountryCode == "" {
		return nil, fmt.Errorf("location lookup unsuccessful")
	}

	return &protocol.Location{
		CountryCode: geo.CountryCode,
		Country:     geo.Country,
	}, nil
}
