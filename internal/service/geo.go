package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// UnknownCountry is the sentinel used whenever a lookup fails.
const UnknownCountry = "Unknown"

// GeoResolver resolves caller addresses to country codes through the
// ip-api.com JSON endpoint. Lookups are best effort and never fatal.
type GeoResolver struct {
	endpoint string
	client   *http.Client
}

func NewGeoResolver(endpoint string) *GeoResolver {
	return &GeoResolver{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 2 * time.Second},
	}
}

func (g *GeoResolver) Country(ip string) string {
	resp, err := g.client.Get(fmt.Sprintf("%s/json/%s", g.endpoint, ip))
	if err != nil {
		return UnknownCountry
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return UnknownCountry
	}

	var payload struct {
		CountryCode string `json:"countryCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return UnknownCountry
	}
	if payload.CountryCode == "" {
		return UnknownCountry
	}
	return payload.CountryCode
}
