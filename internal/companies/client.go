// Package companies looks up UK company registry profiles for tender
// due-diligence, with an in-process TTL cache in front of the API.
package companies

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Profile is the subset of a registry profile the app uses.
type Profile struct {
	CompanyNumber    string `json:"company_number"`
	CompanyName      string `json:"company_name"`
	Status           string `json:"company_status"`
	Type             string `json:"type"`
	DateOfCreation   string `json:"date_of_creation"`
	RegisteredOffice struct {
		AddressLine1 string `json:"address_line_1"`
		Locality     string `json:"locality"`
		PostalCode   string `json:"postal_code"`
	} `json:"registered_office_address"`
}

// Client queries the registry API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *cache.Cache
}

// NewClient creates a registry client. Profiles are cached for an hour
// since registry data changes rarely.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache.New(time.Hour, 10*time.Minute),
	}
}

// Lookup fetches a company profile by registration number.
func (c *Client) Lookup(ctx context.Context, number string) (Profile, error) {
	number = strings.TrimSpace(strings.ToUpper(number))
	if number == "" {
		return Profile{}, fmt.Errorf("company number is required")
	}

	if cached, found := c.cache.Get(number); found {
		return cached.(Profile), nil
	}

	url := fmt.Sprintf("%s/company/%s", c.baseURL, number)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.SetBasicAuth(c.apiKey, "")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Profile{}, fmt.Errorf("company %s not found", number)
	}
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Profile{}, fmt.Errorf("read response: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return Profile{}, fmt.Errorf("unmarshal profile: %w", err)
	}

	c.cache.Set(number, profile, cache.DefaultExpiration)
	return profile, nil
}
