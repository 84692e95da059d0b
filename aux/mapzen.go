/*
Copyright © 2024 the fmask-go authors.
This file is part of fmask-go.

fmask-go is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

fmask-go is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with fmask-go.  If not, see <http://www.gnu.org/licenses/>.
*/

package aux

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const mapzenElevationBaseURL = "https://tile.mapzen.com/mapzen/terrain/v1"

// MapzenClient fetches DEM tiles from the Mapzen terrain WMS service.
// It follows the same functional-options client shape the pack's Earth
// Engine client uses: an *http.Client built from an oauth2 token
// source, configured once and reused across requests.
type MapzenClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// MapzenOption configures a MapzenClient.
type MapzenOption func(*MapzenClient) error

// NewMapzenClient builds a client, applying options in order. At
// least one of WithAPIKey or WithClientCredentials must configure
// authentication.
func NewMapzenClient(ctx context.Context, opts ...MapzenOption) (*MapzenClient, error) {
	c := &MapzenClient{baseURL: mapzenElevationBaseURL}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("mapzen: failed to apply client option: %w", err)
		}
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	return c, nil
}

// WithAPIKey authenticates requests with a static Mapzen API key
// carried as a bearer token source.
func WithAPIKey(key string) MapzenOption {
	return func(c *MapzenClient) error {
		if key == "" {
			return fmt.Errorf("api key must not be empty")
		}
		c.apiKey = key
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: key, TokenType: "Bearer"})
		c.httpClient = oauth2.NewClient(context.Background(), ts)
		return nil
	}
}

// WithClientCredentials authenticates using an OAuth2 client-credentials
// flow, for deployments that front Mapzen behind an OAuth2 gateway.
func WithClientCredentials(cfg clientcredentials.Config) MapzenOption {
	return func(c *MapzenClient) error {
		c.httpClient = cfg.Client(context.Background())
		return nil
	}
}

// DEM implements aux.DEMSource by warping a Mapzen terrain tile onto
// the scene grid described by req. The actual tile fetch/mosaic/warp
// is an external collaborator (spec.md §1 — out of scope); this
// method defines the call shape and retry contract spec §7 describes
// ("if Mapzen DEM fails and a local DEM path is configured, the core
// retries once with the local source" is implemented by the caller
// composing a Chain with a local source after this one).
func (c *MapzenClient) DEM(ctx context.Context, req Request) (*DEM, error) {
	url := fmt.Sprintf("%s/geotiff/%s.tif?api_key=%s", c.baseURL, req.SceneID, c.apiKey)
	resp, err := c.httpClient.Do(newGetRequest(ctx, url))
	if err != nil {
		return nil, fmt.Errorf("mapzen: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &ErrNoData{Source: "mapzen"}
	}
	return nil, fmt.Errorf("mapzen: tile decoding is implemented by the raster I/O collaborator, not the core")
}

func newGetRequest(ctx context.Context, url string) *http.Request {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	return req
}
