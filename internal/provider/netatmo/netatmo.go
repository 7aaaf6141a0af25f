// Package netatmo polls the Netatmo public weather station endpoint for one
// bounding box, refreshing the OAuth access token when it has expired, and
// maps every temperature, humidity and pressure measurement into canonical
// readings.
package netatmo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/IanBuck-dev/sensor-data-api-collector/internal/decode"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/provider"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/reading"
	"github.com/IanBuck-dev/sensor-data-api-collector/internal/store"
)

const (
	defaultBaseURL  = "https://api.netatmo.com/api/getpublicdata"
	defaultTokenURL = "https://api.netatmo.com/oauth2/token"

	userAgent = "Heat-Islands Detection Uni Hamburg 6buck@informatik.uni-hamburg.de"
)

// BoundingBox is the queried area, given as its north-east and south-west
// corners in decimal degrees.
type BoundingBox struct {
	LatNE float64
	LonNE float64
	LatSW float64
	LonSW float64
}

// Adapter implements provider.Collector for the Netatmo public data API.
type Adapter struct {
	name     string
	baseURL  string
	tokenURL string
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
	creds    *CredentialStore
	box      BoundingBox
	store    store.Store
	now      func() time.Time
}

// New creates the adapter. The credential store is shared state owned by the
// caller; every poll reads the current access token from it and a refresh
// exchange swaps the tokens in place.
func New(client *http.Client, st store.Store, creds *CredentialStore, box BoundingBox) *Adapter {
	return &Adapter{
		name:     string(reading.ProviderNetatmo),
		baseURL:  defaultBaseURL,
		tokenURL: defaultTokenURL,
		client:   client,
		circuit:  provider.NewBreaker("netatmo"),
		creds:    creds,
		box:      box,
		store:    st,
		now:      time.Now,
	}
}

func (a *Adapter) Name() string {
	return a.name
}

// Poll fetches the station snapshot for the bounding box, refreshing the
// access token once if the API rejects it, normalizes the nested measure
// blocks and bulk-writes the batch. A failed poll writes nothing.
func (a *Adapter) Poll(ctx context.Context) provider.Outcome {
	resp, err := a.fetch(ctx)
	if err != nil {
		return provider.Failed(fmt.Errorf("netatmo: %w", err))
	}

	readings := a.normalize(resp)
	if len(readings) == 0 {
		return provider.OK(0)
	}

	if err := a.store.InsertMany(ctx, readings); err != nil {
		return provider.Failed(fmt.Errorf("netatmo: store readings: %w", err))
	}
	return provider.OK(len(readings))
}

func (a *Adapter) fetch(ctx context.Context) (*apiResponse, error) {
	resp, err := a.get(ctx)
	if err != nil {
		return nil, err
	}

	// Unauthorized or bad-request responses mean the access token has
	// expired: refresh it and retry the original request exactly once.
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		resp.Body.Close()

		if err := a.refresh(ctx); err != nil {
			return nil, fmt.Errorf("refresh access token: %w", err)
		}

		resp, err = a.get(ctx)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch failed despite access token refresh: status %d", resp.StatusCode)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode public data response: %w", err)
	}
	return &payload, nil
}

func (a *Adapter) get(ctx context.Context) (*http.Response, error) {
	return provider.DoRequest(ctx, a.client, a.circuit, func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat_ne", fmt.Sprintf("%.4f", a.box.LatNE))
		values.Set("lon_ne", fmt.Sprintf("%.4f", a.box.LonNE))
		values.Set("lat_sw", fmt.Sprintf("%.4f", a.box.LatSW))
		values.Set("lon_sw", fmt.Sprintf("%.4f", a.box.LonSW))
		values.Set("filter", "false")

		u := fmt.Sprintf("%s?%s", a.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+a.creds.Current().AccessToken)
		req.Header.Set("User-Agent", userAgent)
		return req, nil
	})
}

// refresh runs the token exchange and installs the new tokens.
func (a *Adapter) refresh(ctx context.Context) error {
	creds := a.creds.Current()

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", creds.RefreshToken)
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		ExpiresIn    int    `json:"expires_in"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}

	expiry := a.now().UTC().Add(time.Duration(body.ExpiresIn) * time.Second)
	a.creds.Replace(body.AccessToken, body.RefreshToken, expiry)
	return nil
}

// normalize emits one reading per matched positional value: for every
// station, every measure block, every device, the value at position i is
// interpreted through the block's type array. Types other than temperature,
// humidity and pressure (wind, rain, ...) are decoded but discarded. All
// readings share the server-reported snapshot time.
func (a *Adapter) normalize(resp *apiResponse) []reading.CanonicalReading {
	ts := resp.TimeServer.Time()

	var out []reading.CanonicalReading
	for _, station := range resp.Body {
		loc := station.Place.toLocation()

		for moduleID, block := range station.Measures {
			for _, values := range block.Res {
				for i, v := range values {
					if i >= len(block.Types) {
						break
					}

					val := v.Float64()
					cr := reading.CanonicalReading{
						ID:               reading.NewID(),
						Timestamp:        ts,
						Location:         loc,
						Provider:         reading.ProviderNetatmo,
						ProviderSensorID: moduleID,
					}

					switch block.Types[i] {
					case "temperature":
						cr.Temperature = &val
					case "humidity":
						cr.Humidity = &val
					case "pressure":
						cr.Pressure = &val
					default:
						continue
					}

					out = append(out, cr)
				}
			}
		}
	}
	return out
}

// API payload shapes.
type apiResponse struct {
	Status     string           `json:"status"`
	TimeServer decode.Time      `json:"time_server"`
	Body       []stationReading `json:"body"`
}

type stationReading struct {
	ID       string                  `json:"_id"`
	Place    place                   `json:"place"`
	Measures map[string]measureBlock `json:"measures"`
}

type place struct {
	Timezone string        `json:"timezone"`
	Country  string        `json:"country"`
	Altitude decode.Number `json:"altitude"`

	// Location is reported as [longitude, latitude].
	Location []decode.Number `json:"location"`
}

// toLocation falls back to explicit zero components when the station omits
// coordinates.
func (p place) toLocation() reading.Location {
	loc := reading.Location{Altitude: p.Altitude.Float64()}
	if len(p.Location) >= 2 {
		loc.Longitude = p.Location[0].Float64()
		loc.Latitude = p.Location[1].Float64()
	}
	return loc
}

// measureBlock is one module's snapshot: Types names the recorded physical
// quantities and Res holds, per device id, readings positionally aligned
// with Types. Blocks without the type/res pair (wind and rain modules)
// decode to empty maps and are skipped.
type measureBlock struct {
	Types []string                   `json:"type"`
	Res   map[string][]decode.Number `json:"res"`
}
