package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ringsaturn/tzf"
	"github.com/rs/zerolog/log"

	"github.com/kseniabot/astro-backend/internal/apperr"
	"github.com/kseniabot/astro-backend/internal/models"
)

const (
	yandexGeocoderURL = "https://geocode-maps.yandex.ru/1.x/"
	geocodeTimeout    = 7 * time.Second
)

// Geocoder resolves free-text place queries via the Yandex geocoder and
// derives the timezone for the resulting coordinates.
type Geocoder struct {
	apiKey string
	client *http.Client
	finder tzf.F
}

// NewGeocoder builds the resolver. The timezone finder loads its embedded
// polygon data once, up front.
func NewGeocoder(apiKey string) (*Geocoder, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("init timezone finder: %w", err)
	}
	return &Geocoder{
		apiKey: apiKey,
		client: &http.Client{Timeout: geocodeTimeout},
		finder: finder,
	}, nil
}

type yandexResponse struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []struct {
				GeoObject struct {
					Name  string `json:"name"`
					Point struct {
						Pos string `json:"pos"`
					} `json:"Point"`
					MetaDataProperty struct {
						GeocoderMetaData struct {
							Precision string `json:"precision"`
							Text      string `json:"text"`
						} `json:"GeocoderMetaData"`
					} `json:"metaDataProperty"`
				} `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

// Resolve geocodes the query and fills in timezone id + numeric UTC offset.
// No candidate is a NotFound error; provider failures surface as
// ExternalService errors.
func (g *Geocoder) Resolve(ctx context.Context, query string) (*models.Geocode, error) {
	if g.apiKey == "" {
		return nil, apperr.New(apperr.Config, "YANDEX_GEOCODER_API_KEY is not set")
	}

	params := url.Values{}
	params.Set("apikey", g.apiKey)
	params.Set("format", "json")
	params.Set("results", "1")
	params.Set("lang", "ru_RU")
	params.Set("geocode", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, yandexGeocoderURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to build geocoder request", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.ExternalService, "geocoder request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Newf(apperr.ExternalService, "yandex geocoder HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.ExternalService, "failed to read geocoder response", err)
	}

	result, err := parseGeocodeResponse(query, body)
	if err != nil {
		return nil, err
	}

	g.attachTimezone(result)
	return result, nil
}

// parseGeocodeResponse extracts the first/best match. The Yandex "pos" field
// is "lon lat", space separated.
func parseGeocodeResponse(query string, body []byte) (*models.Geocode, error) {
	var data yandexResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, apperr.Wrap(apperr.ExternalService, "invalid geocoder response", err)
	}

	members := data.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		return nil, apperr.New(apperr.NotFound, "not found")
	}

	obj := members[0].GeoObject
	parts := strings.Fields(obj.Point.Pos)
	if len(parts) != 2 {
		return nil, apperr.New(apperr.NotFound, "not found")
	}
	lon, lonErr := strconv.ParseFloat(parts[0], 64)
	lat, latErr := strconv.ParseFloat(parts[1], 64)
	if lonErr != nil || latErr != nil {
		return nil, apperr.New(apperr.NotFound, "not found")
	}

	return &models.Geocode{
		Provider:  "yandex",
		Query:     query,
		Lat:       lat,
		Lon:       lon,
		Name:      obj.Name,
		Precision: obj.MetaDataProperty.GeocoderMetaData.Precision,
		Address:   obj.MetaDataProperty.GeocoderMetaData.Text,
	}, nil
}

// attachTimezone maps the coordinates to an IANA zone and a fractional UTC
// offset in hours (half-hour zones yield e.g. 5.5). A failed lookup leaves
// the timezone fields empty rather than failing the geocode.
func (g *Geocoder) attachTimezone(result *models.Geocode) {
	tzID := g.finder.GetTimezoneName(result.Lon, result.Lat)
	if tzID == "" {
		log.Warn().Float64("lat", result.Lat).Float64("lon", result.Lon).Msg("no timezone for coordinates")
		return
	}
	loc, err := time.LoadLocation(tzID)
	if err != nil {
		log.Warn().Err(err).Str("tz", tzID).Msg("failed to load timezone")
		return
	}
	result.TimeZone = tzID
	result.TZone = utcOffsetHours(loc, time.Now())
}

func utcOffsetHours(loc *time.Location, at time.Time) float64 {
	_, offsetSeconds := at.In(loc).Zone()
	return float64(offsetSeconds) / 3600
}
