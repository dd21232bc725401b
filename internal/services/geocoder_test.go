package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kseniabot/astro-backend/internal/apperr"
)

func TestUTCOffsetHours(t *testing.T) {
	at := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		offset int // seconds east of UTC
		want   float64
	}{
		{"moscow", 3 * 3600, 3},
		{"kolkata", 5*3600 + 1800, 5.5},
		{"utc", 0, 0},
		{"newfoundland", -(3*3600 + 1800), -3.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loc := time.FixedZone(tc.name, tc.offset)
			require.Equal(t, tc.want, utcOffsetHours(loc, at))
		})
	}
}

const yandexFixture = `{
  "response": {
    "GeoObjectCollection": {
      "featureMember": [
        {
          "GeoObject": {
            "name": "Москва",
            "Point": {"pos": "37.617698 55.755864"},
            "metaDataProperty": {
              "GeocoderMetaData": {
                "precision": "other",
                "text": "Россия, Москва"
              }
            }
          }
        }
      ]
    }
  }
}`

func TestParseGeocodeResponse(t *testing.T) {
	result, err := parseGeocodeResponse("Москва", []byte(yandexFixture))
	require.NoError(t, err)

	require.Equal(t, "yandex", result.Provider)
	require.Equal(t, "Москва", result.Query)
	// pos is "lon lat"
	require.InDelta(t, 55.755864, result.Lat, 1e-9)
	require.InDelta(t, 37.617698, result.Lon, 1e-9)
	require.Equal(t, "Москва", result.Name)
	require.Equal(t, "other", result.Precision)
	require.Equal(t, "Россия, Москва", result.Address)
}

func TestParseGeocodeResponseNoCandidate(t *testing.T) {
	empty := `{"response":{"GeoObjectCollection":{"featureMember":[]}}}`
	_, err := parseGeocodeResponse("nowhere", []byte(empty))
	require.Error(t, err)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestParseGeocodeResponseMalformedPos(t *testing.T) {
	bad := `{"response":{"GeoObjectCollection":{"featureMember":[{"GeoObject":{"Point":{"pos":"garbage"}}}]}}}`
	_, err := parseGeocodeResponse("x", []byte(bad))
	require.Error(t, err)
	require.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
