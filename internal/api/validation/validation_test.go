package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type filterQuery struct {
	MediaTypes []string `form:"media_type_filter" validate:"dive,media_type"`
	Buckets    []string `form:"qualifications_filter" validate:"dive,role_bucket"`
	Limit      int      `form:"limit" validate:"gte=0,lte=100"`
}

type rankBody struct {
	Statuses []string `json:"tracking_statuses" validate:"dive,required,no_null_bytes"`
	Limit    int      `json:"limit" validate:"gte=0"`
}

func TestValidateAndDecodeQueryParams(t *testing.T) {
	t.Run("decodes repeated values", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/x?media_type_filter=Feature&media_type_filter=Play&qualifications_filter=OWA&limit=5", nil)

		var q filterQuery
		require.NoError(t, ValidateAndDecodeQueryParams(r, &q))
		assert.Equal(t, []string{"Feature", "Play"}, q.MediaTypes)
		assert.Equal(t, []string{"OWA"}, q.Buckets)
		assert.Equal(t, 5, q.Limit)
	})

	t.Run("rejects unknown media type", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/x?media_type_filter=Podcast", nil)

		var q filterQuery
		err := ValidateAndDecodeQueryParams(r, &q)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be one of: Feature, TV Series, Play, Other")
		assert.NotEmpty(t, GetValidationErrorDetails(err))
	})

	t.Run("rejects non numeric limit", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/x?limit=many", nil)

		var q filterQuery
		require.Error(t, ValidateAndDecodeQueryParams(r, &q))
	})
}

func TestDecodeJSON(t *testing.T) {
	t.Run("empty body is allowed", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/x", strings.NewReader(""))

		var b rankBody
		require.NoError(t, DecodeJSON(r, &b))
		assert.Empty(t, b.Statuses)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/x", strings.NewReader(`{"limit":1,"bogus":true}`))

		var b rankBody
		require.Error(t, DecodeJSON(r, &b))
	})

	t.Run("null bytes are rejected", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/x", strings.NewReader(`{"tracking_statuses":["Act\u0000ive"]}`))

		var b rankBody
		err := DecodeJSON(r, &b)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not contain NULL bytes")
	})
}
