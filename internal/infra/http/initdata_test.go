package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-summary-webapp/internal/domain"
)

const testToken = "123456:ABC"

var signedAt = time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)

func signedInitData(t *testing.T, token string, authDate time.Time) string {
	t.Helper()
	values := url.Values{}
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("query_id", "AAH")
	values.Set("user", `{"id":42,"first_name":"Ali","username":"ali","language_code":"uz"}`)
	values.Set("hash", SignInitData(values, token))
	return values.Encode()
}

func TestParseInitDataValid(t *testing.T) {
	user, err := parseInitData(signedInitData(t, testToken, signedAt), testToken, time.Hour, signedAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "ali", user.UserName)
}

func TestParseInitDataWrongToken(t *testing.T) {
	_, err := parseInitData(signedInitData(t, "other", signedAt), testToken, time.Hour, signedAt)
	assert.ErrorIs(t, err, domain.ErrInvalidInitData)
}

func TestParseInitDataExpired(t *testing.T) {
	data := signedInitData(t, testToken, signedAt)

	_, err := parseInitData(data, testToken, time.Hour, signedAt.Add(2*time.Hour))
	assert.ErrorIs(t, err, domain.ErrInvalidInitData)

	_, err = parseInitData(data, testToken, 0, signedAt.Add(24*365*time.Hour))
	assert.NoError(t, err, "zero max age disables the freshness check")

	_, err = parseInitData(`user=%7B%22id%22%3A7%7D`, "", time.Hour, signedAt)
	assert.ErrorIs(t, err, domain.ErrInvalidInitData, "missing auth_date is rejected when age is checked")
}

func TestParseInitDataWithoutTokenIsUnsafe(t *testing.T) {
	user, err := ParseInitData(`user=%7B%22id%22%3A7%7D`, "", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
}

func TestParseInitDataWithoutUser(t *testing.T) {
	_, err := ParseInitData("auth_date=1", "", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInitData)
}

func TestAmbientUserMiddleware(t *testing.T) {
	var gotID int64
	handler := AmbientUserMiddleware(testToken, time.Hour, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := AmbientUserFrom(r.Context()); ok {
			gotID = user.ID
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/app/summaries", nil)
	req.Header.Set(InitDataHeader, signedInitData(t, testToken, time.Now()))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, int64(42), gotID)

	gotID = 0
	req = httptest.NewRequest(http.MethodGet, "/app/summaries?init_data="+url.QueryEscape(signedInitData(t, "forged", time.Now())), nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Zero(t, gotID, "forged init data must not set the ambient user")

	req = httptest.NewRequest(http.MethodGet, "/app/summaries", nil)
	req.Header.Set(InitDataHeader, signedInitData(t, testToken, time.Now().Add(-2*time.Hour)))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Zero(t, gotID, "stale init data must not set the ambient user")
}
