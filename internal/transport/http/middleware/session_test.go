package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-kanban/internal/domain"
	jwtinfra "github.com/go-kanban/internal/infrastructure/jwt"
	"github.com/go-kanban/internal/infrastructure/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCookie = CookieConfig{Name: "session"}

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

// captureSubject runs the Session middleware and returns the Subject the
// handler saw.
func captureSubject(t *testing.T, dec tokenDecoder, req *http.Request) (domain.Subject, *httptest.ResponseRecorder) {
	t.Helper()
	var got domain.Subject
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	rr := httptest.NewRecorder()
	Session(dec, testCookie, metrics.Nop{})(h).ServeHTTP(rr, req)
	return got, rr
}

func clearedCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == testCookie.Name && c.MaxAge < 0 {
			return c
		}
	}
	return nil
}

func TestSession_NoCookieIsGuest(t *testing.T) {
	codec := jwtinfra.NewUnsignedCodec(24 * time.Hour)
	got, rr := captureSubject(t, codec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.Anonymous(), got)
	assert.False(t, got.Validated)
	assert.Nil(t, clearedCookie(rr))
}

func TestSession_ValidTokenInjectsSubject(t *testing.T) {
	codec := jwtinfra.NewUnsignedCodec(24 * time.Hour)
	want := domain.Subject{UserID: "u1", Role: domain.RoleUser, Validated: true}
	tok, err := codec.Encode(want)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: tok.Value})
	got, rr := captureSubject(t, codec, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, want, got)
}

func TestSession_ExpiredTokenDowngradesToGuest(t *testing.T) {
	issued := time.Now().Add(-25 * time.Hour)
	codec := jwtinfra.NewUnsignedCodec(24 * time.Hour)
	tok, err := codec.WithClock(func() time.Time { return issued }).Encode(domain.Subject{UserID: "u1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: tok.Value})
	got, rr := captureSubject(t, codec, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, got.IsAnonymous())
	assert.NotNil(t, clearedCookie(rr))
}

func TestSession_MalformedTokenDowngradesToGuest(t *testing.T) {
	codec := jwtinfra.NewUnsignedCodec(24 * time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "not-a-token"})
	got, rr := captureSubject(t, codec, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.Anonymous(), got)
	assert.NotNil(t, clearedCookie(rr))
}

type brokenDecoder struct{}

func (brokenDecoder) Decode(string) (domain.Subject, error) {
	return domain.Subject{}, errors.New("key store unavailable")
}

func TestSession_UnexpectedDecodeErrorIsNotSwallowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "x"})
	rr := httptest.NewRecorder()
	Session(brokenDecoder{}, testCookie, metrics.Nop{})(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestSubjectFromContext_DefaultsToGuest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, domain.Anonymous(), SubjectFromContext(req.Context()))
}

func TestSetSessionCookie_Attributes(t *testing.T) {
	rr := httptest.NewRecorder()
	exp := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	SetSessionCookie(rr, CookieConfig{Name: "session", Secure: true}, domain.SessionToken{Value: "abc", ExpiresAt: exp})

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "abc", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.True(t, exp.Equal(c.Expires))
}
