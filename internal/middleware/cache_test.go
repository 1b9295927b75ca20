package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cleanhome-marketplace/internal/config"
)

func cacheCtx(t *testing.T, target string) echo.Context {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, target, nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetPath("/v1/providers/:id/evaluations")
    return c
}

func TestCacheKeyFrom(t *testing.T) {
    cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

    a := cacheKeyFrom(cfg, cacheCtx(t, "/v1/providers/7/evaluations"))
    b := cacheKeyFrom(cfg, cacheCtx(t, "/v1/providers/7/evaluations"))
    assert.Equal(t, a, b, "same request must produce a stable key")

    withQuery := cacheKeyFrom(cfg, cacheCtx(t, "/v1/providers/7/evaluations?page=2"))
    assert.NotEqual(t, a, withQuery, "query must contribute to the key")

    // route strategy ignores the query entirely.
    routeOnly := config.CacheConfig{Prefix: "cache", KeyStrategy: "route"}
    r1 := cacheKeyFrom(routeOnly, cacheCtx(t, "/v1/providers/7/evaluations"))
    r2 := cacheKeyFrom(routeOnly, cacheCtx(t, "/v1/providers/7/evaluations?page=2"))
    assert.Equal(t, r1, r2)

    assert.True(t, len(a) > len("cache:"), "key keeps the readable prefix")
    assert.Equal(t, "cache:", a[:6])
}

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
    hdr := http.Header{}
    hdr.Set("Content-Type", "application/json")
    body := []byte(`{"review_count":3,"average_rating":4.33}`)

    payload, err := encodePayload(http.StatusOK, hdr, body)
    require.NoError(t, err)

    status, gotHdr, gotBody, ok := decodePayload(payload)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
    assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsCorruptInput(t *testing.T) {
    _, _, _, ok := decodePayload([]byte{0x01, 0x02})
    assert.False(t, ok, "short payloads must be rejected")

    // Header length pointing past the end of the payload.
    bad, err := encodePayload(http.StatusOK, http.Header{}, nil)
    require.NoError(t, err)
    bad[7] = 0xFF
    _, _, _, ok = decodePayload(bad)
    assert.False(t, ok)
}

func TestNewRedisCachePassThroughWhenDisabled(t *testing.T) {
    mw := NewRedisCache(config.CacheConfig{Enabled: false}, nil)

    called := false
    h := mw(func(c echo.Context) error {
        called = true
        return c.String(http.StatusOK, "ok")
    })

    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/v1/providers/7", nil)
    rec := httptest.NewRecorder()
    require.NoError(t, h(e.NewContext(req, rec)))

    assert.True(t, called)
    assert.Empty(t, rec.Header().Get("X-Cache"), "pass-through must not tag responses")
}
