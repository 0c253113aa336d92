package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/supernanny-backend/internal/domain/entity"
	"github.com/oksasatya/supernanny-backend/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAndRequireRole(t *testing.T) {
	jwt := helpers.NewJWTManager("test-secret", time.Minute)
	r := gin.New()
	r.GET("/parents", Auth(jwt), RequireRole(entity.RoleParent, entity.RoleAdmin), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c)+"|"+string(UserRole(c)))
	})

	parentTok, _, err := jwt.GenerateAccessToken("u1", string(entity.RoleParent))
	require.NoError(t, err)
	nannyTok, _, err := jwt.GenerateAccessToken("u2", string(entity.RoleNanny))
	require.NoError(t, err)
	foreign, _, err := helpers.NewJWTManager("other-secret", time.Minute).GenerateAccessToken("u1", "PARENT")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		query  string
		status int
		body   string
	}{
		{"missing token", "", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + parentTok, "", http.StatusUnauthorized, ""},
		{"bad signature", "Bearer " + foreign, "", http.StatusUnauthorized, ""},
		{"wrong role", "Bearer " + nannyTok, "", http.StatusForbidden, ""},
		{"parent via header", "Bearer " + parentTok, "", http.StatusOK, "u1|PARENT"},
		{"parent via query", "", "?token=" + parentTok, http.StatusOK, "u1|PARENT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/parents"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(w.Body.String())
	require.NoError(t, err)
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", id)
	assert.Equal(t, id, serve(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "not-a-uuid")
	assert.NotEqual(t, "not-a-uuid", serve(r, req).Body.String())
}

func TestRealIPAndAllow(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/v1/x", func(c *gin.Context) {
		private := AllowPrivateIP()(c)
		prefixed := AnyAllow(nil, AllowPathPrefix("/v1"))(c)
		c.JSON(http.StatusOK, gin.H{"ip": c.GetString(ctxRealIPKey), "private": private, "prefixed": prefixed, "key": KeyByIP()(c)})
	})

	tests := []struct {
		name    string
		headers map[string]string
		ip      string
		private bool
	}{
		{"cloudflare wins", map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "10.0.0.1"}, "203.0.113.7", false},
		{"left-most forwarded", map[string]string{"X-Forwarded-For": "10.1.2.3, 203.0.113.9"}, "10.1.2.3", true},
		{"garbage header ignored", map[string]string{"CF-Connecting-IP": "nope", "X-Forwarded-For": "192.168.1.4"}, "192.168.1.4", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/x", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := serve(r, req)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"ip":"`+tt.ip+`"`)
			assert.Contains(t, w.Body.String(), `"key":"rl:ip:`+tt.ip+`"`)
			if tt.private {
				assert.Contains(t, w.Body.String(), `"private":true`)
			} else {
				assert.Contains(t, w.Body.String(), `"private":false`)
			}
			assert.Contains(t, w.Body.String(), `"prefixed":true`)
		})
	}
}

func TestKeyByUserAndPath(t *testing.T) {
	r := gin.New()
	r.GET("/bookings/:id", func(c *gin.Context) {
		anon := KeyByUserAndPath()(c)
		c.Set(CtxUserIDKey, "u1")
		c.String(http.StatusOK, anon+"\n"+KeyByUserAndPath()(c))
	})
	w := serve(r, httptest.NewRequest(http.MethodGet, "/bookings/42", nil))
	assert.Equal(t, "rl:path:/bookings/:id:ip:192.0.2.1\nrl:path:/bookings/:id:user:u1", w.Body.String())
}

func TestRateLimit_WithoutRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimit(nil, 1, time.Minute, KeyByIP(), nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}
