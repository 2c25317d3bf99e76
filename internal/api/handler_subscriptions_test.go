package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupSubscriptionRouter(opts *webpush.Options) *gin.Engine {
	registerValidations()
	r := gin.New()
	handler := NewHandler(nil, opts)
	r.PUT("/api/subscriptions", handler.PutSubscription)
	r.GET("/api/subscriptions", handler.GetSubscription)
	r.DELETE("/api/subscriptions", handler.DeleteSubscription)
	r.GET("/api/vapid_public_key", handler.GetVAPIDPublicKey)
	return r
}

func TestPutSubscription_Invalid(t *testing.T) {
	router := setupSubscriptionRouter(nil)

	testCases := []struct {
		name string
		body string
	}{
		{"no body", ""},
		{"missing keys", `{"endpoint":"https://push.example/1","student_id":1}`},
		{"endpoint is not a url", `{"endpoint":"nope","p256dh":"k","auth":"a","student_id":1}`},
		{"missing student", `{"endpoint":"https://push.example/1","p256dh":"k","auth":"a"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPut, "/api/subscriptions", strings.NewReader(tc.body))
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error":"invalid_request"`)
		})
	}
}

func TestGetSubscription_RequiresEndpoint(t *testing.T) {
	router := setupSubscriptionRouter(nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/subscriptions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid_request","message":"endpoint is required"}`, w.Body.String())
}

func TestGetVAPIDPublicKey(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/vapid_public_key", nil)
	setupSubscriptionRouter(nil).ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	setupSubscriptionRouter(&webpush.Options{VAPIDPublicKey: "BPub"}).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"BPub"}`, w.Body.String())
}

func TestRawQueryParam(t *testing.T) {
	v, ok := rawQueryParam("a=1&endpoint=https%3A%2F%2Fx&b=2", "endpoint")
	assert.True(t, ok)
	assert.Equal(t, "https%3A%2F%2Fx", v)

	_, ok = rawQueryParam("a=1", "endpoint")
	assert.False(t, ok)
}
