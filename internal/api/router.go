package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"clinic-reservation-backend/config"
	"clinic-reservation-backend/internal/mw"
	"clinic-reservation-backend/internal/store"
)

// Options carries everything the router needs besides the store.
type Options struct {
	Server   config.ServerConfig
	Webpush  *webpush.Options
	Notifier Notifier
	Location *time.Location
	Logger   *zap.Logger
	// Registry defaults to a fresh registry with the Go and process collectors.
	Registry *prometheus.Registry
	// Cache holds cached GET responses. Sharing it lets the caller flush
	// it, e.g. after the weekly reset. Defaults to NewResponseCache.
	Cache *cache.Cache
	// DefaultCapacity applies to clinics created without a capacity.
	DefaultCapacity int
	Now             func() time.Time
}

// NewResponseCache returns the store for cached GET responses. A ttl of
// zero means 30 seconds.
func NewResponseCache(ttl time.Duration) *cache.Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return cache.New(ttl, 2*ttl)
}

const defaultCacheTTL = 30 * time.Second

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, opts Options) *gin.Engine {
	registerValidations()

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
		opts.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.Logger(opts.Logger))

	cacheTTL := opts.Server.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	if opts.Cache == nil {
		opts.Cache = NewResponseCache(cacheTTL)
	}
	caching := mw.Cache(opts.Cache, cacheTTL)

	if opts.DefaultCapacity <= 0 {
		opts.DefaultCapacity = 6
	}

	reservePerMinute := opts.Server.ReserveLimitPerMinute
	if reservePerMinute <= 0 {
		reservePerMinute = 5
	}

	loc, now := opts.Location, opts.Now
	handler := NewHandler(s, opts.Webpush)
	handler.cache = opts.Cache
	handler.defaultCapacity = opts.DefaultCapacity
	handler.notifier = opts.Notifier
	handler.reserveLimiter = mw.NewKeyedRateLimiter(rate.Every(time.Minute/time.Duration(reservePerMinute)), reservePerMinute)
	handler.metrics = NewMetrics(opts.Registry)
	handler.now = func() time.Time { return now().In(loc) }
	handler.log = opts.Logger

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))

	perSec, burst := opts.Server.RateLimitPerSec, opts.Server.RateLimitBurst
	if perSec <= 0 {
		perSec = 10
	}
	if burst <= 0 {
		burst = 5
	}

	// API group
	api := r.Group("/api")
	api.Use(mw.RateLimiter(rate.Limit(perSec), burst))
	{
		api.GET("/health", handler.Health)

		api.GET("/clinics", handler.ListClinics)
		api.POST("/clinics", handler.CreateClinic)
		api.PATCH("/clinics/:id", handler.UpdateClinic)
		api.GET("/clinics/weekly_schedule", caching, handler.GetWeeklySchedule)
		api.POST("/clinics/reserve", handler.Reserve)
		api.POST("/clinics/cancel", handler.Cancel)

		api.GET("/clinic-attendances", handler.ListAttendance)
		api.PATCH("/clinic-attendances/:id", handler.UpdateAttendance)

		api.GET("/students", handler.ListStudents)
		api.POST("/students", handler.UpsertStudents)
		api.PATCH("/students/:id/flags", handler.UpdateStudentFlag)
		api.POST("/students/reset_no_show", handler.ResetNoShow)

		api.POST("/admin/reset_week", handler.ResetWeek)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
