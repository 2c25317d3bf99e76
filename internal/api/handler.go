package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinic-reservation-backend/internal/mw"
	"clinic-reservation-backend/internal/notification"
	"clinic-reservation-backend/internal/store"
)

// Notifier queues push notices for students.
type Notifier interface {
	Dispatch(n notification.Notice) bool
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store          store.Store
	webpush        *webpush.Options
	cache          *cache.Cache
	notifier       Notifier
	reserveLimiter *mw.KeyedRateLimiter
	metrics        *Metrics
	now            func() time.Time
	log            *zap.Logger

	defaultCapacity int
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		webpush: webpushOptions,
		now:     time.Now,
		log:     zap.NewNop(),

		defaultCapacity: 6,
	}
}

// flush drops cached schedule responses after a change.
func (h *Handler) flush() {
	if h.cache != nil {
		h.cache.Flush()
	}
}

func (h *Handler) notify(n notification.Notice) {
	if h.notifier != nil {
		h.notifier.Dispatch(n)
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
}

// writeStoreError translates store errors to the public error codes.
func (h *Handler) writeStoreError(c *gin.Context, err error) {
	var blocked *store.NoShowBlockedError
	var occupied *store.OccupiedError

	switch {
	case errors.As(err, &blocked):
		c.JSON(http.StatusForbidden, gin.H{
			"error":         "no_show_blocked",
			"message":       "노쇼 누적으로 예약이 제한되었습니다.",
			"no_show_count": blocked.NoShowCount,
		})
	case errors.As(err, &occupied):
		c.JSON(http.StatusConflict, gin.H{
			"error":         "occupied",
			"message":       "클리닉 정원이 가득 찼습니다.",
			"current_count": occupied.CurrentCount,
			"capacity":      occupied.Capacity,
		})
	case errors.Is(err, store.ErrReservationClosed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "reservation_closed", "message": "예약이 마감된 클리닉입니다."})
	case errors.Is(err, store.ErrAlreadyReserved):
		c.JSON(http.StatusBadRequest, gin.H{"error": "already_reserved", "message": "이미 같은 날 예약한 클리닉이 있습니다."})
	case errors.Is(err, store.ErrNotReserved):
		c.JSON(http.StatusBadRequest, gin.H{"error": "not_reserved", "message": "예약 내역이 없습니다."})
	case errors.Is(err, store.ErrSlotOutsideGrid):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_slot", "message": err.Error()})
	case errors.Is(err, store.ErrCapacityBelowReserved):
		c.JSON(http.StatusConflict, gin.H{"error": "capacity_below_reserved", "message": err.Error()})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate", "message": err.Error()})
	case errors.Is(err, store.ErrStudentNotFound),
		errors.Is(err, store.ErrClinicNotFound),
		errors.Is(err, store.ErrReservationNotFound),
		errors.Is(err, store.ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": err.Error()})
	default:
		h.log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "internal server error"})
	}
}
