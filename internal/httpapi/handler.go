// Package httpapi is the thin HTTP translation layer over the locking and
// reservation engine (spec §6), grounded on
// engine/auth/router/{register.go,handler.go}'s gin.RouterGroup +
// Handler-struct-holding-the-core-dependencies shape.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rentabot/rentabot/internal/apperrors"
	"github.com/rentabot/rentabot/internal/applog"
	"github.com/rentabot/rentabot/internal/batchlock"
	"github.com/rentabot/rentabot/internal/catalog"
	"github.com/rentabot/rentabot/internal/lockmgr"
	"github.com/rentabot/rentabot/internal/reservation"
)

// Handler holds references to the core engine components a request
// handler needs, mirroring engine/auth/router.Handler's factory field.
type Handler struct {
	store    *catalog.Store
	locks    *lockmgr.Manager
	batch    *batchlock.Locker
	reserves *reservation.Manager
}

// NewHandler wires a Handler to the engine's core components.
func NewHandler(store *catalog.Store, locks *lockmgr.Manager, batch *batchlock.Locker, reserves *reservation.Manager) *Handler {
	return &Handler{store: store, locks: locks, batch: batch, reserves: reserves}
}

// ListResources handles GET /resources.
func (h *Handler) ListResources(c *gin.Context) {
	all := h.store.ListResources()
	dtos := make([]ResourceDTO, 0, len(all))
	for _, r := range all {
		dtos = append(dtos, newResourceDTO(r))
	}
	c.JSON(http.StatusOK, gin.H{"resources": dtos})
}

// GetResource handles GET /resources/{id}.
func (h *Handler) GetResource(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	r, ok := h.store.GetResource(id)
	if !ok {
		writeError(c, apperrors.New(apperrors.ResourceNotFound, "Resource not found",
			apperrors.Details("resource_id", id)))
		return
	}
	c.JSON(http.StatusOK, gin.H{"resource": newResourceDTO(r)})
}

// LockResource handles POST /resources/{id}/lock.
func (h *Handler) LockResource(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	ttl, ok := bindTTL(c)
	if !ok {
		return
	}
	token, r, err := h.locks.Lock(id, ttl)
	if err != nil {
		writeError(c, err)
		return
	}
	writeLocked(c, token, r)
}

// UnlockResource handles POST /resources/{id}/unlock.
func (h *Handler) UnlockResource(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	token := c.Query("lock-token")
	if err := h.locks.Unlock(id, token); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Resource unlocked"})
}

// ExtendResource handles POST /resources/{id}/extend.
func (h *Handler) ExtendResource(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	token := c.Query("lock-token")
	additional, err := strconv.Atoi(c.Query("additional-ttl"))
	if err != nil || additional <= 0 {
		writeError(c, apperrors.New(apperrors.InvalidTTL, "additional-ttl must be a positive integer of seconds", nil))
		return
	}
	r, lockErr := h.locks.Extend(id, token, time.Duration(additional)*time.Second)
	if lockErr != nil {
		writeError(c, lockErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":             "Lock extended",
		"new-expires-at":      isoUTC(r.LockExpiresAt),
		"total-lock-duration": int(r.LockExpiresAt.Sub(r.LockAcquiredAt).Seconds()),
	})
}

// LockByCriterion handles POST /resources/lock, dispatching on whichever
// of id|name|tag the caller supplied (spec §6).
func (h *Handler) LockByCriterion(c *gin.Context) {
	ttl, ok := bindTTL(c)
	if !ok {
		return
	}

	if idStr := c.Query("id"); idStr != "" {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			writeError(c, apperrors.New(apperrors.InvalidCriterion, "id must be an integer", nil))
			return
		}
		token, r, lockErr := h.locks.Lock(id, ttl)
		if lockErr != nil {
			writeError(c, lockErr)
			return
		}
		writeLocked(c, token, r)
		return
	}

	if name := c.Query("name"); name != "" {
		r, found := h.store.GetResourceByName(name)
		if !found {
			writeError(c, apperrors.New(apperrors.ResourceNotFound, "Resource not found",
				apperrors.Details("name", name)))
			return
		}
		token, locked, lockErr := h.locks.Lock(r.ID, ttl)
		if lockErr != nil {
			writeError(c, lockErr)
			return
		}
		writeLocked(c, token, locked)
		return
	}

	if tagsQuery, ok := c.GetQueryArray("tag"); ok && len(tagsQuery) > 0 {
		required := make(map[string]struct{}, len(tagsQuery))
		for _, t := range tagsQuery {
			required[t] = struct{}{}
		}
		locked, lockErr := h.batch.LockByTags(required, 1, ttl)
		if lockErr != nil {
			writeError(c, lockErr)
			return
		}
		writeLocked(c, locked[0].LockToken, locked[0])
		return
	}

	writeError(c, apperrors.New(apperrors.InvalidCriterion,
		"One of id, name, or tag must be supplied", nil))
}

func writeLocked(c *gin.Context, token string, r catalog.Resource) {
	c.JSON(http.StatusOK, gin.H{
		"message":    "Resource locked",
		"lock-token": token,
		"resource":   newResourceDTO(r),
		"locked-at":  isoUTC(r.LockAcquiredAt),
		"expires-at": isoUTC(r.LockExpiresAt),
	})
}

// CreateReservation handles POST /reservations.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "details": err.Error()})
		return
	}
	maxWait := defaultMaxWaitTime
	if req.MaxWaitTime > 0 {
		maxWait = req.MaxWaitTime
	}
	ttl := defaultTTL
	if req.TTL > 0 {
		ttl = req.TTL
	}
	res, err := h.reserves.Create(req.Tags, req.Quantity, time.Duration(maxWait)*time.Second, time.Duration(ttl)*time.Second)
	if err != nil {
		writeError(c, err)
		return
	}
	pos := h.store.PendingQueuePosition(res.ID)
	c.JSON(http.StatusCreated, newReservationDTO(reservation.Entry{Reservation: res, Position: pos}))
}

// ListReservations handles GET /reservations.
func (h *Handler) ListReservations(c *gin.Context) {
	entries := h.reserves.List()
	dtos := make([]ReservationDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, newReservationDTO(e))
	}
	c.JSON(http.StatusOK, gin.H{"reservations": dtos})
}

// GetReservation handles GET /reservations/{id}.
func (h *Handler) GetReservation(c *gin.Context) {
	id := c.Param("id")
	res, pos, err := h.reserves.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReservationDTO(reservation.Entry{Reservation: res, Position: pos}))
}

// ClaimReservation handles POST /reservations/{id}/claim.
func (h *Handler) ClaimReservation(c *gin.Context) {
	id := c.Param("id")
	res, err := h.reserves.Claim(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReservationDTO(reservation.Entry{Reservation: res}))
}

// CancelReservation handles DELETE /reservations/{id}.
func (h *Handler) CancelReservation(c *gin.Context) {
	id := c.Param("id")
	if err := h.reserves.Cancel(id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readiness.
func (h *Handler) Readiness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func parseIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Resource not found", "id": c.Param("id")})
		return 0, false
	}
	return id, true
}

func bindTTL(c *gin.Context) (time.Duration, bool) {
	var req LockRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "details": err.Error()})
			return 0, false
		}
	}
	ttl := defaultTTL
	if req.TTL > 0 {
		ttl = req.TTL
	}
	return time.Duration(ttl) * time.Second, true
}

// writeError centralizes error-kind-to-status-code translation (spec §7),
// generalizing the teacher's per-handler errors.As(err, &coreErr) switch
// (engine/auth/router/handler.go) into one shared mapper.
func writeError(c *gin.Context, err error) {
	logger := applog.FromContext(c.Request.Context())
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		logger.Error("unhandled error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}
	status := statusFor(appErr.Kind)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "kind", appErr.Kind, "error", appErr.Message)
	}
	c.JSON(status, appErr.AsMap())
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.ResourceNotFound, apperrors.ReservationNotFound:
		return http.StatusNotFound
	case apperrors.ResourceAlreadyLocked, apperrors.ResourceAlreadyUnlocked, apperrors.InvalidLockToken:
		return http.StatusForbidden
	case apperrors.InvalidTTL, apperrors.InvalidReservationTags, apperrors.InvalidCriterion:
		return http.StatusBadRequest
	case apperrors.InsufficientResources, apperrors.ReservationNotFulfilled, apperrors.ReservationCannotBeCancelled:
		return http.StatusConflict
	case apperrors.ReservationClaimExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}
