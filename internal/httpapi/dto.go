package httpapi

import (
	"sort"
	"strings"
	"time"

	"github.com/rentabot/rentabot/internal/catalog"
	"github.com/rentabot/rentabot/internal/reservation"
)

// ResourceDTO is the wire shape for a resource: hyphenated lock field
// names, per spec §6 "Wire shape notes".
type ResourceDTO struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Endpoint        string `json:"endpoint"`
	Tags            string `json:"tags"`
	MaxLockDuration int    `json:"max-lock-duration"`
	LockToken       string `json:"lock-token"`
	LockDetails     string `json:"lock-details"`
	LockAcquiredAt  string `json:"lock-acquired-at,omitempty"`
	LockExpiresAt   string `json:"lock-expires-at,omitempty"`
}

func newResourceDTO(r catalog.Resource) ResourceDTO {
	dto := ResourceDTO{
		ID:              r.ID,
		Name:            r.Name,
		Description:     r.Description,
		Endpoint:        r.Endpoint,
		Tags:            r.TagsRaw,
		MaxLockDuration: int(r.MaxLockDuration.Seconds()),
		LockToken:       r.LockToken,
		LockDetails:     r.LockDetails,
	}
	if r.Locked() {
		dto.LockAcquiredAt = isoUTC(r.LockAcquiredAt)
		dto.LockExpiresAt = isoUTC(r.LockExpiresAt)
	}
	return dto
}

// ReservationDTO is the wire shape for a reservation: underscore field
// names, per spec §6 "Wire shape notes".
type ReservationDTO struct {
	ReservationID   string   `json:"reservation_id"`
	Tags            string   `json:"tags"`
	Quantity        int      `json:"quantity"`
	TTL             int      `json:"ttl"`
	Status          string   `json:"status"`
	CreatedAt       string   `json:"created_at"`
	ExpiresAt       string   `json:"expires_at"`
	FulfilledAt     string   `json:"fulfilled_at,omitempty"`
	ClaimExpiresAt  string   `json:"claim_expires_at,omitempty"`
	ClaimedAt       string   `json:"claimed_at,omitempty"`
	ResourceIDs     []int    `json:"resource_ids,omitempty"`
	LockTokens      []string `json:"lock_tokens,omitempty"`
	PositionInQueue *int     `json:"position_in_queue,omitempty"`
}

func newReservationDTO(entry reservation.Entry) ReservationDTO {
	res := entry.Reservation
	dto := ReservationDTO{
		ReservationID: res.ID,
		Tags:          joinTags(res.Tags),
		Quantity:      res.Quantity,
		TTL:           int(res.TTL.Seconds()),
		Status:        string(res.Status),
		CreatedAt:     isoUTC(res.CreatedAt),
		ExpiresAt:     isoUTC(res.ExpiresAt),
		ResourceIDs:   res.ResourceIDs,
		LockTokens:    res.LockTokens,
	}
	if res.Status == catalog.StatusPending {
		pos := entry.Position
		dto.PositionInQueue = &pos
	}
	if !res.FulfilledAt.IsZero() {
		dto.FulfilledAt = isoUTC(res.FulfilledAt)
		dto.ClaimExpiresAt = isoUTC(res.ClaimExpiresAt)
	}
	if !res.ClaimedAt.IsZero() {
		dto.ClaimedAt = isoUTC(res.ClaimedAt)
	}
	return dto
}

func isoUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func joinTags(tags map[string]struct{}) string {
	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}
