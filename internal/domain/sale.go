package domain

import (
	"regexp"
	"time"
)

// SaleStatus is the derived state of a sale relative to wall-clock time.
type SaleStatus string

const (
	SaleUpcoming SaleStatus = "UPCOMING"
	SaleActive   SaleStatus = "ACTIVE"
	SaleEnded    SaleStatus = "ENDED"
	SaleNotFound SaleStatus = "NOT_FOUND"
)

// Sale is read-mostly from the admission core's perspective; it is
// created by an administrative path out of scope for this package.
type Sale struct {
	ID         string
	Name       string
	StartTime  time.Time
	EndTime    time.Time
	TotalStock int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Status computes the sale's derived state for a given instant.
func (s Sale) Status(now time.Time) SaleStatus {
	switch {
	case now.Before(s.StartTime):
		return SaleUpcoming
	case now.After(s.EndTime):
		return SaleEnded
	default:
		return SaleActive
	}
}

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,255}$`)

// ValidUserID enforces the user ID charset/length restriction. The
// surrounding HTTP collaborator is expected to validate too; the core
// re-checks because it is the correctness boundary for FC/DOL keys.
func ValidUserID(userID string) bool {
	return userIDPattern.MatchString(userID)
}
