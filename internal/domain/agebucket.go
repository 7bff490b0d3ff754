package domain

import (
	"fmt"
	"time"
)

// Bucket is the resale window a lead occupies, derived from its age in whole
// 24-hour days. A lead younger than 90 days has no bucket and is not
// sellable. Buckets only move forward as time advances.
type Bucket string

const (
	BucketMonth3To5   Bucket = "MONTH_3_TO_5"   // age_days in [90, 179]
	BucketMonth6To8   Bucket = "MONTH_6_TO_8"   // age_days in [180, 269]
	BucketMonth9To11  Bucket = "MONTH_9_TO_11"  // age_days in [270, 359]
	BucketMonth12To23 Bucket = "MONTH_12_TO_23" // age_days in [360, 719]
	BucketMonth24Plus Bucket = "MONTH_24_PLUS"  // age_days >= 720
)

var bucketOrder = [...]Bucket{
	BucketMonth3To5,
	BucketMonth6To8,
	BucketMonth9To11,
	BucketMonth12To23,
	BucketMonth24Plus,
}

// Buckets returns all buckets in ascending age order.
func Buckets() []Bucket {
	out := make([]Bucket, len(bucketOrder))
	copy(out, bucketOrder[:])
	return out
}

func (b Bucket) Valid() bool {
	for _, known := range bucketOrder {
		if b == known {
			return true
		}
	}
	return false
}

// Ordinal returns the bucket's position in ascending age order, or -1 for an
// unknown bucket.
func (b Bucket) Ordinal() int {
	for i, known := range bucketOrder {
		if b == known {
			return i
		}
	}
	return -1
}

// RequireUTC rejects any instant that is not timezone-normalized to UTC
// (offset 0). Non-UTC inputs are always a caller bug.
func RequireUTC(name string, t time.Time) error {
	if _, offset := t.Zone(); offset != 0 {
		return fmt.Errorf("%s: %w", name, ErrInvalidTimestamp)
	}
	return nil
}

// AgeDays computes a lead's age in whole 24-hour days:
// floor((asOf - createdAt) / 24h). Partial days are never rounded up.
func AgeDays(createdAt, asOf time.Time) (int, error) {
	if err := RequireUTC("created_at", createdAt); err != nil {
		return 0, err
	}
	if err := RequireUTC("as_of", asOf); err != nil {
		return 0, err
	}
	if asOf.Before(createdAt) {
		return 0, fmt.Errorf("as_of before created_at: %w", ErrInvalidTimestamp)
	}
	return int(asOf.Sub(createdAt) / (24 * time.Hour)), nil
}

// AgeMonths uses fixed 30-day months: floor(age_days / 30). No calendar
// arithmetic.
func AgeMonths(createdAt, asOf time.Time) (int, error) {
	days, err := AgeDays(createdAt, asOf)
	if err != nil {
		return 0, err
	}
	return days / 30, nil
}

// BucketForAgeDays maps an age in days to its bucket. ok is false when the
// age falls into no bucket (under 90 days, or a negative age).
func BucketForAgeDays(ageDays int) (Bucket, bool) {
	switch {
	case ageDays < 90:
		return "", false
	case ageDays <= 179:
		return BucketMonth3To5, true
	case ageDays <= 269:
		return BucketMonth6To8, true
	case ageDays <= 359:
		return BucketMonth9To11, true
	case ageDays <= 719:
		return BucketMonth12To23, true
	default:
		return BucketMonth24Plus, true
	}
}

// ResolveBucket derives the bucket a lead occupies at asOf. ok is false when
// the lead is not yet sellable. Pure and re-evaluatable: for a fixed
// createdAt the result is non-decreasing in asOf.
func ResolveBucket(createdAt, asOf time.Time) (Bucket, bool, error) {
	days, err := AgeDays(createdAt, asOf)
	if err != nil {
		return "", false, err
	}
	b, ok := BucketForAgeDays(days)
	return b, ok, nil
}
