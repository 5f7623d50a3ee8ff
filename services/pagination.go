package services

import (
	"math"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a validated 1-based page request.
type Page struct {
	Page  int64
	Limit int64
}

// ParsePage reads raw query values. Missing, non-numeric or non-positive
// values fall back to the defaults and the limit is capped at MaxLimit.
// The page is clamped so that Skip stays representable.
func ParsePage(rawPage, rawLimit string) Page {
	p := Page{Page: DefaultPage, Limit: DefaultLimit}
	if n, err := strconv.ParseInt(rawPage, 10, 64); err == nil && n >= 1 {
		p.Page = n
	}
	if n, err := strconv.ParseInt(rawLimit, 10, 64); err == nil && n >= 1 {
		p.Limit = min(n, MaxLimit)
	}
	if maxPage := math.MaxInt64 / p.Limit; p.Page > maxPage {
		p.Page = maxPage
	}
	return p
}

func (p Page) Skip() int64 {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt64/p.Limit {
		return math.MaxInt64
	}
	return (p.Page - 1) * p.Limit
}

func TotalPages(total, limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
