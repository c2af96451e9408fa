package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ReportTTL is how long a fetched report may be served from cache.
const ReportTTL = 1800 * time.Second

type ReportKind string

const (
	KindReviews    ReportKind = "reviews"
	KindStatistics ReportKind = "statistics"
	KindFeatures   ReportKind = "features"
	KindStrengths  ReportKind = "strengths"
	KindTrends     ReportKind = "trends"
)

// AllKinds lists every report kind in endpoint order.
var AllKinds = []ReportKind{KindReviews, KindStatistics, KindFeatures, KindStrengths, KindTrends}

func (k ReportKind) String() string { return string(k) }

func (k ReportKind) Valid() bool {
	switch k {
	case KindReviews, KindStatistics, KindFeatures, KindStrengths, KindTrends:
		return true
	}
	return false
}

func ParseKind(s string) (ReportKind, error) {
	k := ReportKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown report kind %q", s)
	}
	return k, nil
}

// Report is a validated analytics payload. Only values produced by the
// schema package (or decoded from a cache that stored such values) satisfy it.
type Report interface {
	Kind() ReportKind
}

type Review struct {
	ID     string  `json:"id" validate:"required"`
	Text   string  `json:"text"`
	Rating float64 `json:"rating" validate:"gte=0,lte=5"`
	Date   string  `json:"date"`
	Author string  `json:"author"`
}

type Month struct {
	Month string `json:"month"`
	Count int    `json:"count" validate:"gte=0"`
}

type RatingDistribution struct {
	Rating int `json:"rating" validate:"gte=1,lte=5"`
	Count  int `json:"count" validate:"gte=0"`
}

type ReviewStatistics struct {
	TotalReviews        int                  `json:"totalReviews" validate:"gte=0"`
	AverageRating       float64              `json:"averageRating" validate:"gte=0,lte=5"`
	ReviewsOverTime     []Month              `json:"reviewsOverTime" validate:"dive"`
	RatingsDistribution []RatingDistribution `json:"ratingsDistribution" validate:"dive"`
}

type FeatureRequest struct {
	Feature    string  `json:"feature"`
	Count      int     `json:"count" validate:"gte=0"`
	Percentage float64 `json:"percentage" validate:"gte=0,lte=100"`
}

type Strength struct {
	Strength   string  `json:"strength"`
	Count      int     `json:"count" validate:"gte=0"`
	Percentage float64 `json:"percentage" validate:"gte=0,lte=100"`
}

type DataPoint struct {
	Name string `json:"name"`
	Data []int  `json:"data"`
}

type TrendAnalysis struct {
	Years           []string    `json:"years"`
	Ratings         []float64   `json:"ratings"`
	Strengths       []DataPoint `json:"strengths"`
	FeatureRequests []DataPoint `json:"featureRequests"`
}

type (
	Reviews         []Review
	FeatureRequests []FeatureRequest
	Strengths       []Strength
)

func (Reviews) Kind() ReportKind          { return KindReviews }
func (ReviewStatistics) Kind() ReportKind { return KindStatistics }
func (FeatureRequests) Kind() ReportKind  { return KindFeatures }
func (Strengths) Kind() ReportKind        { return KindStrengths }
func (TrendAnalysis) Kind() ReportKind    { return KindTrends }

// CacheEntry is one report slot. Entries are replaced whole, never patched.
type CacheEntry struct {
	Kind      ReportKind
	Payload   Report
	FetchedAt time.Time
}

// FreshAt reports whether the entry may still be served at now.
func (e CacheEntry) FreshAt(now time.Time, ttl time.Duration) bool {
	return e.Payload != nil && now.Sub(e.FetchedAt) < ttl
}

// DecodeReport unmarshals a previously validated payload back into the typed
// report for kind. It is meant for cache backends that serialise entries.
func DecodeReport(kind ReportKind, raw []byte) (Report, error) {
	var (
		out Report
		err error
	)
	switch kind {
	case KindReviews:
		var v Reviews
		err = json.Unmarshal(raw, &v)
		out = v
	case KindStatistics:
		var v ReviewStatistics
		err = json.Unmarshal(raw, &v)
		out = v
	case KindFeatures:
		var v FeatureRequests
		err = json.Unmarshal(raw, &v)
		out = v
	case KindStrengths:
		var v Strengths
		err = json.Unmarshal(raw, &v)
		out = v
	case KindTrends:
		var v TrendAnalysis
		err = json.Unmarshal(raw, &v)
		out = v
	default:
		return nil, fmt.Errorf("unknown report kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s report: %w", kind, err)
	}
	return out, nil
}
