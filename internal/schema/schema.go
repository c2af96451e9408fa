// Package schema turns a generic JSON value into one of the typed reports.
//
// Conversion is all-or-nothing: a value either converts completely into the
// report shape for its kind or is rejected with a *domain.ValidationError.
// The only coercion is an integer review id becoming its decimal string.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"review_insights/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate converts value, as produced by the extract package, into the
// report for kind.
func Validate(kind domain.ReportKind, value any) (domain.Report, error) {
	var (
		r   domain.Report
		err error
	)
	switch kind {
	case domain.KindReviews:
		r, err = reviews(value)
	case domain.KindStatistics:
		r, err = statistics(value)
	case domain.KindFeatures:
		r, err = features(value)
	case domain.KindStrengths:
		r, err = strengths(value)
	case domain.KindTrends:
		r, err = trends(value)
	default:
		err = fmt.Errorf("unknown report kind %q", kind)
	}
	if err != nil {
		return nil, &domain.ValidationError{Kind: kind, Reason: err.Error(), Payload: value}
	}
	return r, nil
}

func reviews(v any) (domain.Reviews, error) {
	items, err := asList(v, "$")
	if err != nil {
		return nil, err
	}
	out := make(domain.Reviews, 0, len(items))
	for i, it := range items {
		o, err := asObject(it, fmt.Sprintf("$[%d]", i))
		if err != nil {
			return nil, err
		}
		var r domain.Review
		if r.ID, err = o.id("id"); err != nil {
			return nil, err
		}
		if r.Text, err = o.str("text"); err != nil {
			return nil, err
		}
		if r.Rating, err = o.number("rating"); err != nil {
			return nil, err
		}
		if r.Date, err = o.str("date"); err != nil {
			return nil, err
		}
		if r.Author, err = o.str("author"); err != nil {
			return nil, err
		}
		if err := check(r, o.path); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func statistics(v any) (domain.ReviewStatistics, error) {
	var s domain.ReviewStatistics
	o, err := asObject(v, "$")
	if err != nil {
		return s, err
	}
	if s.TotalReviews, err = o.integer("totalReviews"); err != nil {
		return s, err
	}
	if s.AverageRating, err = o.number("averageRating"); err != nil {
		return s, err
	}

	months, err := o.list("reviewsOverTime")
	if err != nil {
		return s, err
	}
	s.ReviewsOverTime = make([]domain.Month, 0, len(months))
	for i, it := range months {
		m, err := asObject(it, fmt.Sprintf("%s.reviewsOverTime[%d]", o.path, i))
		if err != nil {
			return s, err
		}
		var mo domain.Month
		if mo.Month, err = m.str("month"); err != nil {
			return s, err
		}
		if mo.Count, err = m.integer("count"); err != nil {
			return s, err
		}
		s.ReviewsOverTime = append(s.ReviewsOverTime, mo)
	}

	dist, err := o.list("ratingsDistribution")
	if err != nil {
		return s, err
	}
	s.RatingsDistribution = make([]domain.RatingDistribution, 0, len(dist))
	for i, it := range dist {
		d, err := asObject(it, fmt.Sprintf("%s.ratingsDistribution[%d]", o.path, i))
		if err != nil {
			return s, err
		}
		var rd domain.RatingDistribution
		if rd.Rating, err = d.integer("rating"); err != nil {
			return s, err
		}
		if rd.Count, err = d.integer("count"); err != nil {
			return s, err
		}
		s.RatingsDistribution = append(s.RatingsDistribution, rd)
	}

	return s, check(s, o.path)
}

func features(v any) (domain.FeatureRequests, error) {
	items, err := asList(v, "$")
	if err != nil {
		return nil, err
	}
	out := make(domain.FeatureRequests, 0, len(items))
	for i, it := range items {
		o, err := asObject(it, fmt.Sprintf("$[%d]", i))
		if err != nil {
			return nil, err
		}
		var f domain.FeatureRequest
		if f.Feature, err = o.str("feature"); err != nil {
			return nil, err
		}
		if f.Count, f.Percentage, err = o.share(); err != nil {
			return nil, err
		}
		if err := check(f, o.path); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func strengths(v any) (domain.Strengths, error) {
	items, err := asList(v, "$")
	if err != nil {
		return nil, err
	}
	out := make(domain.Strengths, 0, len(items))
	for i, it := range items {
		o, err := asObject(it, fmt.Sprintf("$[%d]", i))
		if err != nil {
			return nil, err
		}
		var s domain.Strength
		if s.Strength, err = o.str("strength"); err != nil {
			return nil, err
		}
		if s.Count, s.Percentage, err = o.share(); err != nil {
			return nil, err
		}
		if err := check(s, o.path); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func trends(v any) (domain.TrendAnalysis, error) {
	var t domain.TrendAnalysis
	o, err := asObject(v, "$")
	if err != nil {
		return t, err
	}

	years, err := o.list("years")
	if err != nil {
		return t, err
	}
	t.Years = make([]string, 0, len(years))
	for i, y := range years {
		s, ok := y.(string)
		if !ok {
			return t, fmt.Errorf("%s.years[%d]: want string, got %s", o.path, i, typeName(y))
		}
		t.Years = append(t.Years, s)
	}

	ratings, err := o.list("ratings")
	if err != nil {
		return t, err
	}
	t.Ratings = make([]float64, 0, len(ratings))
	for i, r := range ratings {
		f, err := toNumber(r, fmt.Sprintf("%s.ratings[%d]", o.path, i))
		if err != nil {
			return t, err
		}
		t.Ratings = append(t.Ratings, f)
	}

	if t.Strengths, err = o.dataPoints("strengths"); err != nil {
		return t, err
	}
	if t.FeatureRequests, err = o.dataPoints("featureRequests"); err != nil {
		return t, err
	}
	return t, nil
}

// ---- generic value walking ----

type object struct {
	path string
	m    map[string]any
}

func asObject(v any, path string) (object, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return object{}, fmt.Errorf("%s: want object, got %s", path, typeName(v))
	}
	return object{path: path, m: m}, nil
}

func asList(v any, path string) ([]any, error) {
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: want array, got %s", path, typeName(v))
	}
	return l, nil
}

func (o object) field(key string) (any, string, error) {
	p := o.path + "." + key
	v, ok := o.m[key]
	if !ok {
		return nil, p, fmt.Errorf("%s: required field missing", p)
	}
	return v, p, nil
}

func (o object) str(key string) (string, error) {
	v, p, err := o.field(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: want string, got %s", p, typeName(v))
	}
	return s, nil
}

// id accepts a string or an integral number, which it renders in decimal.
func (o object) id(key string) (string, error) {
	v, p, err := o.field(key)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return fmt.Sprintf("%d", n), nil
		}
		if f, err := t.Float64(); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
			return fmt.Sprintf("%.0f", f), nil
		}
		return "", fmt.Errorf("%s: %s is not an integer", p, t)
	}
	return "", fmt.Errorf("%s: want string or integer, got %s", p, typeName(v))
}

func (o object) number(key string) (float64, error) {
	v, p, err := o.field(key)
	if err != nil {
		return 0, err
	}
	return toNumber(v, p)
}

func (o object) integer(key string) (int, error) {
	v, p, err := o.field(key)
	if err != nil {
		return 0, err
	}
	n, err := toInteger(v, p)
	return int(n), err
}

func (o object) list(key string) ([]any, error) {
	v, p, err := o.field(key)
	if err != nil {
		return nil, err
	}
	return asList(v, p)
}

// share reads the count/percentage pair common to features and strengths.
func (o object) share() (int, float64, error) {
	c, err := o.integer("count")
	if err != nil {
		return 0, 0, err
	}
	p, err := o.number("percentage")
	if err != nil {
		return 0, 0, err
	}
	return c, p, nil
}

func (o object) dataPoints(key string) ([]domain.DataPoint, error) {
	items, err := o.list(key)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DataPoint, 0, len(items))
	for i, it := range items {
		d, err := asObject(it, fmt.Sprintf("%s.%s[%d]", o.path, key, i))
		if err != nil {
			return nil, err
		}
		var dp domain.DataPoint
		if dp.Name, err = d.str("name"); err != nil {
			return nil, err
		}
		raw, err := d.list("data")
		if err != nil {
			return nil, err
		}
		dp.Data = make([]int, 0, len(raw))
		for j, x := range raw {
			n, err := toInteger(x, fmt.Sprintf("%s.data[%d]", d.path, j))
			if err != nil {
				return nil, err
			}
			dp.Data = append(dp.Data, int(n))
		}
		out = append(out, dp)
	}
	return out, nil
}

func toNumber(v any, path string) (float64, error) {
	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case float64:
		f = t
	default:
		return 0, fmt.Errorf("%s: want number, got %s", path, typeName(v))
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s: %q is not a finite number", path, fmt.Sprint(v))
	}
	return f, nil
}

// toInteger accepts numbers with no fractional part, so 3 and 3.0 both pass.
func toInteger(v any, path string) (int64, error) {
	f, err := toNumber(v, path)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("%s: %v is not an integer", path, f)
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	}
	return int64(f), nil
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

// check applies the range rules declared on the domain types.
func check(s any, path string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, fmt.Sprintf("%s: %s", path+fieldPath(fe), msgForTag(fe)))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// fieldPath drops the struct name prefix validator puts on namespaces.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i:]
	}
	return "." + fe.Field()
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s, got %v", fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s, got %v", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}
