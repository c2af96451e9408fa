package schema_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review_insights/internal/domain"
	"review_insights/internal/extract"
	"review_insights/internal/schema"
)

func parse(t *testing.T, s string) any {
	t.Helper()
	v, err := extract.JSON(s)
	require.NoError(t, err)
	return v
}

func invalid(t *testing.T, kind domain.ReportKind, s string) *domain.ValidationError {
	t.Helper()
	v := parse(t, s)
	r, err := schema.Validate(kind, v)
	require.Error(t, err)
	assert.Nil(t, r)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "want *ValidationError, got %T", err)
	assert.Equal(t, kind, ve.Kind)
	assert.Equal(t, v, ve.Payload)
	return ve
}

func TestReviews_CoercesIntegerID(t *testing.T) {
	r, err := schema.Validate(domain.KindReviews, parse(t,
		`[{"id":1,"text":"Good","rating":5,"date":"2024-01-01","author":"A"},
		  {"id":"abc","text":"Ok","rating":3.5,"date":"2024-02-01","author":"B"}]`))
	require.NoError(t, err)
	assert.Equal(t, domain.Reviews{
		{ID: "1", Text: "Good", Rating: 5, Date: "2024-01-01", Author: "A"},
		{ID: "abc", Text: "Ok", Rating: 3.5, Date: "2024-02-01", Author: "B"},
	}, r)
}

func TestReviews_Rejects(t *testing.T) {
	tests := map[string]struct {
		body   string
		reason string
	}{
		"rating above range":   {`[{"id":"1","text":"t","rating":5.5,"date":"d","author":"a"}]`, "$[0].rating"},
		"rating below range":   {`[{"id":"1","text":"t","rating":-1,"date":"d","author":"a"}]`, "$[0].rating"},
		"rating as string":     {`[{"id":"1","text":"t","rating":"5","date":"d","author":"a"}]`, "want number"},
		"fractional id":        {`[{"id":1.5,"text":"t","rating":5,"date":"d","author":"a"}]`, "not an integer"},
		"empty id":             {`[{"id":"","text":"t","rating":5,"date":"d","author":"a"}]`, "$[0].id"},
		"boolean id":           {`[{"id":true,"text":"t","rating":5,"date":"d","author":"a"}]`, "want string or integer"},
		"missing author":       {`[{"id":"1","text":"t","rating":5,"date":"d"}]`, "$[0].author: required field missing"},
		"text as number":       {`[{"id":"1","text":7,"rating":5,"date":"d","author":"a"}]`, "$[0].text: want string"},
		"null date":            {`[{"id":"1","text":"t","rating":5,"date":null,"author":"a"}]`, "got null"},
		"bare object":          {`{"id":"1","text":"t","rating":5,"date":"d","author":"a"}`, "want array"},
		"second item is wrong": {`[{"id":"1","text":"t","rating":5,"date":"d","author":"a"}, 3]`, "$[1]: want object"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ve := invalid(t, domain.KindReviews, tt.body)
			assert.Contains(t, ve.Reason, tt.reason)
		})
	}
}

func TestReviews_EmptyListSerialisesAsArray(t *testing.T) {
	r, err := schema.Validate(domain.KindReviews, parse(t, `[]`))
	require.NoError(t, err)
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(b))
}

const validStats = `{
	"totalReviews": 120,
	"averageRating": 4.7,
	"reviewsOverTime": [{"month": "Jan 2024", "count": 10}, {"month": "Feb 2024", "count": 12}],
	"ratingsDistribution": [{"rating": 5, "count": 100}, {"rating": 4, "count": 15}, {"rating": 1, "count": 5}]
}`

func TestStatistics_Valid(t *testing.T) {
	r, err := schema.Validate(domain.KindStatistics, parse(t, validStats))
	require.NoError(t, err)
	s, ok := r.(domain.ReviewStatistics)
	require.True(t, ok)
	assert.Equal(t, 120, s.TotalReviews)
	assert.InDelta(t, 4.7, s.AverageRating, 1e-9)
	assert.Equal(t, []domain.Month{{Month: "Jan 2024", Count: 10}, {Month: "Feb 2024", Count: 12}}, s.ReviewsOverTime)
	assert.Len(t, s.RatingsDistribution, 3)
}

func TestStatistics_AcceptsIntegralFloats(t *testing.T) {
	r, err := schema.Validate(domain.KindStatistics, parse(t,
		`{"totalReviews": 3.0, "averageRating": 4, "reviewsOverTime": [], "ratingsDistribution": []}`))
	require.NoError(t, err)
	assert.Equal(t, 3, r.(domain.ReviewStatistics).TotalReviews)
}

func TestStatistics_Rejects(t *testing.T) {
	tests := map[string]struct {
		body   string
		reason string
	}{
		"missing ratingsDistribution": {`{"totalReviews": 1, "averageRating": 4, "reviewsOverTime": []}`, "ratingsDistribution: required field missing"},
		"fractional total":            {`{"totalReviews": 1.5, "averageRating": 4, "reviewsOverTime": [], "ratingsDistribution": []}`, "not an integer"},
		"negative total":              {`{"totalReviews": -1, "averageRating": 4, "reviewsOverTime": [], "ratingsDistribution": []}`, "$.totalReviews"},
		"average above five":          {`{"totalReviews": 1, "averageRating": 7, "reviewsOverTime": [], "ratingsDistribution": []}`, "$.averageRating"},
		"star rating six":             {`{"totalReviews": 1, "averageRating": 4, "reviewsOverTime": [], "ratingsDistribution": [{"rating": 6, "count": 1}]}`, "$.ratingsDistribution[0].rating"},
		"star rating zero":            {`{"totalReviews": 1, "averageRating": 4, "reviewsOverTime": [], "ratingsDistribution": [{"rating": 0, "count": 1}]}`, "$.ratingsDistribution[0].rating"},
		"negative month count":        {`{"totalReviews": 1, "averageRating": 4, "reviewsOverTime": [{"month": "Jan", "count": -2}], "ratingsDistribution": []}`, "$.reviewsOverTime[0].count"},
		"month as number":             {`{"totalReviews": 1, "averageRating": 4, "reviewsOverTime": [{"month": 1, "count": 2}], "ratingsDistribution": []}`, "want string"},
		"series as object":            {`{"totalReviews": 1, "averageRating": 4, "reviewsOverTime": {}, "ratingsDistribution": []}`, "want array"},
		"array instead of object":     {`[` + validStats + `]`, "want object"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ve := invalid(t, domain.KindStatistics, tt.body)
			assert.Contains(t, ve.Reason, tt.reason)
		})
	}
}

func TestFeaturesAndStrengths(t *testing.T) {
	r, err := schema.Validate(domain.KindFeatures, parse(t,
		`[{"feature": "Mobile app", "count": 12, "percentage": 24.5}, {"feature": "More CR practice", "count": 0, "percentage": 0}]`))
	require.NoError(t, err)
	assert.Equal(t, domain.FeatureRequests{
		{Feature: "Mobile app", Count: 12, Percentage: 24.5},
		{Feature: "More CR practice", Count: 0, Percentage: 0},
	}, r)

	r, err = schema.Validate(domain.KindStrengths, parse(t,
		`[{"strength": "Structured verbal course", "count": 40, "percentage": 100}]`))
	require.NoError(t, err)
	assert.Equal(t, domain.Strengths{{Strength: "Structured verbal course", Count: 40, Percentage: 100}}, r)

	ve := invalid(t, domain.KindFeatures, `[{"feature": "x", "count": 1, "percentage": 120}]`)
	assert.Contains(t, ve.Reason, "$[0].percentage")

	ve = invalid(t, domain.KindFeatures, `[{"feature": "x", "count": -3, "percentage": 10}]`)
	assert.Contains(t, ve.Reason, "$[0].count")

	ve = invalid(t, domain.KindStrengths, `[{"feature": "wrong key", "count": 1, "percentage": 10}]`)
	assert.Contains(t, ve.Reason, "$[0].strength: required field missing")

	ve = invalid(t, domain.KindStrengths, `{"strength": "x", "count": 1, "percentage": 10}`)
	assert.Contains(t, ve.Reason, "want array")
}

func TestTrends(t *testing.T) {
	body := `{
		"years": ["2021", "2022"],
		"ratings": [4.5, 4.8],
		"strengths": [{"name": "Support", "data": [10, 14]}],
		"featureRequests": [{"name": "Mobile app", "data": [2, 5]}]
	}`
	r, err := schema.Validate(domain.KindTrends, parse(t, body))
	require.NoError(t, err)
	assert.Equal(t, domain.TrendAnalysis{
		Years:           []string{"2021", "2022"},
		Ratings:         []float64{4.5, 4.8},
		Strengths:       []domain.DataPoint{{Name: "Support", Data: []int{10, 14}}},
		FeatureRequests: []domain.DataPoint{{Name: "Mobile app", Data: []int{2, 5}}},
	}, r)

	tests := map[string]struct {
		body   string
		reason string
	}{
		"numeric year":      {`{"years": [2021], "ratings": [], "strengths": [], "featureRequests": []}`, "$.years[0]: want string"},
		"fractional data":   {`{"years": [], "ratings": [], "strengths": [{"name": "a", "data": [1.5]}], "featureRequests": []}`, "$.strengths[0].data[0]"},
		"missing name":      {`{"years": [], "ratings": [], "strengths": [], "featureRequests": [{"data": []}]}`, "$.featureRequests[0].name"},
		"rating as string":  {`{"years": [], "ratings": ["4.5"], "strengths": [], "featureRequests": []}`, "$.ratings[0]: want number"},
		"missing strengths": {`{"years": [], "ratings": [], "featureRequests": []}`, "$.strengths: required field missing"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ve := invalid(t, domain.KindTrends, tt.body)
			assert.Contains(t, ve.Reason, tt.reason)
		})
	}
}

func TestValidate_UnknownKind(t *testing.T) {
	_, err := schema.Validate("hotels", map[string]any{})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
}
