// Package prompts holds the instruction templates sent to the model, one per report kind.
package prompts

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"review_insights/internal/domain"
)

// SourceURL is the only page the model is asked to analyse.
const SourceURL = "https://gmatclub.com/reviews/e-gmat-6"

const jsonOnly = `Respond with clean JSON only: no explanations, no markdown, no code fences.`

var builtin = map[domain.ReportKind]string{
	domain.KindReviews: `Visit ` + SourceURL + ` and extract the latest 10 reviews of e-GMAT. Use no other source.
For each review include:
1. id: a simple number or hash identifying the review
2. text: the text content of the review
3. rating: the rating out of 5
4. date: the date of the review
5. author: the author's username
Return a JSON array of objects with exactly the fields: id, text, rating, date, author.
` + jsonOnly,

	domain.KindStatistics: `Analyze only the reviews on ` + SourceURL + ` and provide statistics:
1. totalReviews: total number of reviews (integer)
2. averageRating: average rating out of 5 (number)
3. reviewsOverTime: monthly review counts for the last 12 months, as an array of objects with fields month (string) and count (integer)
4. ratingsDistribution: number of 1, 2, 3, 4 and 5 star reviews, as an array of objects with fields rating (integer 1-5) and count (integer)
Return a JSON object with exactly the fields: totalReviews, averageRating, reviewsOverTime, ratingsDistribution.
` + jsonOnly,

	domain.KindFeatures: `Analyze only the reviews on ` + SourceURL + ` and extract the top 6 most requested features or improvements.
For each feature include:
1. feature: the name of the feature
2. count: the number of reviews mentioning it (integer)
3. percentage: the percentage of reviews mentioning it (number 0-100)
Return a JSON array of objects with exactly the fields: feature, count, percentage.
` + jsonOnly,

	domain.KindStrengths: `Analyze only the reviews on ` + SourceURL + ` and extract the top 5 most mentioned strengths or positive aspects.
For each strength include:
1. strength: the name or short description of the strength
2. count: the number of reviews mentioning it (integer)
3. percentage: the percentage of reviews mentioning it (number 0-100)
Return a JSON array of objects with exactly the fields: strength, count, percentage.
` + jsonOnly,

	domain.KindTrends: `Analyze only the reviews on ` + SourceURL + ` and create a trend analysis for the past 4 years.
Include:
1. years: the years as strings, e.g. "2021", "2022"
2. ratings: the average rating for each year (numbers, same order as years)
3. strengths: the top 4 strengths, each an object with fields name (string) and data (array of integer mention counts, one per year)
4. featureRequests: the top 4 feature requests, each an object with fields name (string) and data (array of integer mention counts, one per year)
Return a JSON object with exactly the fields: years, ratings, strengths, featureRequests.
` + jsonOnly,
}

// Catalog maps report kinds to templates. The zero value is not usable; use New or Load.
type Catalog struct {
	templates map[domain.ReportKind]string
}

// New returns the built-in catalog.
func New() *Catalog {
	t := make(map[domain.ReportKind]string, len(builtin))
	for k, v := range builtin {
		t[k] = v
	}
	return &Catalog{templates: t}
}

// Load returns the built-in catalog with templates from the YAML file at path
// laid over it. An empty path yields the built-in catalog.
//
//	reviews: |
//	  Visit ... and return a JSON array ...
func Load(path string) (*Catalog, error) {
	c := New()
	if strings.TrimSpace(path) == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse prompts file %s: %w", path, err)
	}
	for name, text := range overrides {
		kind, err := domain.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("prompts file %s: %w", path, err)
		}
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("prompts file %s: template for %s is empty", path, kind)
		}
		c.templates[kind] = text
	}
	return c, nil
}

func (c *Catalog) TemplateFor(kind domain.ReportKind) string {
	return c.templates[kind]
}
