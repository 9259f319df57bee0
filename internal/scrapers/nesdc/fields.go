package nesdc

import (
	"fmt"
	"nesdc-backend/lib/textutil"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// fuzzyLabelThreshold is the minimum Jaro-Winkler similarity for a label to
// be considered a variant spelling of a known label.
const fuzzyLabelThreshold = 0.92

const maxMarginOfError = 20

var (
	dateToken      = `\d{4}[-./]\d{1,2}[-./]\d{1,2}`
	dateRangeRegex = regexp.MustCompile(`(` + dateToken + `).*?(` + dateToken + `)`)
	dateRegex      = regexp.MustCompile(dateToken)
	datePartsRegex = regexp.MustCompile(`^(\d{4})[-./](\d{1,2})[-./](\d{1,2})$`)

	sampleSizeRegex = regexp.MustCompile(`([0-9,]{3,})\s*명`)

	marginPlusMinusRegex = regexp.MustCompile(`±\s*([0-9]+(?:\.[0-9]+)?)\s*%p?`)
	marginPointRegex     = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*%p`)
	marginLooseRegex     = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*%`)
)

// a loose percentage next to these words is a confidence level or significance level
var marginExclusionKeywords = []string{"신뢰", "유의"}

// labelTier returns the values in fields that a label may refer to, best match first.
type labelTier func(fields FieldMap, label string) []string

func exactLabel(fields FieldMap, label string) []string {
	value, ok := fields[label]
	if !ok {
		return nil
	}
	return []string{value}
}

func sortedLabels(fields FieldMap) []string {
	labels := make([]string, 0, len(fields))
	for label := range fields {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels
}

func normalizedLabel(fields FieldMap, label string) []string {
	normalized := textutil.NormalizeName(label)

	var values []string
	for _, key := range sortedLabels(fields) {
		if key != label && textutil.NormalizeName(key) == normalized {
			values = append(values, fields[key])
		}
	}
	return values
}

func fuzzyLabel(fields FieldMap, label string) []string {
	normalized := textutil.NormalizeName(label)

	type candidate struct {
		value string
		score float64
	}
	var candidates []candidate
	for _, key := range sortedLabels(fields) {
		if textutil.NormalizeName(key) == normalized {
			continue
		}
		score := textutil.Similarity(key, label)
		if score >= fuzzyLabelThreshold {
			candidates = append(candidates, candidate{value: fields[key], score: score})
		}
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})

	values := make([]string, len(candidates))
	for i, c := range candidates {
		values[i] = c.value
	}
	return values
}

// labelTiers are tried tier by tier, every label of a field is tried within a
// tier before moving on to a looser tier.
var labelTiers = []labelTier{exactLabel, normalizedLabel, fuzzyLabel}

// fieldExtractor infers one value from the labeled fields of a detail page,
// falling back to scanning free text.
type fieldExtractor[T any] struct {
	labels []string
	parse  func(text string) (T, bool)
}

func (f fieldExtractor[T]) extract(fields FieldMap, fallback string) *T {
	for _, tier := range labelTiers {
		for _, label := range f.labels {
			for _, value := range tier(fields, label) {
				if parsed, ok := f.parse(value); ok {
					return &parsed
				}
			}
		}
	}
	if parsed, ok := f.parse(fallback); ok {
		return &parsed
	}
	return nil
}

var (
	surveyDateField = fieldExtractor[string]{
		labels: []string{"조사기간", "조사일시", "조사일"},
		parse:  ParseDate,
	}
	sampleSizeField = fieldExtractor[int]{
		labels: []string{"표본크기", "표본", "표본수"},
		parse:  ParseSampleSize,
	}
	marginOfErrorField = fieldExtractor[float64]{
		labels: []string{"표본오차", "오차범위", "오차한계"},
		parse:  ParseMarginOfError,
	}
)

// SurveyDate returns the survey date as YYYY-MM-DD, or nil.
func SurveyDate(fields FieldMap, fallback string) *string {
	return surveyDateField.extract(fields, fallback)
}

// SampleSize returns the number of respondents, or nil.
func SampleSize(fields FieldMap, fallback string) *int {
	return sampleSizeField.extract(fields, fallback)
}

// MarginOfError returns the margin of error in percentage points, or nil.
func MarginOfError(fields FieldMap, fallback string) *float64 {
	return marginOfErrorField.extract(fields, fallback)
}

// NormalizeDate rewrites a date token to use dashes and two digit months and days.
// Calendar validity is not checked.
func NormalizeDate(token string) string {
	groups := datePartsRegex.FindStringSubmatch(token)
	if groups == nil {
		return strings.NewReplacer(".", "-", "/", "-").Replace(token)
	}
	month, _ := strconv.Atoi(groups[2])
	day, _ := strconv.Atoi(groups[3])
	return fmt.Sprintf("%s-%02d-%02d", groups[1], month, day)
}

// ParseDate finds a date in text. For a range the end date is returned.
func ParseDate(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	if groups := dateRangeRegex.FindStringSubmatch(text); groups != nil {
		return NormalizeDate(groups[2]), true
	}
	if token := dateRegex.FindString(text); token != "" {
		return NormalizeDate(token), true
	}
	return "", false
}

// ParseSampleSize finds a respondent count such as "1,004명" in text.
func ParseSampleSize(text string) (int, bool) {
	groups := sampleSizeRegex.FindStringSubmatch(text)
	if groups == nil {
		return 0, false
	}
	size, err := strconv.Atoi(strings.ReplaceAll(groups[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return size, true
}

// ParseMarginOfError finds a margin of error in text.
//
// A value written as "±N%" or "N%p" is trusted if it is at most 20, a value
// above that is discarded without looking further. Otherwise the first plain
// percentage is used, unless it is above 20 or the text talks about a
// confidence or significance level.
func ParseMarginOfError(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}

	groups := marginPlusMinusRegex.FindStringSubmatch(text)
	if groups == nil {
		groups = marginPointRegex.FindStringSubmatch(text)
	}
	if groups != nil {
		value, err := strconv.ParseFloat(groups[1], 64)
		if err != nil || value > maxMarginOfError {
			return 0, false
		}
		return value, true
	}

	groups = marginLooseRegex.FindStringSubmatch(text)
	if groups == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(groups[1], 64)
	if err != nil || value > maxMarginOfError {
		return 0, false
	}
	for _, keyword := range marginExclusionKeywords {
		if strings.Contains(text, keyword) {
			return 0, false
		}
	}
	return value, true
}
