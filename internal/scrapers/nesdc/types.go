package nesdc

// ListEntry is one row of a listing page.
type ListEntry struct {
	RegistrationNo string  `json:"registrationNo"`
	Agency         string  `json:"agency"`
	Client         string  `json:"client"`
	Method         string  `json:"method"`
	SampleFrame    string  `json:"sampleFrame"`
	PollName       string  `json:"pollName"`
	RegisteredDate string  `json:"registeredDate"`
	Region         string  `json:"region"`
	Status         *string `json:"status"`
	// SourceUrl is always absolute, it is the base url when the row carries no link.
	SourceUrl string `json:"sourceUrl"`
}

// FieldMap maps a label as it appears on a detail page to its value.
type FieldMap map[string]string

// DetailRecord is everything recovered from a detail page. Nil fields could not be inferred.
type DetailRecord struct {
	// SurveyDate is formatted as YYYY-MM-DD.
	SurveyDate    *string  `json:"surveyDate"`
	SampleSize    *int     `json:"sampleSize"`
	MarginOfError *float64 `json:"marginOfError"`
	ResultFileUrl *string  `json:"resultFileUrl"`
	DetailText    *string  `json:"detailText"`
	ResultText    *string  `json:"resultText"`
	Fields        FieldMap `json:"fields"`
}

type EnrichedEntry struct {
	ListEntry
	// Detail is nil when the detail page could not be fetched.
	Detail *DetailRecord `json:"detail"`
}
