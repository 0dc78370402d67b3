package model

import "strings"

// Request defaults applied when a field is empty.
const (
	DefaultLocation   = "Bangalore | use my current location"
	DefaultGrade      = "1st Grade"
	DefaultCurriculum = "CBSE"

	// CurrentLocation asks the crew to detect the location itself.
	CurrentLocation = "use my current location"
)

// SupportedCurricula is served by GET /curricula.
var SupportedCurricula = []string{
	"CBSE", "ICSE", "IB", "State Board", "IGCSE", "Cambridge", "Montessori",
}

// SupportedGrades is served by GET /grades.
var SupportedGrades = []string{
	"Nursery", "Pre-KG", "LKG", "UKG",
	"1st Grade", "2nd Grade", "3rd Grade", "4th Grade", "5th Grade", "6th Grade",
	"7th Grade", "8th Grade", "9th Grade", "10th Grade", "11th Grade", "12th Grade",
}

// SearchRequest is the body of POST /search-schools.
type SearchRequest struct {
	Location   string `json:"location"`
	Grade      string `json:"grade"`
	Curriculum string `json:"curriculum"`
}

// WithDefaults returns a copy with every empty field set to its default.
// Whitespace-only values count as empty.
func (r SearchRequest) WithDefaults() SearchRequest {
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return strings.TrimSpace(v)
	}
	return SearchRequest{
		Location:   pick(r.Location, DefaultLocation),
		Grade:      pick(r.Grade, DefaultGrade),
		Curriculum: pick(r.Curriculum, DefaultCurriculum),
	}
}

// UsesCurrentLocation reports whether the crew must detect the location.
func (r SearchRequest) UsesCurrentLocation() bool {
	return strings.Contains(strings.ToLower(r.Location), CurrentLocation)
}

// Inputs returns the crew template inputs for the request.
func (r SearchRequest) Inputs() map[string]string {
	return map[string]string{
		"location":   r.Location,
		"grade":      r.Grade,
		"curriculum": r.Curriculum,
	}
}

// SearchResponse is returned by POST /search-schools.
type SearchResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// SimpleSearchResponse is returned by GET /search-schools/{location}.
type SimpleSearchResponse struct {
	Success    bool   `json:"success"`
	Location   string `json:"location"`
	Grade      string `json:"grade"`
	Curriculum string `json:"curriculum"`
	Results    string `json:"results"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
