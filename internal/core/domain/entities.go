package domain

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used for daily keys.
const DateLayout = "2006-01-02"

// DailyEntries is the number of locations served per calendar day.
const DailyEntries = 5

// CandidatePoint is an unvalidated coordinate drawn from the places source.
type CandidatePoint struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Heading int     `json:"heading"` // degrees in [0, 360)
}

// Classification describes what kind of imagery backs a location.
type Classification string

const (
	ClassificationOutdoor Classification = "Outdoor"
	ClassificationUnknown Classification = "Unknown"
)

// Location is a validated coordinate with street-level imagery coverage.
type Location struct {
	Lat            float64        `json:"lat"`
	Lon            float64        `json:"lon"`
	Heading        int            `json:"heading"`
	Region         Region         `json:"region,omitempty"`
	Classification Classification `json:"classification,omitempty"`
}

// NewLocation builds a Location from a validated candidate, rounding the
// coordinates to 6 decimal places and labelling the region.
func NewLocation(p CandidatePoint, cls Classification) Location {
	lat, lon := RoundCoord(p.Lat), RoundCoord(p.Lon)
	if cls == "" {
		cls = ClassificationUnknown
	}
	return Location{
		Lat:            lat,
		Lon:            lon,
		Heading:        p.Heading,
		Region:         ClassifyRegion(lat, lon),
		Classification: cls,
	}
}

// Key identifies a location by its coordinates at stored precision.
func (l Location) Key() string {
	return CoordKey(l.Lat, l.Lon)
}

// Normalize fills region and classification on records written before
// those fields existed.
func (l Location) Normalize() Location {
	if l.Region == "" {
		l.Region = ClassifyRegion(l.Lat, l.Lon)
	}
	if l.Classification == "" {
		l.Classification = ClassificationUnknown
	}
	return l
}

// CoordKey formats a coordinate pair at 6 decimal precision.
func CoordKey(lat, lon float64) string {
	return fmt.Sprintf("%.6f,%.6f", RoundCoord(lat), RoundCoord(lon))
}

// FallbackLocation is served when no corpus is available at all.
var FallbackLocation = Location{
	Lat:            48.858370,
	Lon:            2.294481,
	Heading:        0,
	Region:         RegionEurope,
	Classification: ClassificationOutdoor,
}

// Corpus is the ordered set of validated locations. Order is discovery order.
type Corpus []Location

// Partition splits the corpus by region, preserving order within each bucket.
func (c Corpus) Partition() map[Region][]Location {
	out := make(map[Region][]Location, len(Regions))
	for _, loc := range c {
		r := ClassifyRegion(loc.Lat, loc.Lon)
		out[r] = append(out[r], loc)
	}
	return out
}

// Stats summarises the corpus composition.
func (c Corpus) Stats() CorpusStats {
	s := CorpusStats{
		Total:            len(c),
		ByRegion:         make(map[Region]int, len(Regions)),
		ByClassification: make(map[Classification]int, 2),
	}
	for _, loc := range c {
		loc = loc.Normalize()
		s.ByRegion[loc.Region]++
		s.ByClassification[loc.Classification]++
	}
	return s
}

// CorpusStats holds counts per region and classification.
type CorpusStats struct {
	Total            int                    `json:"total"`
	ByRegion         map[Region]int         `json:"by_region"`
	ByClassification map[Classification]int `json:"by_classification"`
}

// DailySelection is the fixed set of locations served to every player on Date.
type DailySelection struct {
	Date    string     `json:"date"`
	Entries []Location `json:"entries"`
}

// DateKey formats t as an ISO calendar date in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Verdict is the outcome of probing one coordinate.
type Verdict int

const (
	VerdictInvalid Verdict = iota
	VerdictValid
	VerdictTransient
	// VerdictFault marks a validation task that crashed.
	VerdictFault
)

func (v Verdict) String() string {
	switch v {
	case VerdictValid:
		return "valid"
	case VerdictInvalid:
		return "invalid"
	case VerdictTransient:
		return "transient_error"
	case VerdictFault:
		return "fault"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Validation is what a probe reports for one coordinate.
type Validation struct {
	Verdict        Verdict
	Classification Classification
}

// AcquisitionStats is process-local progress accounting for one pipeline run.
type AcquisitionStats struct {
	RunID         string        `json:"run_id"`
	Target        int           `json:"target"`
	Attempts      int           `json:"attempts"`
	Successes     int           `json:"successes"`
	Failures      int           `json:"failures"`
	Duplicates    int           `json:"duplicates"`
	Surplus       int           `json:"surplus"`
	Skipped       int           `json:"skipped"`
	Elapsed       time.Duration `json:"elapsed"`
	TargetReached bool          `json:"target_reached"`
}

// Throughput returns attempts per second over the elapsed time.
func (s AcquisitionStats) Throughput() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Attempts) / s.Elapsed.Seconds()
}

// Place is a populated place from the geometry dataset.
type Place struct {
	GeonameID  int64    `json:"geoname_id"`
	Name       string   `json:"name"`
	Country    string   `json:"country"`
	Location   GeoPoint `json:"location"`
	Population int64    `json:"population"`
}
