package reputation

import "fmt"

// LookupKind classifies a reputation lookup failure.
type LookupKind int

const (
	// GeoUnavailable means only the geolocation query failed. The lookup
	// as a whole still succeeds with sentinel location/ISP values.
	GeoUnavailable LookupKind = iota
	// ScoreUnavailable means the fraud-score query failed, which fails the
	// whole lookup for that IP.
	ScoreUnavailable
)

func (k LookupKind) String() string {
	if k == ScoreUnavailable {
		return "score_unavailable"
	}
	return "geo_unavailable"
}

// LookupError is the typed failure of a reputation lookup.
type LookupError struct {
	Kind LookupKind
	IP   string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("reputation lookup %s for %s: %v", e.Kind, e.IP, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }
