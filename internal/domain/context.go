package domain

import "time"

// Version selects the summary API variant and with it the fee-fetch strategy.
type Version string

const (
	V1 Version = "v1"
	V2 Version = "v2"
	V3 Version = "v3"
)

// ParseVersion maps a version tag to a Version. Unknown tags return
// ErrUnsupportedVersion: an unrecognized tag is a configuration error,
// never produced by a valid caller.
func ParseVersion(tag string) (Version, error) {
	switch Version(tag) {
	case V1, V2, V3:
		return Version(tag), nil
	default:
		return "", ErrUnsupportedVersion
	}
}

// ProjectedYield carries optional projected-yield figures supplied by the caller.
type ProjectedYield struct {
	Yield        string `json:"yield"`
	Annual       string `json:"projectedAnnualYield"`
	AnnualParity string `json:"projectedAnnualYieldParity"`
}

// PortfolioContext is the immutable per-request input to the summary engine.
// It is created once by the caller and never mutated.
type PortfolioContext struct {
	Portfolio          Portfolio
	AllPortfolios      map[int64]Portfolio
	ReportingCurrency  string
	ServiceDate        time.Time
	Version            Version
	PricingPlan        string
	DepositConfirmed   bool
	PartOfTransferPlan bool
	ShowIndicativeNav  bool
	ProjectedYield     *ProjectedYield
}
