package impact

// RiskLevel grades how many callers a change can break.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MED"
	RiskLow    RiskLevel = "LOW"
)

// Caller-count thresholds for ClassifyRisk.
const (
	highRiskCallers   = 5
	mediumRiskCallers = 2
)

// ClassifyRisk maps a caller count to a risk level: HIGH at 5 or more,
// MED at 2 to 4, LOW below 2.
func ClassifyRisk(callers int) RiskLevel {
	switch {
	case callers >= highRiskCallers:
		return RiskHigh
	case callers >= mediumRiskCallers:
		return RiskMedium
	default:
		return RiskLow
	}
}
