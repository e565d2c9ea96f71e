package models

// RiskLevel classifies a drug-food interaction. Lower priority is more severe.
type RiskLevel string

const (
	RiskDanger  RiskLevel = "danger"
	RiskWarning RiskLevel = "warning"
	RiskCaution RiskLevel = "caution"
	RiskSafe    RiskLevel = "safe"
)

// Priority returns the severity rank: danger=1 through safe=4.
// Unknown levels rank last so they never outrank a real classification.
func (r RiskLevel) Priority() int {
	switch r {
	case RiskDanger:
		return 1
	case RiskWarning:
		return 2
	case RiskCaution:
		return 3
	case RiskSafe:
		return 4
	default:
		return 99
	}
}

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskDanger, RiskWarning, RiskCaution, RiskSafe:
		return true
	}
	return false
}

// Label returns the Korean display label used by the original dataset.
func (r RiskLevel) Label() string {
	switch r {
	case RiskDanger:
		return "위험"
	case RiskWarning:
		return "경고"
	case RiskCaution:
		return "주의"
	case RiskSafe:
		return "안전"
	default:
		return "알 수 없음"
	}
}

func (r RiskLevel) Emoji() string {
	switch r {
	case RiskDanger:
		return "🔴"
	case RiskWarning:
		return "🟠"
	case RiskCaution:
		return "🟡"
	case RiskSafe:
		return "🟢"
	default:
		return "❓"
	}
}

// NormalizeRiskLevel maps free-form CSV values onto a valid level,
// defaulting to caution for anything unrecognized.
func NormalizeRiskLevel(s string) RiskLevel {
	r := RiskLevel(s)
	if r.Valid() {
		return r
	}
	return RiskCaution
}
