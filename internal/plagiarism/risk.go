package plagiarism

const (
	RiskOriginal   = "original"
	RiskSuspicious = "suspicious"
	RiskLikelyCopy = "likely_copy"
)

const suspiciousThreshold = 40.0

// GetRiskLevel returns the risk tier for a similarity percentage
func GetRiskLevel(score, flagThreshold float64) string {
	if score >= flagThreshold {
		return RiskLikelyCopy
	} else if score >= suspiciousThreshold {
		return RiskSuspicious
	}
	return RiskOriginal
}
