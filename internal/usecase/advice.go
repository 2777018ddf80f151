package usecase

import (
	"fmt"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
)

// Recommendation decisions
const (
	DecisionWarning     = "warning"
	DecisionSuitable    = "suitable"
	DecisionGreatChoice = "great_choice"
	DecisionUnknown     = "unknown"
)

var profileLabels = map[domain.DiseaseProfile]string{
	domain.ProfileHypertension:   "hypertension",
	domain.ProfileCKDPreDialysis: "chronic kidney disease",
	domain.ProfileDiabetes:       "diabetes",
}

var profileRisks = map[domain.DiseaseProfile]string{
	domain.ProfileHypertension:   "a sudden rise in blood pressure",
	domain.ProfileCKDPreDialysis: "extra strain on your kidneys",
	domain.ProfileDiabetes:       "a rapid spike in blood sugar",
}

// DecisionFor returns the decision label for a risk level
func DecisionFor(risk domain.RiskLevel) string {
	switch risk {
	case domain.RiskHigh:
		return DecisionWarning
	case domain.RiskMedium:
		return DecisionSuitable
	case domain.RiskLow:
		return DecisionGreatChoice
	default:
		return DecisionUnknown
	}
}

// Advise renders the user-facing message for an assessment
func Advise(profile domain.DiseaseProfile, a domain.Assessment) string {
	label, ok := profileLabels[profile]
	if !ok {
		label = string(profile)
	}

	switch a.Risk {
	case domain.RiskHigh:
		return fmt.Sprintf("[WARNING] %s contains %s. For someone with %s this could lead to %s; consider a lower-risk alternative.",
			a.ProductName, a.KeyFact, label, profileRisks[profile])
	case domain.RiskMedium:
		return fmt.Sprintf("[SUITABLE] %s is acceptable for a %s diet in moderation (%s, score %.0f/100).",
			a.ProductName, label, a.KeyFact, a.Score)
	default:
		return fmt.Sprintf("[GREAT CHOICE] %s fits your %s diet well (%s, score %.0f/100).",
			a.ProductName, label, a.KeyFact, a.Score)
	}
}
