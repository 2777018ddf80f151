package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
)

// Risk thresholds on the 0-100 health score
const (
	highRiskBelow   = 40
	mediumRiskBelow = 70
)

// hypertensionParams is the potassium saturation curve and Na/K penalty
var hypertensionParams = struct {
	vMax        float64
	halfSat     float64
	sensitivity float64
	scale       float64
	sodiumStep  float64 // mg per 100g costing 10 points without potassium data
}{vMax: 102, halfSat: 150, sensitivity: 3, scale: 10, sodiumStep: 100}

var ckdParams = struct {
	sodiumStep       float64
	phosphatePenalty float64
}{sodiumStep: 140, phosphatePenalty: 100}

var diabetesParams = struct {
	calWeight         float64
	sugarWeight       float64
	sugarRatioLimit   float64 // percent of net carbs
	sugarRatioPenalty float64
}{calWeight: 0.6, sugarWeight: 0.4, sugarRatioLimit: 10, sugarRatioPenalty: 15}

// scorer computes a raw score and the nutrient fact behind it
type scorer func(n domain.Nutrients) (float64, string)

var scorers = map[domain.DiseaseProfile]scorer{
	domain.ProfileHypertension:   scoreHypertension,
	domain.ProfileCKDPreDialysis: scoreCKD,
	domain.ProfileDiabetes:       scoreDiabetes,
}

var profileAliases = map[string]domain.DiseaseProfile{
	"hypertension":     domain.ProfileHypertension,
	"ckd_pre_dialysis": domain.ProfileCKDPreDialysis,
	"ckd":              domain.ProfileCKDPreDialysis,
	"kidney_disease":   domain.ProfileCKDPreDialysis,
	"diabetes":         domain.ProfileDiabetes,
}

// ParseProfile resolves a profile identifier, case-insensitively
func ParseProfile(s string) (domain.DiseaseProfile, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if p, ok := profileAliases[key]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownProfile, s)
}

// Assess scores a product's nutrients for profile
func Assess(profile domain.DiseaseProfile, productName string, n domain.Nutrients) (*domain.Assessment, error) {
	score, fact, err := healthScore(profile, n)
	if err != nil {
		return nil, err
	}
	return &domain.Assessment{
		Profile:     profile,
		ProductName: productName,
		Score:       math.Round(score*100) / 100,
		Risk:        RiskFor(score),
		KeyFact:     fact,
	}, nil
}

// ValidateSwap reports whether alternative scores strictly higher than chosen
func ValidateSwap(profile domain.DiseaseProfile, chosen, alternative domain.Nutrients) (bool, error) {
	a, _, err := healthScore(profile, chosen)
	if err != nil {
		return false, err
	}
	b, _, err := healthScore(profile, alternative)
	if err != nil {
		return false, err
	}
	return b > a, nil
}

// RiskFor maps a score to its risk level
func RiskFor(score float64) domain.RiskLevel {
	switch {
	case score < highRiskBelow:
		return domain.RiskHigh
	case score < mediumRiskBelow:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func healthScore(profile domain.DiseaseProfile, n domain.Nutrients) (float64, string, error) {
	fn, ok := scorers[profile]
	if !ok {
		return 0, "", fmt.Errorf("%w: %q", domain.ErrUnknownProfile, profile)
	}
	score, fact := fn(n)
	return math.Max(0, score), fact, nil
}

// per100g rescales an attribute to a 100g basis when the basis is known
func per100g(n domain.Nutrients, key string) float64 {
	v := n.Value(key)
	if basis, ok := n.Get(domain.AttrNutrientBasis); ok && basis > 0 {
		return v / basis * 100
	}
	return v
}

func scoreHypertension(n domain.Nutrients) (float64, string) {
	p := hypertensionParams
	na := n.Value(domain.AttrSodium)

	k, hasK := n.Get(domain.AttrPotassium)
	if !hasK {
		density := per100g(n, domain.AttrSodium)
		return 100 - density/p.sodiumStep*10, fmt.Sprintf("%.0fmg of sodium per 100g", density)
	}
	if k <= 0 {
		return 0, fmt.Sprintf("%.0fmg of sodium with no potassium", na)
	}

	scoreK := math.Min(p.vMax*k/(p.halfSat+k), 100)
	ratio := na / k
	return scoreK - ratio*p.sensitivity*p.scale, fmt.Sprintf("sodium to potassium ratio of %.2f", ratio)
}

func scoreCKD(n domain.Nutrients) (float64, string) {
	p := ckdParams
	density := per100g(n, domain.AttrSodium)
	score := 100 - density/p.sodiumStep*10
	fact := fmt.Sprintf("%.0fmg of sodium per 100g", density)
	if n.Value(domain.AttrPhosphateAdditives) > 0 {
		score -= p.phosphatePenalty
		fact += " with phosphate additives"
	}
	return score, fact
}

func scoreDiabetes(n domain.Nutrients) (float64, string) {
	p := diabetesParams
	sugar := n.Value(domain.AttrSugars)
	carb := n.Value(domain.AttrCarbohydrate)
	kcal := n.Value(domain.AttrEnergyKcal)
	offset := n.Value(domain.AttrDietaryFiber) + n.Value(domain.AttrErythritol) + n.Value(domain.AttrAllulose)

	net := math.Max(sugar, carb-offset)

	var rCal, rSugar float64
	if kcal > 0 {
		rCal = net * 4 / kcal * 100
	}
	if net > 0 {
		rSugar = sugar / net * 100
	}

	score := 100 - (p.calWeight*rCal + p.sugarWeight*rSugar)
	if rSugar > p.sugarRatioLimit {
		score -= p.sugarRatioPenalty
	}
	return score, fmt.Sprintf("%.1fg of sugars (%.0f%% of net carbs)", sugar, rSugar)
}
