package domain

// Nutrients maps a canonical attribute key to its numeric value.
// The map is sparse: attributes absent from the source are simply missing.
type Nutrients map[string]float64

// Canonical nutrition attribute keys
const (
	AttrEnergyKcal         = "energy_kcal"
	AttrProtein            = "protein_g"
	AttrFat                = "fat_g"
	AttrAsh                = "ash_g"
	AttrCarbohydrate       = "carbohydrate_g"
	AttrSugars             = "sugars_g"
	AttrSodium             = "sodium_mg"
	AttrCholesterol        = "cholesterol_mg"
	AttrSaturatedFat       = "saturated_fat_g"
	AttrTransFat           = "trans_fat_g"
	AttrNutrientBasis      = "nutrient_basis_g"    // amount the listed values refer to
	AttrReferenceServing   = "reference_serving_g" // reference amount per serving
	AttrFoodWeight         = "food_weight_g"
	AttrPotassium          = "potassium_mg"
	AttrPhosphorus         = "phosphorus_mg"
	AttrDietaryFiber       = "dietary_fiber_g"
	AttrErythritol         = "erythritol_g"
	AttrAllulose           = "allulose_g"
	AttrPhosphateAdditives = "phosphate_additives" // >0 when phosphate additives are declared
)

// DefaultAttributes is the attribute order used by output sinks
var DefaultAttributes = []string{
	AttrEnergyKcal,
	AttrProtein,
	AttrFat,
	AttrAsh,
	AttrCarbohydrate,
	AttrSugars,
	AttrSodium,
	AttrCholesterol,
	AttrSaturatedFat,
	AttrTransFat,
	AttrNutrientBasis,
	AttrReferenceServing,
	AttrFoodWeight,
}

// Get returns the value for key and whether it is present
func (n Nutrients) Get(key string) (float64, bool) {
	if n == nil {
		return 0, false
	}
	v, ok := n[key]
	return v, ok
}

// Value returns the value for key, or 0 when absent
func (n Nutrients) Value(key string) float64 {
	v, _ := n.Get(key)
	return v
}

// Clone returns an independent copy; nil stays nil
func (n Nutrients) Clone() Nutrients {
	if n == nil {
		return nil
	}
	out := make(Nutrients, len(n))
	for k, v := range n {
		out[k] = v
	}
	return out
}

// DiseaseProfile identifies the dietary rule set a user is scored against
type DiseaseProfile string

const (
	ProfileHypertension   DiseaseProfile = "hypertension"
	ProfileCKDPreDialysis DiseaseProfile = "ckd_pre_dialysis"
	ProfileDiabetes       DiseaseProfile = "diabetes"
)

// RiskLevel is the coarse tag derived from a health score
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

// Assessment is the scoring collaborator's output for one product and profile
type Assessment struct {
	Profile     DiseaseProfile `json:"profile"`
	ProductName string         `json:"productName"`
	Score       float64        `json:"score"` // 0-100
	Risk        RiskLevel      `json:"risk"`
	KeyFact     string         `json:"keyFact"`
}

// Recommendation is the user-facing decision for one product
type Recommendation struct {
	Match      MatchRecord `json:"match"`
	Assessment *Assessment `json:"assessment,omitempty"`
	Decision   string      `json:"decision"` // warning, suitable, great_choice or unknown
	Message    string      `json:"message,omitempty"`
}

// SwapVerdict compares a chosen product with a proposed alternative
type SwapVerdict struct {
	Profile     DiseaseProfile `json:"profile"`
	Chosen      MatchRecord    `json:"chosen"`
	Alternative MatchRecord    `json:"alternative"`
	Better      bool           `json:"better"` // alternative scores strictly higher
}
