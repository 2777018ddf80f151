// Package csvio reads catalog and query tables and writes match results as CSV
package csvio

import (
	"strings"

	"github.com/HyungsunSo/AI-NutriCurator/internal/domain"
)

// Output column headers for the identifying and decision fields
const (
	ColumnQuery       = "제품명"
	ColumnMatchedName = "_매칭식품명"
	ColumnTopScore    = "_tfidf최고점수"
	ColumnReason      = "_매칭이유"
)

// defaultAliases maps source column labels to canonical attribute keys
var defaultAliases = map[string]string{
	"에너지(kcal)": domain.AttrEnergyKcal,
	"열량(kcal)":  domain.AttrEnergyKcal,
	"단백질(g)":    domain.AttrProtein,
	"지방(g)":     domain.AttrFat,
	"회분(g)":     domain.AttrAsh,
	"탄수화물(g)":   domain.AttrCarbohydrate,
	"당류(g)":     domain.AttrSugars,
	"나트륨(mg)":   domain.AttrSodium,
	"콜레스테롤(mg)": domain.AttrCholesterol,
	"포화지방산(g)":  domain.AttrSaturatedFat,
	"트랜스지방산(g)": domain.AttrTransFat,
	"영양성분함량기준량": domain.AttrNutrientBasis,
	"1회섭취참고량":   domain.AttrReferenceServing,
	"식품중량":      domain.AttrFoodWeight,
	"칼륨(mg)":    domain.AttrPotassium,
	"인(mg)":     domain.AttrPhosphorus,
	"식이섬유(g)":   domain.AttrDietaryFiber,
	"에리스리톨(g)":  domain.AttrErythritol,
	"알룰로스(g)":   domain.AttrAllulose,
}

// attributeLabels is the header written for each canonical key
var attributeLabels = map[string]string{
	domain.AttrEnergyKcal:       "에너지(kcal)",
	domain.AttrProtein:          "단백질(g)",
	domain.AttrFat:              "지방(g)",
	domain.AttrAsh:              "회분(g)",
	domain.AttrCarbohydrate:     "탄수화물(g)",
	domain.AttrSugars:           "당류(g)",
	domain.AttrSodium:           "나트륨(mg)",
	domain.AttrCholesterol:      "콜레스테롤(mg)",
	domain.AttrSaturatedFat:     "포화지방산(g)",
	domain.AttrTransFat:         "트랜스지방산(g)",
	domain.AttrNutrientBasis:    "영양성분함량기준량",
	domain.AttrReferenceServing: "1회섭취참고량",
	domain.AttrFoodWeight:       "식품중량",
	domain.AttrPotassium:        "칼륨(mg)",
	domain.AttrPhosphorus:       "인(mg)",
	domain.AttrDietaryFiber:     "식이섬유(g)",
	domain.AttrErythritol:       "에리스리톨(g)",
	domain.AttrAllulose:         "알룰로스(g)",
}

var canonicalKeys = map[string]bool{
	domain.AttrEnergyKcal:         true,
	domain.AttrProtein:            true,
	domain.AttrFat:                true,
	domain.AttrAsh:                true,
	domain.AttrCarbohydrate:       true,
	domain.AttrSugars:             true,
	domain.AttrSodium:             true,
	domain.AttrCholesterol:        true,
	domain.AttrSaturatedFat:       true,
	domain.AttrTransFat:           true,
	domain.AttrNutrientBasis:      true,
	domain.AttrReferenceServing:   true,
	domain.AttrFoodWeight:         true,
	domain.AttrPotassium:          true,
	domain.AttrPhosphorus:         true,
	domain.AttrDietaryFiber:       true,
	domain.AttrErythritol:         true,
	domain.AttrAllulose:           true,
	domain.AttrPhosphateAdditives: true,
}

// AttributeLabel returns the output header for a canonical key
func AttributeLabel(key string) string {
	if label, ok := attributeLabels[key]; ok {
		return label
	}
	return key
}

// resolver maps header labels to canonical keys; extra aliases win over defaults
type resolver map[string]string

func newResolver(extra map[string]string) resolver {
	r := make(resolver, len(defaultAliases)+len(extra))
	for label, key := range defaultAliases {
		r[foldLabel(label)] = key
	}
	for label, key := range extra {
		r[foldLabel(label)] = key
	}
	return r
}

// canonical returns the attribute key for a header, if it names one
func (r resolver) canonical(header string) (string, bool) {
	folded := foldLabel(header)
	if key, ok := r[folded]; ok {
		return key, true
	}
	if canonicalKeys[folded] {
		return folded, true
	}
	return "", false
}

// foldLabel compares labels ignoring case and surrounding space
func foldLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
