package report

import "strings"

// Classification is the normalized pathogenicity of a variant.
type Classification string

const (
	ClassificationVUS              Classification = "VUS"
	ClassificationPathogenic       Classification = "P"
	ClassificationLikelyPathogenic Classification = "LP"
	ClassificationUnknown          Classification = "Desconocida"
)

// FindingType groups a non-primary variant for presentation.
type FindingType string

const (
	FindingVUS           FindingType = "VUS"
	FindingPLPNonPrimary FindingType = "P_LP_NonPrimary"
	FindingUnknown       FindingType = "Desconocido"
)

// Variant is a genetic variant as listed in the report.
type Variant struct {
	Gen           string `json:"gen"`
	Localizacion  string `json:"localizacion,omitempty"`
	Transcrito    string `json:"transcrito,omitempty"`
	CDNA          string `json:"cdna,omitempty"`
	Proteina      string `json:"proteina,omitempty"`
	Genotipo      string `json:"genotipo,omitempty"`
	Clasificacion string `json:"clasificacion,omitempty"`

	// Set by Normalize.
	ClasificacionNorm Classification `json:"clasificacion_norm,omitempty"`
	Tipo              FindingType    `json:"tipo,omitempty"`
}

// SecondaryFinding is an incidental P/LP variant reported in a gene outside
// the study's indication.
type SecondaryFinding struct {
	Gen           string `json:"gen" validate:"required"`
	Variante      string `json:"variante,omitempty"`
	Genotipo      string `json:"genotipo,omitempty"`
	Clasificacion string `json:"clasificacion,omitempty"`
}

// NormalizeClassification maps free-text classifications in Spanish or
// English onto Classification.
func NormalizeClassification(raw string) Classification {
	c := fold(raw)
	switch {
	case containsAny(c, "vus", "significado incierto", "uncertain significance"):
		return ClassificationVUS
	case containsAny(c, "patogenica", "patogenico", "pathogenic"):
		if containsAny(c, "probablemente", "likely") {
			return ClassificationLikelyPathogenic
		}
		return ClassificationPathogenic
	default:
		return ClassificationUnknown
	}
}

// TypeFor returns the finding type of a non-primary variant.
func TypeFor(c Classification) FindingType {
	switch c {
	case ClassificationVUS:
		return FindingVUS
	case ClassificationPathogenic, ClassificationLikelyPathogenic:
		return FindingPLPNonPrimary
	default:
		return FindingUnknown
	}
}

// Normalize returns v with ClasificacionNorm and Tipo filled in.
func (v Variant) Normalize() Variant {
	v.ClasificacionNorm = NormalizeClassification(v.Clasificacion)
	v.Tipo = TypeFor(v.ClasificacionNorm)
	return v
}

// Same reports whether v and other describe the same variant: same gene and
// cDNA, or same gene and protein change when neither has a cDNA notation.
func (v Variant) Same(other Variant) bool {
	if !sameField(v.Gen, other.Gen) {
		return false
	}
	if v.CDNA != "" || other.CDNA != "" {
		return sameField(v.CDNA, other.CDNA)
	}
	return sameField(v.Proteina, other.Proteina)
}

func sameField(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

// OtherFindings normalizes variants and drops the primary one, if given.
func OtherFindings(variants []Variant, primary *Variant) []Variant {
	out := make([]Variant, 0, len(variants))
	for _, v := range variants {
		if strings.TrimSpace(v.Gen) == "" && strings.TrimSpace(v.CDNA) == "" && strings.TrimSpace(v.Proteina) == "" {
			continue
		}
		if primary != nil && v.Same(*primary) {
			continue
		}
		out = append(out, v.Normalize())
	}
	return out
}
