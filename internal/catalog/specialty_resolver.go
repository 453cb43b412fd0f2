package catalog

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Patients name specialties by the professional's title at least as often
// as by the discipline; the alias table maps the common titles back to the
// catalog noun before any fuzzier matching runs.
var defaultSpecialtyAliases = map[string]string{
	"cardiologista":    "cardiologia",
	"dermatologista":   "dermatologia",
	"ginecologista":    "ginecologia",
	"neurologista":     "neurologia",
	"oftalmologista":   "oftalmologia",
	"ortopedista":      "ortopedia",
	"otorrino":         "otorrinolaringologia",
	"pediatra":         "pediatria",
	"psiquiatra":       "psiquiatria",
	"urologista":       "urologia",
	"endocrinologista": "endocrinologia",
	"dentista":         "odontologia",
	"clinico geral":    "clinica geral",
}

// suffixRule rewrites a professional-title suffix into the discipline
// suffix. Evaluated in order; the first matching rule wins.
type suffixRule struct {
	from string
	to   string
}

var defaultSuffixRules = []suffixRule{
	{"ologista", "ologia"},
	{"iatra", "iatria"},
	{"ista", "ia"},
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeTerm lower-cases and strips diacritics.
func normalizeTerm(term string) string {
	lowered := strings.ToLower(strings.TrimSpace(term))
	stripped, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		return lowered
	}
	return stripped
}

// SpecialtyResolver maps free-text specialty references (including
// professional-title variants) to canonical catalog ids.
type SpecialtyResolver struct {
	repo        Repository
	aliases     map[string]string
	suffixRules []suffixRule
}

func NewSpecialtyResolver(repo Repository) *SpecialtyResolver {
	return &SpecialtyResolver{
		repo:        repo,
		aliases:     defaultSpecialtyAliases,
		suffixRules: defaultSuffixRules,
	}
}

// ResolveIDs returns the catalog ids matching nameOrID. A UUID is returned
// as-is. No match is an empty list, never an error: callers treat zero
// resolver hits as zero results.
func (r *SpecialtyResolver) ResolveIDs(ctx context.Context, nameOrID string) ([]uuid.UUID, error) {
	trimmed := strings.TrimSpace(nameOrID)
	if trimmed == "" {
		return nil, nil
	}

	if id, err := uuid.Parse(trimmed); err == nil {
		return []uuid.UUID{id}, nil
	}

	// First pass with the raw term.
	matches, err := r.repo.FindSpecialtiesByName(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("find specialties: %w", err)
	}
	if len(matches) == 0 {
		candidate := r.rewriteTerm(trimmed)
		if candidate != trimmed {
			matches, err = r.repo.FindSpecialtiesByName(ctx, candidate)
			if err != nil {
				return nil, fmt.Errorf("find specialties (rewritten): %w", err)
			}
		}
	}

	ids := make([]uuid.UUID, 0, len(matches))
	for _, s := range matches {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// rewriteTerm normalizes and applies the alias table, falling back to the
// ordered suffix rules when no alias matches.
func (r *SpecialtyResolver) rewriteTerm(term string) string {
	normalized := normalizeTerm(term)

	if alias, ok := r.aliases[normalized]; ok {
		return alias
	}

	for _, rule := range r.suffixRules {
		if strings.HasSuffix(normalized, rule.from) {
			return strings.TrimSuffix(normalized, rule.from) + rule.to
		}
	}
	return normalized
}
