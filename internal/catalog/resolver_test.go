package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	Repository
	specialties   []Specialty
	searchResults []DoctorCandidate
	listCalls     int
}

func (f *fakeRepo) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	f.listCalls++
	return f.specialties, nil
}

func (f *fakeRepo) FindSpecialtiesByName(ctx context.Context, term string) ([]Specialty, error) {
	needle := normalizeTerm(term)
	var out []Specialty
	for _, s := range f.specialties {
		if strings.Contains(normalizeTerm(s.Name), needle) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeRepo) SearchDoctors(ctx context.Context, query string, limit int) ([]DoctorCandidate, error) {
	if limit > len(f.searchResults) {
		limit = len(f.searchResults)
	}
	return f.searchResults[:limit], nil
}

func TestSpecialtyResolver_ByID(t *testing.T) {
	id := uuid.New()
	r := NewSpecialtyResolver(&fakeRepo{})

	ids, err := r.ResolveIDs(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, ids)
}

func TestSpecialtyResolver_DirectMatch(t *testing.T) {
	cardio := Specialty{ID: uuid.New(), Name: "Cardiologia"}
	derma := Specialty{ID: uuid.New(), Name: "Dermatologia"}
	r := NewSpecialtyResolver(&fakeRepo{specialties: []Specialty{cardio, derma}})

	ids, err := r.ResolveIDs(context.Background(), "cardiologia")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{cardio.ID}, ids)
}

func TestSpecialtyResolver_AliasMatchesSameAsCanonical(t *testing.T) {
	cardio := Specialty{ID: uuid.New(), Name: "Cardiologia"}
	r := NewSpecialtyResolver(&fakeRepo{specialties: []Specialty{cardio}})

	byTitle, err := r.ResolveIDs(context.Background(), "cardiologista")
	require.NoError(t, err)
	byName, err := r.ResolveIDs(context.Background(), "cardiologia")
	require.NoError(t, err)

	assert.Equal(t, byName, byTitle)
}

func TestSpecialtyResolver_SuffixRewrite(t *testing.T) {
	// Not in the alias table; the ordered suffix rules must kick in.
	fono := Specialty{ID: uuid.New(), Name: "Fonoaudiologia"}
	r := NewSpecialtyResolver(&fakeRepo{specialties: []Specialty{fono}})

	ids, err := r.ResolveIDs(context.Background(), "fonoaudiologista")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{fono.ID}, ids)
}

func TestSpecialtyResolver_Diacritics(t *testing.T) {
	ped := Specialty{ID: uuid.New(), Name: "Pediatria"}
	r := NewSpecialtyResolver(&fakeRepo{specialties: []Specialty{ped}})

	ids, err := r.ResolveIDs(context.Background(), "PEDIATRA")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ped.ID}, ids)
}

func TestSpecialtyResolver_NoMatchIsEmptyNotError(t *testing.T) {
	r := NewSpecialtyResolver(&fakeRepo{})

	ids, err := r.ResolveIDs(context.Background(), "alquimia")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = r.ResolveIDs(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func candidate(name string, score float64) DoctorCandidate {
	return DoctorCandidate{
		Doctor: Doctor{ID: uuid.New(), Name: name, SpecialtyID: uuid.New()},
		Score:  score,
	}
}

func TestDoctorResolver_EmptyQueryNeedsQuery(t *testing.T) {
	r := NewDoctorResolver(&fakeRepo{})

	res, err := r.Resolve(context.Background(), "   ", 20)
	require.NoError(t, err)
	assert.True(t, res.NeedsQuery)
	assert.Nil(t, res.ResolvedID)
}

func TestDoctorResolver_UniqueCandidate(t *testing.T) {
	only := candidate("Ana Souza", 0.4)
	r := NewDoctorResolver(&fakeRepo{searchResults: []DoctorCandidate{only}})

	res, err := r.Resolve(context.Background(), "Ana", 20)
	require.NoError(t, err)
	require.NotNil(t, res.ResolvedID)
	assert.Equal(t, only.ID, *res.ResolvedID)
	assert.Equal(t, ResolvedByUnique, res.ResolvedBy)
	assert.Equal(t, float64(1), res.Confidence)
}

func TestDoctorResolver_FuzzyDominantCandidate(t *testing.T) {
	best := candidate("Ana Beatriz Souza", 0.913)
	second := candidate("Ana Silva", 0.55)
	r := NewDoctorResolver(&fakeRepo{searchResults: []DoctorCandidate{best, second}})

	res, err := r.Resolve(context.Background(), "Ana Beatriz", 20)
	require.NoError(t, err)
	require.NotNil(t, res.ResolvedID)
	assert.Equal(t, best.ID, *res.ResolvedID)
	assert.Equal(t, ResolvedByFuzzy, res.ResolvedBy)
	assert.Equal(t, 0.913, res.Confidence)
}

func TestDoctorResolver_AmbiguousCloseScores(t *testing.T) {
	// Neither high-confidence nor a wide enough margin: stay ambiguous.
	a := candidate("Ana Souza", 0.55)
	b := candidate("Ana Silva", 0.50)
	r := NewDoctorResolver(&fakeRepo{searchResults: []DoctorCandidate{a, b}})

	res, err := r.Resolve(context.Background(), "Ana", 20)
	require.NoError(t, err)
	assert.Nil(t, res.ResolvedID)
	assert.Len(t, res.Candidates, 2)
}

func TestDoctorResolver_HighScoreNarrowMarginStaysAmbiguous(t *testing.T) {
	a := candidate("Carlos Almeida", 0.9)
	b := candidate("Carlos Almeido", 0.85)
	r := NewDoctorResolver(&fakeRepo{searchResults: []DoctorCandidate{a, b}})

	res, err := r.Resolve(context.Background(), "Carlos Almeida", 20)
	require.NoError(t, err)
	assert.Nil(t, res.ResolvedID)
}

func TestDoctorResolver_HasMoreBlocksUniqueRule(t *testing.T) {
	results := []DoctorCandidate{
		candidate("Ana Souza", 0.5),
		candidate("Ana Silva", 0.45),
	}
	r := NewDoctorResolver(&fakeRepo{searchResults: results})

	// pageSize 1 returns one candidate but more pages exist, so the
	// single-candidate shortcut must not fire.
	res, err := r.Resolve(context.Background(), "Ana", 1)
	require.NoError(t, err)
	assert.True(t, res.HasMore)
	assert.Nil(t, res.ResolvedID)
	assert.Len(t, res.Candidates, 1)
}
