package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	sharedDomain "github.com/davicafu/skidash/internal/shared/domain"
	sharedQuery "github.com/davicafu/skidash/internal/shared/infra/platform/query"
	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
)

// MockDatasetSource simula la fuente del dataset.
type MockDatasetSource struct {
	mock.Mock
}

var _ skiDomain.DatasetSource = (*MockDatasetSource)(nil)

func (m *MockDatasetSource) Fetch(ctx context.Context) ([]skiDomain.SkiPass, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]skiDomain.SkiPass)
	return records, args.Error(1)
}

// MockPassRepository simula una fuente consultable (SQL, Mongo).
type MockPassRepository struct {
	mock.Mock
}

var _ skiDomain.PassRepository = (*MockPassRepository)(nil)

func (m *MockPassRepository) Fetch(ctx context.Context) ([]skiDomain.SkiPass, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]skiDomain.SkiPass)
	return records, args.Error(1)
}

func (m *MockPassRepository) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]skiDomain.SkiPass, error) {
	args := m.Called(ctx, criteria, pagination, sort)
	records, _ := args.Get(0).([]skiDomain.SkiPass)
	return records, args.Error(1)
}

func (m *MockPassRepository) Count(ctx context.Context, criteria sharedDomain.Criteria) (int, error) {
	args := m.Called(ctx, criteria)
	return args.Int(0), args.Error(1)
}

// MockAnalyticsRepository simula el registro analítico de cambios de sesión.
type MockAnalyticsRepository struct {
	mock.Mock
}

var _ skiDomain.SessionAnalyticsRepository = (*MockAnalyticsRepository)(nil)

func (m *MockAnalyticsRepository) LogBatch(ctx context.Context, changes []skiDomain.SessionChanged) error {
	args := m.Called(ctx, changes)
	return args.Error(0)
}

// SamplePasses es el dataset de referencia de los tests de servicio y HTTP.
func SamplePasses() []skiDomain.SkiPass {
	return []skiDomain.SkiPass{
		{ID: 1, Saison: skiDomain.SaisonHiver, Prix: 100, Age: 20, Niveau: skiDomain.NiveauNovice, Compte: true, Passe: skiDomain.PasseSimple},
		{ID: 2, Saison: skiDomain.SaisonHiver, Prix: 300, Age: 40, Niveau: skiDomain.NiveauPro, Compte: false, Passe: skiDomain.PasseIllimite},
		{ID: 3, Saison: skiDomain.SaisonEte, Prix: 150, Age: 25, Niveau: skiDomain.NiveauMoyen, Compte: true, Passe: skiDomain.PasseDouble},
		{ID: 4, Saison: skiDomain.SaisonPrintemps, Prix: 80, Age: 12, Niveau: skiDomain.NiveauNovice, Compte: false, Passe: skiDomain.PasseSimple},
		{ID: 5, Saison: skiDomain.SaisonAutomne, Prix: 220.5, Age: 33, Niveau: skiDomain.NiveauPro, Compte: true, Passe: skiDomain.PasseDouble},
		{ID: 6, Saison: skiDomain.SaisonHiver, Prix: 410, Age: 58, Niveau: skiDomain.NiveauMoyen, Compte: true, Passe: skiDomain.PasseIllimite},
		{ID: 7, Saison: skiDomain.SaisonEte, Prix: 95, Age: 19, Niveau: skiDomain.NiveauNovice, Compte: false, Passe: skiDomain.PasseSimple},
	}
}

// ManyPasses genera n registros con ids 1..n.
func ManyPasses(n int) []skiDomain.SkiPass {
	out := make([]skiDomain.SkiPass, n)
	for i := range out {
		out[i] = skiDomain.SkiPass{
			ID:     i + 1,
			Saison: skiDomain.SaisonHiver,
			Prix:   float64(50 + i),
			Age:    18 + i%40,
			Niveau: skiDomain.NiveauMoyen,
			Passe:  skiDomain.PasseDouble,
		}
	}
	return out
}
