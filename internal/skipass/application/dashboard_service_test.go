package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sharedQuery "github.com/davicafu/skidash/internal/shared/infra/platform/query"
	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
	"github.com/davicafu/skidash/tests/mocks"
)

type fixture struct {
	service  *DashboardService
	source   *mocks.MockDatasetSource
	sessions *mocks.InMemorySessionRepo
	bus      *mocks.RecordingBus
	cache    *mocks.DummyCache
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		source:   new(mocks.MockDatasetSource),
		sessions: mocks.NewInMemorySessionRepo(),
		bus:      &mocks.RecordingBus{},
		cache:    mocks.NewDummyCache(),
	}
	f.service = NewDashboardService(f.source, f.sessions, f.cache, f.bus, zap.NewNop(), opts)
	return f
}

func loadedFixture(t *testing.T, records []skiDomain.SkiPass) *fixture {
	t.Helper()
	f := newFixture(t, Options{})
	f.source.On("Fetch", mock.Anything).Return(records, nil).Once()
	require.NoError(t, f.service.Load(context.Background()))
	return f
}

func allFilters(limits skiDomain.Limits) skiDomain.FilterState {
	return skiDomain.NewFilterState(limits)
}

// -------------------- Carga --------------------

func TestLoad_Success(t *testing.T) {
	// Arrange
	f := newFixture(t, Options{})
	f.source.On("Fetch", mock.Anything).Return(mocks.SamplePasses(), nil).Once()

	// Act
	err := f.service.Load(context.Background())

	// Assert
	require.NoError(t, err)
	info := f.service.Dataset()
	assert.Equal(t, StatusReady, info.Status)
	assert.Equal(t, 7, info.Count)
	assert.Equal(t, skiDomain.Range{Min: 12, Max: 58}, info.Limits.Age)
	assert.Equal(t, skiDomain.Range{Min: 80, Max: 410}, info.Limits.Prix)
	assert.Empty(t, info.Error)

	select {
	case <-f.service.Loaded():
	default:
		t.Fatal("Loaded debería estar cerrado tras la carga")
	}
}

func TestLoad_RunsOnlyOnce(t *testing.T) {
	f := loadedFixture(t, mocks.SamplePasses())

	require.NoError(t, f.service.Load(context.Background()))
	require.NoError(t, f.service.Load(context.Background()))

	f.source.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestLoad_FailureIsSurfaced(t *testing.T) {
	// Arrange
	f := newFixture(t, Options{})
	f.source.On("Fetch", mock.Anything).Return(nil, errors.New("connection refused")).Once()

	// Act
	err := f.service.Load(context.Background())

	// Assert
	assert.ErrorIs(t, err, skiDomain.ErrDatasetUnavailable)
	info := f.service.Dataset()
	assert.Equal(t, StatusFailed, info.Status)
	assert.Contains(t, info.Error, "connection refused")
	assert.Equal(t, 0, info.Count)
	f.source.AssertNumberOfCalls(t, "Fetch", 1)

	v := f.service.View(context.Background(), ViewQuery{Filters: f.service.DefaultFilters(), Criteria: skiDomain.DefaultCriteria, Page: 1})
	assert.Equal(t, StatusFailed, v.Status, "el fallo se distingue de un resultado vacío")
	assert.Equal(t, 0, v.FilteredCount)
	assert.Equal(t, 0.0, v.AveragePrice)
	assert.Equal(t, 1, v.Page.DisplayPages)
	assert.Empty(t, v.Page.Rows)
}

func TestLoad_RetriesWhenConfigured(t *testing.T) {
	f := newFixture(t, Options{LoadAttempts: 3, RetryDelay: time.Millisecond})
	f.source.On("Fetch", mock.Anything).Return(nil, errors.New("timeout")).Once()
	f.source.On("Fetch", mock.Anything).Return(mocks.SamplePasses(), nil).Once()

	require.NoError(t, f.service.Load(context.Background()))

	assert.Equal(t, StatusReady, f.service.Dataset().Status)
	f.source.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestLoad_DuplicateIDsFail(t *testing.T) {
	records := mocks.SamplePasses()
	records[1].ID = records[0].ID

	f := newFixture(t, Options{})
	f.source.On("Fetch", mock.Anything).Return(records, nil).Once()

	err := f.service.Load(context.Background())

	assert.ErrorIs(t, err, skiDomain.ErrDuplicateID)
	assert.Equal(t, StatusFailed, f.service.Dataset().Status)
}

// -------------------- Vista sin estado --------------------

func TestView_BeforeLoadIsEmpty(t *testing.T) {
	f := newFixture(t, Options{})

	v := f.service.View(context.Background(), ViewQuery{Filters: f.service.DefaultFilters(), Criteria: skiDomain.DefaultCriteria, Page: 1})

	assert.Equal(t, StatusLoading, v.Status)
	assert.Equal(t, 0, v.FilteredCount)
	assert.Empty(t, v.PriceSeries.Labels)
	assert.Empty(t, v.Breakdown.Labels)
	assert.Equal(t, "Page 1 sur 1", v.Page.Label)
	assert.Equal(t, skiDomain.DefaultAgeRange, v.Filters.AgeRange)
	assert.Equal(t, 0, f.cache.Sets(), "las vistas previas a la carga no se cachean")
}

func TestView_WorkedExample(t *testing.T) {
	// Arrange
	records := []skiDomain.SkiPass{
		{ID: 1, Prix: 100, Age: 20, Niveau: skiDomain.NiveauNovice, Saison: skiDomain.SaisonHiver, Passe: skiDomain.PasseSimple},
		{ID: 2, Prix: 300, Age: 40, Niveau: skiDomain.NiveauPro, Saison: skiDomain.SaisonHiver, Passe: skiDomain.PasseSimple},
	}
	f := loadedFixture(t, records)
	filters := f.service.DefaultFilters()
	filters.AgeRange = skiDomain.Range{Min: 0, Max: 30}

	// Act
	v := f.service.View(context.Background(), ViewQuery{Filters: filters, Criteria: skiDomain.CriteriaNiveau, Page: 1})

	// Assert
	require.Len(t, v.Page.Rows, 1)
	assert.Equal(t, 1, v.Page.Rows[0].ID)
	assert.Equal(t, "Non", v.Page.Rows[0].CompteLabel)
	assert.Equal(t, 100.0, v.AveragePrice)
	assert.Equal(t, "100.00 €", v.AveragePriceLabel)
	assert.Equal(t, 1, v.Page.TotalPages)
	assert.Equal(t, []string{"novice"}, v.Breakdown.Labels)
	assert.Equal(t, []float64{1}, v.Breakdown.Datasets[0].Data)
	assert.Equal(t, "Répartition par niveau", v.Breakdown.Datasets[0].Label)
	assert.Equal(t, []string{"Prix 1"}, v.PriceSeries.Labels)
	assert.Equal(t, PriceSeriesColor, v.PriceSeries.Datasets[0].BackgroundColor)
}

func TestView_InvalidPageFallsBackToFirst(t *testing.T) {
	f := loadedFixture(t, mocks.ManyPasses(25))
	filters := f.service.DefaultFilters()

	v := f.service.View(context.Background(), ViewQuery{Filters: filters, Criteria: skiDomain.DefaultCriteria, Page: 3})
	assert.Equal(t, 3, v.Page.Current)
	assert.Len(t, v.Page.Rows, 5)

	v = f.service.View(context.Background(), ViewQuery{Filters: filters, Criteria: skiDomain.DefaultCriteria, Page: 9})
	assert.Equal(t, 1, v.Page.Current)
	assert.Len(t, v.Page.Rows, 10)
}

func TestView_CacheAside(t *testing.T) {
	f := loadedFixture(t, mocks.SamplePasses())
	q := ViewQuery{Filters: f.service.DefaultFilters(), Criteria: skiDomain.CriteriaSaison, Page: 1}

	first := f.service.View(context.Background(), q)

	assert.Eventually(t, func() bool { return f.cache.Has(viewCacheKey(q)) }, time.Second, 5*time.Millisecond,
		"la vista debería cachearse en segundo plano")

	second := f.service.View(context.Background(), q)
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.JSONEq(t, string(a), string(b), "la vista cacheada es idéntica a la calculada")
}

// -------------------- Sesiones --------------------

func TestCreateSession_InitializesToLimits(t *testing.T) {
	f := loadedFixture(t, mocks.SamplePasses())

	v, err := f.service.CreateSession(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, v.SessionID)
	assert.Equal(t, skiDomain.Range{Min: 12, Max: 58}, v.Filters.AgeRange)
	assert.Equal(t, skiDomain.Range{Min: 80, Max: 410}, v.Filters.PriceRange)
	assert.Equal(t, 7, v.FilteredCount, "con los límites iniciales se ven todos los registros")
	assert.Equal(t, []string{skiDomain.SessionCreated}, f.bus.Types())

	last, _ := f.bus.Last()
	assert.Equal(t, v.SessionID, last.Key)
}

func TestGetSession_AppliesLimitsAfterLateLoad(t *testing.T) {
	// Arrange: la sesión se crea mientras el dataset aún carga
	f := newFixture(t, Options{})
	v, err := f.service.CreateSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusLoading, v.Status)
	assert.Equal(t, skiDomain.DefaultPriceRange, v.Filters.PriceRange)

	f.source.On("Fetch", mock.Anything).Return(mocks.SamplePasses(), nil).Once()
	require.NoError(t, f.service.Load(context.Background()))
	id := uuid.MustParse(v.SessionID)

	// Act
	v, err = f.service.GetSession(context.Background(), id)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, StatusReady, v.Status)
	assert.Equal(t, skiDomain.Range{Min: 80, Max: 410}, v.Filters.PriceRange)
	assert.Equal(t, []string{skiDomain.SessionCreated, skiDomain.SessionUpdated}, f.bus.Types())

	// Una segunda lectura no vuelve a aplicar los límites
	_, err = f.service.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, f.bus.Types(), 2)
}

func TestGetSession_NotFound(t *testing.T) {
	f := loadedFixture(t, mocks.SamplePasses())

	_, err := f.service.GetSession(context.Background(), uuid.New())

	assert.ErrorIs(t, err, skiDomain.ErrSessionNotFound)
}

func TestUpdateFilter_ResetsPageAndPublishes(t *testing.T) {
	// Arrange
	f := loadedFixture(t, mocks.ManyPasses(35))
	v, err := f.service.CreateSession(context.Background())
	require.NoError(t, err)
	id := uuid.MustParse(v.SessionID)

	v, changed, err := f.service.ChangePage(context.Background(), id, 3)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, 3, v.Page.Current)

	// Act: la página 3 seguiría siendo válida, pero se vuelve a la 1
	v, err = f.service.UpdateFilter(context.Background(), id, skiDomain.FilterUpdate{Field: skiDomain.FilterPriceRange, Range: skiDomain.Range{Min: 0, Max: 1000}})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, v.Page.Current)

	last, ok := f.bus.Last()
	require.True(t, ok)
	assert.Equal(t, skiDomain.SessionUpdated, last.Type)

	var change skiDomain.SessionChanged
	require.NoError(t, json.Unmarshal(last.Data, &change))
	assert.Equal(t, skiDomain.ChangeFilter, change.Change)
	assert.Equal(t, "priceRange", change.Field)
	assert.Equal(t, 35, change.FilteredCount)
}

func TestUpdateFilter_InvalidValue(t *testing.T) {
	f := loadedFixture(t, mocks.SamplePasses())
	v, err := f.service.CreateSession(context.Background())
	require.NoError(t, err)
	savesBefore := f.sessions.Saves

	_, err = f.service.UpdateFilter(context.Background(), uuid.MustParse(v.SessionID), skiDomain.FilterUpdate{Field: skiDomain.FilterNiveau, Value: "expert"})

	assert.ErrorIs(t, err, skiDomain.ErrInvalidFilter)
	assert.Equal(t, savesBefore, f.sessions.Saves, "un filtro inválido no persiste nada")
	assert.Len(t, f.bus.Types(), 1)
}

func TestChangePage_OutOfRangeIsNoop(t *testing.T) {
	f := loadedFixture(t, mocks.ManyPasses(15))
	v, err := f.service.CreateSession(context.Background())
	require.NoError(t, err)
	id := uuid.MustParse(v.SessionID)

	for _, n := range []int{0, -1, 3} {
		v, changed, err := f.service.ChangePage(context.Background(), id, n)
		require.NoError(t, err)
		assert.False(t, changed, "página %d", n)
		assert.Equal(t, 1, v.Page.Current)
	}
	assert.Len(t, f.bus.Types(), 1, "un cambio rechazado no publica eventos")

	v, changed, err := f.service.ChangePage(context.Background(), id, 2)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, v.Page.Rows, 5)
}

func TestSelectCriteria_KeepsPage(t *testing.T) {
	f := loadedFixture(t, mocks.ManyPasses(25))
	v, err := f.service.CreateSession(context.Background())
	require.NoError(t, err)
	id := uuid.MustParse(v.SessionID)
	_, _, err = f.service.ChangePage(context.Background(), id, 2)
	require.NoError(t, err)

	v, err = f.service.SelectCriteria(context.Background(), id, skiDomain.CriteriaAge)

	require.NoError(t, err)
	assert.Equal(t, skiDomain.CriteriaAge, v.Criteria)
	assert.Equal(t, 2, v.Page.Current)
	assert.Equal(t, "Répartition par age", v.Breakdown.Datasets[0].Label)
}

func TestSelectCriteria_Invalid(t *testing.T) {
	f := loadedFixture(t, mocks.SamplePasses())
	v, err := f.service.CreateSession(context.Background())
	require.NoError(t, err)

	_, err = f.service.SelectCriteria(context.Background(), uuid.MustParse(v.SessionID), "couleur")

	assert.ErrorIs(t, err, skiDomain.ErrInvalidCriteria)
	assert.Len(t, f.bus.Types(), 1, "solo el evento de creación")
}

func TestDeleteSession(t *testing.T) {
	f := loadedFixture(t, mocks.SamplePasses())
	v, err := f.service.CreateSession(context.Background())
	require.NoError(t, err)
	id := uuid.MustParse(v.SessionID)

	require.NoError(t, f.service.DeleteSession(context.Background(), id))

	_, err = f.service.GetSession(context.Background(), id)
	assert.ErrorIs(t, err, skiDomain.ErrSessionNotFound)
	assert.ErrorIs(t, f.service.DeleteSession(context.Background(), id), skiDomain.ErrSessionNotFound)
	assert.Equal(t, []string{skiDomain.SessionCreated, skiDomain.SessionDeleted}, f.bus.Types())
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	f := loadedFixture(t, mocks.SamplePasses())
	f.bus.Err = errors.New("broker down")

	v, err := f.service.CreateSession(context.Background())
	require.NoError(t, err)

	_, err = f.service.UpdateFilter(context.Background(), uuid.MustParse(v.SessionID), skiDomain.FilterUpdate{Field: skiDomain.FilterSaison, Value: "hiver"})
	assert.NoError(t, err)
}

func TestSaveFailureIsReturned(t *testing.T) {
	f := loadedFixture(t, mocks.SamplePasses())
	f.sessions.FailSave = errors.New("redis down")

	_, err := f.service.CreateSession(context.Background())

	assert.Error(t, err)
	assert.Empty(t, f.bus.Types())
}

// TestConcurrentUpdates_NoLostWrites: las escrituras sobre una misma sesión se serializan.
func TestConcurrentUpdates_NoLostWrites(t *testing.T) {
	f := loadedFixture(t, mocks.SamplePasses())
	v, err := f.service.CreateSession(context.Background())
	require.NoError(t, err)
	id := uuid.MustParse(v.SessionID)
	startVersion := v.Version

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value := string(skiDomain.Saisons()[i%len(skiDomain.Saisons())])
			_, err := f.service.UpdateFilter(context.Background(), id, skiDomain.FilterUpdate{Field: skiDomain.FilterSaison, Value: value})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	v, err = f.service.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, startVersion+writers, v.Version)
}

func TestSessionLocks_Bounded(t *testing.T) {
	f := loadedFixture(t, mocks.SamplePasses())

	distinct := map[*sync.Mutex]struct{}{}
	for i := 0; i < 1000; i++ {
		id := uuid.New()
		_, err := f.service.GetSession(context.Background(), id)
		assert.ErrorIs(t, err, skiDomain.ErrSessionNotFound)

		mu := f.service.lockFor(id)
		assert.Same(t, mu, f.service.lockFor(id), "un id siempre cae en la misma franja")
		distinct[mu] = struct{}{}
	}
	assert.LessOrEqual(t, len(distinct), lockStripes, "los ids desconocidos no reservan memoria nueva")
}

// -------------------- Páginas desde el almacenamiento --------------------

func repoFixture(t *testing.T) (*DashboardService, *mocks.MockPassRepository) {
	t.Helper()
	repo := new(mocks.MockPassRepository)
	repo.On("Fetch", mock.Anything).Return(mocks.SamplePasses(), nil).Once()
	svc := NewDashboardService(repo, mocks.NewInMemorySessionRepo(), nil, nil, zap.NewNop(), Options{PageSize: 3})
	require.NoError(t, svc.Load(context.Background()))
	return svc, repo
}

func TestView_PageRowsFromStore(t *testing.T) {
	svc, repo := repoFixture(t)
	filters := allFilters(skiDomain.ComputeLimits(mocks.SamplePasses()))
	stored := []skiDomain.SkiPass{mocks.SamplePasses()[6]}

	repo.On("Count", mock.Anything, filters.Criteria()).Return(7, nil).Once()
	repo.On("ListByCriteria", mock.Anything, filters.Criteria(), sharedQuery.PageToOffset(3, 3), sharedQuery.Sort{}).
		Return(stored, nil).Once()

	v := svc.View(context.Background(), ViewQuery{Filters: filters, Criteria: skiDomain.CriteriaNiveau, Page: 3})

	require.Len(t, v.Page.Rows, 1)
	assert.Equal(t, 7, v.Page.Rows[0].ID)
	assert.Equal(t, 7, v.FilteredCount, "los gráficos siguen usando el subconjunto completo")
	assert.Len(t, v.PriceSeries.Labels, 7)
	repo.AssertExpectations(t)
}

func TestSessionView_PageRowsFromStore(t *testing.T) {
	svc, repo := repoFixture(t)
	repo.On("Count", mock.Anything, mock.Anything).Return(7, nil)
	repo.On("ListByCriteria", mock.Anything, mock.Anything, sharedQuery.PageToOffset(1, 3), sharedQuery.Sort{}).
		Return(mocks.SamplePasses()[:3], nil)

	v, err := svc.CreateSession(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, []int{v.Page.Rows[0].ID, v.Page.Rows[1].ID, v.Page.Rows[2].ID})
	repo.AssertCalled(t, "ListByCriteria", mock.Anything, mock.Anything, sharedQuery.PageToOffset(1, 3), sharedQuery.Sort{})
}

func TestView_StoreMismatchFallsBackToMemory(t *testing.T) {
	tests := map[string]func(repo *mocks.MockPassRepository){
		"conteo distinto": func(repo *mocks.MockPassRepository) {
			repo.On("Count", mock.Anything, mock.Anything).Return(99, nil).Once()
		},
		"fallo al contar": func(repo *mocks.MockPassRepository) {
			repo.On("Count", mock.Anything, mock.Anything).Return(0, errors.New("conexión perdida")).Once()
		},
		"fallo al listar": func(repo *mocks.MockPassRepository) {
			repo.On("Count", mock.Anything, mock.Anything).Return(7, nil).Once()
			repo.On("ListByCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(nil, errors.New("timeout")).Once()
		},
	}

	for name, setup := range tests {
		t.Run(name, func(t *testing.T) {
			svc, repo := repoFixture(t)
			setup(repo)
			filters := allFilters(skiDomain.ComputeLimits(mocks.SamplePasses()))

			v := svc.View(context.Background(), ViewQuery{Filters: filters, Criteria: skiDomain.CriteriaNiveau, Page: 1})

			require.Len(t, v.Page.Rows, 3)
			assert.Equal(t, []int{1, 2, 3}, []int{v.Page.Rows[0].ID, v.Page.Rows[1].ID, v.Page.Rows[2].ID})
			repo.AssertExpectations(t)
		})
	}
}

// -------------------- Opciones --------------------

func TestNewFilterOptions(t *testing.T) {
	opts := NewFilterOptions()

	assert.Equal(t, Option{Value: "all", Label: "Toutes"}, opts.Saison[0])
	assert.Equal(t, Option{Value: "été", Label: "Été"}, opts.Saison[2])
	assert.Equal(t, Option{Value: "all", Label: "Tous"}, opts.Niveau[0])
	assert.Equal(t, Option{Value: "illimité", Label: "Illimité"}, opts.Passe[3])
	assert.Equal(t, []Option{{"all", "Tous"}, {"true", "Oui"}, {"false", "Non"}}, opts.Compte)
	assert.Equal(t, Option{Value: "age", Label: "Âge"}, opts.Criteria[4])
	assert.Equal(t, Option{Value: "niveau", Label: "Niveau"}, opts.Criteria[0])
}

func TestBuildView_TableRows(t *testing.T) {
	records := mocks.SamplePasses()
	info := DatasetInfo{Status: StatusReady, Limits: skiDomain.ComputeLimits(records)}

	v := buildView(info, allFilters(info.Limits), skiDomain.CriteriaCompte, records, records, 1, 10)

	require.Len(t, v.Page.Rows, 7)
	assert.Equal(t, "Oui", v.Page.Rows[0].CompteLabel)
	assert.Equal(t, "Non", v.Page.Rows[1].CompteLabel)
	assert.Equal(t, []string{"true", "false"}, v.Breakdown.Labels)
	assert.Equal(t, []string{"hsl(0, 70%, 50%)", "hsl(180, 70%, 50%)"}, v.Breakdown.Datasets[0].BackgroundColor)
	assert.Len(t, v.PriceSeries.Datasets[0].Data, 7)
	assert.Equal(t, "193.64 €", v.AveragePriceLabel)
}
