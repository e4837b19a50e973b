package application

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	// --- Importaciones del dominio y compartidas ---
	sharedEvents "github.com/davicafu/skidash/internal/shared/events"
	sharedBus "github.com/davicafu/skidash/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/skidash/internal/shared/infra/platform/cache"
	sharedQuery "github.com/davicafu/skidash/internal/shared/infra/platform/query"
	sharedUtils "github.com/davicafu/skidash/internal/shared/infra/utils"
	skiDomain "github.com/davicafu/skidash/internal/skipass/domain"
)

// Options agrupa los parámetros del servicio que vienen de configuración.
type Options struct {
	PageSize     int
	LoadAttempts int
	RetryDelay   time.Duration
	ViewCacheTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = skiDomain.DefaultPageSize
	}
	if o.LoadAttempts < 1 {
		o.LoadAttempts = 1
	}
	if o.ViewCacheTTL <= 0 {
		o.ViewCacheTTL = time.Minute
	}
	return o
}

// DashboardService define los casos de uso del tablero: carga única del dataset,
// vistas derivadas y sesiones con su estado de filtros.
type DashboardService struct {
	source   skiDomain.DatasetSource
	repo     skiDomain.PassRepository // nil si la fuente no admite consultas
	sessions skiDomain.SessionRepository
	cache    sharedCache.Cache
	bus      sharedBus.EventBus
	log      *zap.Logger
	opts     Options

	loadOnce sync.Once
	loaded   chan struct{}
	mu       sync.RWMutex
	dataset  *skiDomain.Dataset
	status   LoadStatus
	loadErr  error

	// las escrituras sobre una misma sesión se serializan en su franja
	locks [lockStripes]sync.Mutex
}

// lockStripes acota la memoria de los locks con independencia del número de ids recibidos.
const lockStripes = 64

// NewDashboardService es el constructor. cache y bus son opcionales (nil).
func NewDashboardService(
	source skiDomain.DatasetSource,
	sessions skiDomain.SessionRepository,
	cache sharedCache.Cache,
	bus sharedBus.EventBus,
	log *zap.Logger,
	opts Options,
) *DashboardService {
	repo, _ := source.(skiDomain.PassRepository)
	return &DashboardService{
		source:   source,
		repo:     repo,
		sessions: sessions,
		cache:    cache,
		bus:      bus,
		log:      log,
		opts:     opts.withDefaults(),
		loaded:   make(chan struct{}),
		status:   StatusLoading,
	}
}

// ---------------- Carga del dataset ----------------

// Load obtiene la colección una única vez por proceso. Las llamadas
// posteriores devuelven el resultado de la primera.
func (s *DashboardService) Load(ctx context.Context) error {
	s.loadOnce.Do(func() {
		defer close(s.loaded)

		var records []skiDomain.SkiPass
		err := sharedUtils.Retry(ctx, s.opts.LoadAttempts, s.opts.RetryDelay, func() error {
			var errFetch error
			records, errFetch = s.source.Fetch(ctx)
			return errFetch
		})

		var ds *skiDomain.Dataset
		if err == nil {
			ds, err = skiDomain.NewDataset(records)
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if err != nil {
			s.status = StatusFailed
			s.loadErr = fmt.Errorf("%w: %w", skiDomain.ErrDatasetUnavailable, err)
			s.log.Error("Failed to load dataset", zap.Int("attempts", s.opts.LoadAttempts), zap.Error(err))
			return
		}

		s.dataset = ds
		s.status = StatusReady
		s.log.Info("Dataset loaded",
			zap.Int("records", ds.Len()),
			zap.Any("limits", ds.Limits()),
		)
	})

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Loaded se cierra cuando la carga termina, con éxito o no.
func (s *DashboardService) Loaded() <-chan struct{} {
	return s.loaded
}

func (s *DashboardService) snapshot() (*skiDomain.Dataset, DatasetInfo) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := DatasetInfo{
		Status:  s.status,
		Count:   s.dataset.Len(),
		Limits:  s.dataset.Limits(),
		Options: NewFilterOptions(),
	}
	if s.loadErr != nil {
		info.Error = s.loadErr.Error()
	}
	return s.dataset, info
}

// Dataset devuelve el estado de la carga y los límites observados.
func (s *DashboardService) Dataset() DatasetInfo {
	_, info := s.snapshot()
	return info
}

// PageSize es el tamaño fijo de página de la tabla.
func (s *DashboardService) PageSize() int {
	return s.opts.PageSize
}

// DefaultFilters es el estado inicial: todo en "all" y los rangos en los límites
// si el dataset ya está cargado.
func (s *DashboardService) DefaultFilters() skiDomain.FilterState {
	ds, info := s.snapshot()
	if info.Status != StatusReady {
		return skiDomain.NewFilterState(skiDomain.Limits{Age: skiDomain.DefaultAgeRange, Prix: skiDomain.DefaultPriceRange})
	}
	return skiDomain.NewFilterState(ds.Limits())
}

// ---------------- Vista sin estado ----------------

// ViewQuery describe un tablero completo sin sesión.
type ViewQuery struct {
	Filters  skiDomain.FilterState
	Criteria skiDomain.BreakdownCriteria
	Page     int
}

func viewCacheKey(q ViewQuery) string {
	f := q.Filters
	return fmt.Sprintf("skipass:view:%s|%s|%s|%s|%g|%g|%g|%g|%s|%d",
		f.Saison, f.Niveau, f.Compte, f.Passe,
		f.AgeRange.Min, f.AgeRange.Max, f.PriceRange.Min, f.PriceRange.Max,
		q.Criteria, q.Page)
}

// View calcula la vista para un estado dado (cache-aside una vez cargado el dataset).
// Una página fuera de rango se sustituye por la primera.
func (s *DashboardService) View(ctx context.Context, q ViewQuery) DashboardView {
	ds, info := s.snapshot()
	key := viewCacheKey(q)

	// 1. Intentar obtener de la caché
	if info.Status == StatusReady && s.cache != nil {
		var v DashboardView
		if hit, _ := s.cache.Get(ctx, key, &v); hit {
			return v
		}
	}

	// 2. Calcular
	subset := ds.Filter(q.Filters)
	page := q.Page
	if !skiDomain.ValidPage(page, skiDomain.TotalPages(len(subset), s.opts.PageSize)) {
		page = 1
	}
	records := s.pageRecords(ctx, info, q.Filters, subset, page)
	v := buildView(info, q.Filters, q.Criteria, subset, records, page, s.opts.PageSize)

	// 3. Actualizar caché en segundo plano; las vistas previas a la carga no se guardan
	if info.Status == StatusReady {
		sharedCache.AsyncCacheSet(ctx, s.cache, key, v, sharedCache.TTLSeconds(s.opts.ViewCacheTTL), s.log)
	}
	return v
}

// ---------------- Sesiones ----------------

// CreateSession abre un tablero nuevo con los rangos en los límites del dataset.
func (s *DashboardService) CreateSession(ctx context.Context) (DashboardView, error) {
	sess := skiDomain.NewSession()
	ds, info := s.snapshot()
	if info.Status == StatusReady {
		sess.ApplyLimits(ds.Limits())
	}

	if err := s.sessions.Save(ctx, sess); err != nil {
		s.log.Error("Failed to save session", zap.String("session_id", sess.ID.String()), zap.Error(err))
		return DashboardView{}, err
	}

	subset := ds.Filter(sess.Filters)
	s.publish(ctx, sess, skiDomain.ChangeCreated, "", len(subset))
	return s.sessionView(ctx, info, sess, subset), nil
}

// GetSession devuelve la vista actual. Si el dataset terminó de cargar después
// de crear la sesión, inicializa ahora sus rangos.
func (s *DashboardService) GetSession(ctx context.Context, id uuid.UUID) (DashboardView, error) {
	v, _, err := s.mutate(ctx, id, nil)
	return v, err
}

// UpdateFilter cambia un único campo del filtro y vuelve a la página 1.
func (s *DashboardService) UpdateFilter(ctx context.Context, id uuid.UUID, u skiDomain.FilterUpdate) (DashboardView, error) {
	v, _, err := s.mutate(ctx, id, func(sess *skiDomain.Session, _ int) (skiDomain.ChangeKind, string, bool, error) {
		if err := sess.UpdateFilter(u); err != nil {
			return "", "", false, err
		}
		return skiDomain.ChangeFilter, string(u.Field), true, nil
	})
	return v, err
}

// SelectCriteria cambia el atributo del gráfico de reparto.
func (s *DashboardService) SelectCriteria(ctx context.Context, id uuid.UUID, c skiDomain.BreakdownCriteria) (DashboardView, error) {
	if _, err := skiDomain.ParseCriteria(string(c)); err != nil {
		return DashboardView{}, err
	}
	v, _, err := s.mutate(ctx, id, func(sess *skiDomain.Session, _ int) (skiDomain.ChangeKind, string, bool, error) {
		sess.SelectCriteria(c)
		return skiDomain.ChangeCriteria, "", true, nil
	})
	return v, err
}

// ChangePage salta a la página n. Fuera de [1, totalPages] no hace nada y
// devuelve changed=false sin error.
func (s *DashboardService) ChangePage(ctx context.Context, id uuid.UUID, n int) (DashboardView, bool, error) {
	return s.mutate(ctx, id, func(sess *skiDomain.Session, totalPages int) (skiDomain.ChangeKind, string, bool, error) {
		if !sess.SetPage(n, totalPages) {
			s.log.Debug("Page change ignored",
				zap.String("session_id", sess.ID.String()),
				zap.Int("page", n),
				zap.Int("total_pages", totalPages),
			)
			return skiDomain.ChangePage, "", false, nil
		}
		return skiDomain.ChangePage, "", true, nil
	})
}

// DeleteSession elimina la sesión y notifica a los suscriptores.
func (s *DashboardService) DeleteSession(ctx context.Context, id uuid.UUID) error {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		s.log.Error("Failed to delete session", zap.String("session_id", id.String()), zap.Error(err))
		return err
	}

	s.publish(ctx, sess, skiDomain.ChangeDeleted, "", 0)
	return nil
}

// mutation aplica un cambio a la sesión. totalPages se calcula con el filtro previo.
type mutation func(sess *skiDomain.Session, totalPages int) (kind skiDomain.ChangeKind, field string, changed bool, err error)

func (s *DashboardService) mutate(ctx context.Context, id uuid.UUID, fn mutation) (DashboardView, bool, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, skiDomain.ErrSessionNotFound) {
			s.log.Error("Failed to fetch session", zap.String("session_id", id.String()), zap.Error(err))
		}
		return DashboardView{}, false, err
	}

	ds, info := s.snapshot()
	limitsApplied := info.Status == StatusReady && sess.ApplyLimits(ds.Limits())

	var (
		kind    skiDomain.ChangeKind
		field   string
		changed bool
	)
	if fn != nil {
		total := skiDomain.TotalPages(len(ds.Filter(sess.Filters)), s.opts.PageSize)
		kind, field, changed, err = fn(sess, total)
		if err != nil {
			return DashboardView{}, false, err
		}
	}

	subset := ds.Filter(sess.Filters)
	if changed || limitsApplied {
		if err := s.sessions.Save(ctx, sess); err != nil {
			s.log.Error("Failed to save session", zap.String("session_id", id.String()), zap.Error(err))
			return DashboardView{}, false, err
		}
	}
	if limitsApplied {
		s.publish(ctx, sess, skiDomain.ChangeLimits, "", len(subset))
	}
	if changed {
		s.publish(ctx, sess, kind, field, len(subset))
	}

	return s.sessionView(ctx, info, sess, subset), changed, nil
}

func (s *DashboardService) lockFor(id uuid.UUID) *sync.Mutex {
	h := fnv.New32a()
	h.Write(id[:])
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *DashboardService) lock(id uuid.UUID) func() {
	mu := s.lockFor(id)
	mu.Lock()
	return mu.Unlock
}

func (s *DashboardService) sessionView(ctx context.Context, info DatasetInfo, sess *skiDomain.Session, subset []skiDomain.SkiPass) DashboardView {
	records := s.pageRecords(ctx, info, sess.Filters, subset, sess.Page)
	v := buildView(info, sess.Filters, sess.Criteria, subset, records, sess.Page, s.opts.PageSize)
	v.SessionID = sess.ID.String()
	v.Version = sess.Version
	return v
}

// pageRecords pide la página al almacenamiento cuando la fuente admite consultas.
// Si la consulta falla o el almacenamiento ya no coincide con el dataset cargado,
// la página se corta en memoria.
func (s *DashboardService) pageRecords(ctx context.Context, info DatasetInfo, f skiDomain.FilterState, subset []skiDomain.SkiPass, page int) []skiDomain.SkiPass {
	local := skiDomain.Paginate(subset, s.opts.PageSize, page)
	if s.repo == nil || info.Status != StatusReady {
		return local
	}

	criteria := f.Criteria()
	n, err := s.repo.Count(ctx, criteria)
	if err == nil && n != len(subset) {
		err = fmt.Errorf("store matches %d records, loaded dataset matches %d", n, len(subset))
	}
	var rows []skiDomain.SkiPass
	if err == nil {
		rows, err = s.repo.ListByCriteria(ctx, criteria, sharedQuery.PageToOffset(page, s.opts.PageSize), sharedQuery.Sort{})
	}
	if err != nil {
		s.log.Warn("Store page query failed, paginating in memory", zap.Int("page", page), zap.Error(err))
		return local
	}
	return rows
}

// publish notifica el cambio. Un fallo del bus nunca hace fallar la petición.
func (s *DashboardService) publish(ctx context.Context, sess *skiDomain.Session, kind skiDomain.ChangeKind, field string, filteredCount int) {
	if s.bus == nil {
		return
	}

	change := skiDomain.NewSessionChanged(sess, kind, field, filteredCount)
	evt, err := sharedEvents.NewIntegrationEvent(kind.EventType(), sess.PartitionKey(), change)
	if err != nil {
		s.log.Warn("Failed to build session event", zap.String("session_id", sess.ID.String()), zap.Error(err))
		return
	}

	if err := s.bus.Publish(ctx, evt); err != nil {
		s.log.Warn("⚠️ Failed to publish session event",
			zap.String("session_id", sess.ID.String()),
			zap.String("change", string(kind)),
			zap.Error(err),
		)
	}
}
