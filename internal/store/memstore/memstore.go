// Package memstore keeps the catalog, guides and users in process. It backs
// STORE_DRIVER=memory and the workflow tests.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"nietladen/internal/models"
	"nietladen/internal/store"
)

type link struct {
	guideID int64
	modelID int64
}

type state struct {
	brands  map[int64]models.Brand
	vmodels map[int64]models.VehicleModel
	guides  map[int64]models.Guide
	links   map[link]struct{}
	steps   map[int64]models.GuideStep
	users   map[int64]models.User
	nextID  int64
}

func newState() state {
	return state{
		brands:  make(map[int64]models.Brand),
		vmodels: make(map[int64]models.VehicleModel),
		guides:  make(map[int64]models.Guide),
		links:   make(map[link]struct{}),
		steps:   make(map[int64]models.GuideStep),
		users:   make(map[int64]models.User),
	}
}

// MemoryStore implements store.Store in memory. Handles passed to WithTx
// callbacks share the same data and record an undo journal.
type MemoryStore struct {
	*core
	j *journal
}

type core struct {
	mu        sync.RWMutex
	txMu      sync.Mutex
	data      state
	mutations atomic.Int64
	now       func() time.Time
}

// journal holds the inverse of every write made through a transaction
// handle, oldest first. Entries run with mu held.
type journal struct {
	undo []func(*state)
}

var _ store.Store = (*MemoryStore)(nil)

// New initializes an empty in-memory store.
func New() *MemoryStore {
	return &MemoryStore{core: &core{
		data: newState(),
		now:  func() time.Time { return time.Now().UTC() },
	}}
}

// Mutations returns how many write operations have been attempted.
func (m *MemoryStore) Mutations() int64 {
	return m.mutations.Load()
}

func (m *MemoryStore) write() {
	m.mutations.Add(1)
}

// IDs are never handed back on rollback, matching a database sequence.
func (m *MemoryStore) id() int64 {
	m.data.nextID++
	return m.data.nextID
}

// WithTx serializes transactions. Called on a transaction handle it opens a
// savepoint instead. A failed fn undoes only the writes made through its
// handle, so writes made meanwhile on the outer store survive.
func (m *MemoryStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	if m.j != nil {
		return m.savepoint(ctx, fn)
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.savepoint(ctx, fn)
}

func (m *MemoryStore) savepoint(ctx context.Context, fn func(store.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &MemoryStore{core: m.core, j: &journal{}}
	if err := fn(tx); err != nil {
		m.mu.Lock()
		for i := len(tx.j.undo) - 1; i >= 0; i-- {
			tx.j.undo[i](&m.data)
		}
		m.mu.Unlock()
		return err
	}
	if m.j != nil {
		m.j.undo = append(m.j.undo, tx.j.undo...)
	}
	return nil
}

// onRollback records fn for the enclosing transaction, if any. Callers hold mu.
func (m *MemoryStore) onRollback(fn func(*state)) {
	if m.j != nil {
		m.j.undo = append(m.j.undo, fn)
	}
}

func brandsOf(s *state) map[int64]models.Brand         { return s.brands }
func vmodelsOf(s *state) map[int64]models.VehicleModel { return s.vmodels }
func guidesOf(s *state) map[int64]models.Guide         { return s.guides }
func linksOf(s *state) map[link]struct{}               { return s.links }
func stepsOf(s *state) map[int64]models.GuideStep      { return s.steps }
func usersOf(s *state) map[int64]models.User           { return s.users }

// keep records the current row under k, or its absence, so a rollback puts
// it back. Call before writing the row. Callers hold mu.
func keep[K comparable, V any](m *MemoryStore, table func(*state) map[K]V, k K) {
	if m.j == nil {
		return
	}
	old, existed := table(&m.data)[k]
	m.onRollback(func(s *state) {
		if existed {
			table(s)[k] = old
		} else {
			delete(table(s), k)
		}
	})
}

// ---- brands ----

func (m *MemoryStore) brandGuideCount(brandID int64) int {
	seen := make(map[int64]struct{})
	for l := range m.data.links {
		vm, ok := m.data.vmodels[l.modelID]
		if !ok || vm.BrandID != brandID {
			continue
		}
		if g, ok := m.data.guides[l.guideID]; ok && g.Status == models.StatusApproved {
			seen[l.guideID] = struct{}{}
		}
	}
	return len(seen)
}

func (m *MemoryStore) modelGuideCount(modelID int64) int {
	n := 0
	for l := range m.data.links {
		if l.modelID != modelID {
			continue
		}
		if g, ok := m.data.guides[l.guideID]; ok && g.Status == models.StatusApproved {
			n++
		}
	}
	return n
}

func (m *MemoryStore) ListBrands(_ context.Context, includeAll bool) ([]models.Brand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]models.Brand, 0, len(m.data.brands))
	for _, b := range m.data.brands {
		if !includeAll && b.Status != models.StatusApproved {
			continue
		}
		b.GuideCount = m.brandGuideCount(b.ID)
		res = append(res, b)
	}
	slices.SortFunc(res, func(a, b models.Brand) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return res, nil
}

func (m *MemoryStore) GetBrandByID(_ context.Context, id int64) (*models.Brand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.data.brands[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	b.GuideCount = m.brandGuideCount(b.ID)
	return &b, nil
}

func (m *MemoryStore) GetBrandBySlug(_ context.Context, slug string) (*models.Brand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.data.brands {
		if b.Slug == slug {
			b.GuideCount = m.brandGuideCount(b.ID)
			return &b, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemoryStore) brandSlugTaken(slug string, exceptID int64) bool {
	for _, b := range m.data.brands {
		if b.Slug == slug && b.ID != exceptID {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateBrand(_ context.Context, b *models.Brand) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.brandSlugTaken(b.Slug, 0) {
		return store.ErrDuplicate
	}
	if b.Status == "" {
		b.Status = models.StatusApproved
	}
	b.ID = m.id()
	b.CreatedAt = m.now()
	b.UpdatedAt = b.CreatedAt
	keep(m, brandsOf, b.ID)
	m.data.brands[b.ID] = *b
	return nil
}

func (m *MemoryStore) UpdateBrand(_ context.Context, b *models.Brand) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.data.brands[b.ID]
	if !ok {
		return store.ErrNotFound
	}
	if m.brandSlugTaken(b.Slug, b.ID) {
		return store.ErrDuplicate
	}
	cur.Name = b.Name
	cur.Slug = b.Slug
	cur.LogoURL = b.LogoURL
	cur.UpdatedAt = m.now()
	keep(m, brandsOf, b.ID)
	m.data.brands[b.ID] = cur
	*b = cur
	return nil
}

func (m *MemoryStore) DeleteBrand(_ context.Context, id int64) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.brands[id]; !ok {
		return store.ErrNotFound
	}
	keep(m, brandsOf, id)
	delete(m.data.brands, id)
	for mid, vm := range m.data.vmodels {
		if vm.BrandID == id {
			m.deleteModelLocked(mid)
		}
	}
	return nil
}

func (m *MemoryStore) SetBrandStatus(_ context.Context, id int64, status models.Status) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data.brands[id]
	if !ok {
		return store.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = m.now()
	keep(m, brandsOf, id)
	m.data.brands[id] = b
	return nil
}

// ---- models ----

func (m *MemoryStore) withBrand(vm models.VehicleModel) models.VehicleModel {
	if b, ok := m.data.brands[vm.BrandID]; ok {
		vm.BrandName = b.Name
		vm.BrandSlug = b.Slug
		vm.BrandStatus = b.Status
	}
	vm.GuideCount = m.modelGuideCount(vm.ID)
	return vm
}

func (m *MemoryStore) ListModelsByBrand(_ context.Context, brandID int64, includeAll bool) ([]models.VehicleModel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []models.VehicleModel
	for _, vm := range m.data.vmodels {
		if vm.BrandID != brandID {
			continue
		}
		if !includeAll && vm.Status != models.StatusApproved {
			continue
		}
		res = append(res, m.withBrand(vm))
	}
	slices.SortFunc(res, func(a, b models.VehicleModel) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return res, nil
}

func (m *MemoryStore) GetModelByID(_ context.Context, id int64) (*models.VehicleModel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vm, ok := m.data.vmodels[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	vm = m.withBrand(vm)
	return &vm, nil
}

func (m *MemoryStore) modelSlugTaken(brandID int64, slug string, exceptID int64) bool {
	for _, vm := range m.data.vmodels {
		if vm.BrandID == brandID && vm.Slug == slug && vm.ID != exceptID {
			return true
		}
	}
	return false
}

func (m *MemoryStore) checkModelRefs(vm *models.VehicleModel) error {
	if _, ok := m.data.brands[vm.BrandID]; !ok {
		return store.ErrInvalidReference
	}
	if vm.ReferenceModelID != nil {
		if _, ok := m.data.vmodels[*vm.ReferenceModelID]; !ok {
			return store.ErrInvalidReference
		}
	}
	return nil
}

func (m *MemoryStore) CreateModel(_ context.Context, vm *models.VehicleModel) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkModelRefs(vm); err != nil {
		return err
	}
	if m.modelSlugTaken(vm.BrandID, vm.Slug, 0) {
		return store.ErrDuplicate
	}
	if vm.Status == "" {
		vm.Status = models.StatusApproved
	}
	vm.ID = m.id()
	vm.CreatedAt = m.now()
	vm.UpdatedAt = vm.CreatedAt
	keep(m, vmodelsOf, vm.ID)
	m.data.vmodels[vm.ID] = stripJoined(*vm)
	*vm = m.withBrand(*vm)
	return nil
}

func (m *MemoryStore) UpdateModel(_ context.Context, vm *models.VehicleModel) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.data.vmodels[vm.ID]
	if !ok {
		return store.ErrNotFound
	}
	if err := m.checkModelRefs(vm); err != nil {
		return err
	}
	if m.modelSlugTaken(vm.BrandID, vm.Slug, vm.ID) {
		return store.ErrDuplicate
	}
	cur.BrandID = vm.BrandID
	cur.Name = vm.Name
	cur.Slug = vm.Slug
	cur.YearRange = vm.YearRange
	cur.ReferenceModelID = vm.ReferenceModelID
	cur.UpdatedAt = m.now()
	keep(m, vmodelsOf, vm.ID)
	m.data.vmodels[vm.ID] = cur
	*vm = m.withBrand(cur)
	return nil
}

func stripJoined(vm models.VehicleModel) models.VehicleModel {
	vm.BrandName = ""
	vm.BrandSlug = ""
	vm.BrandStatus = ""
	vm.GuideCount = 0
	return vm
}

func (m *MemoryStore) deleteModelLocked(id int64) {
	keep(m, vmodelsOf, id)
	delete(m.data.vmodels, id)
	for l := range m.data.links {
		if l.modelID == id {
			keep(m, linksOf, l)
			delete(m.data.links, l)
		}
	}
	for oid, other := range m.data.vmodels {
		if other.ReferenceModelID != nil && *other.ReferenceModelID == id {
			keep(m, vmodelsOf, oid)
			other.ReferenceModelID = nil
			m.data.vmodels[oid] = other
		}
	}
}

func (m *MemoryStore) DeleteModel(_ context.Context, id int64) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.vmodels[id]; !ok {
		return store.ErrNotFound
	}
	m.deleteModelLocked(id)
	return nil
}

func (m *MemoryStore) SetModelStatus(_ context.Context, id int64, status models.Status) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	vm, ok := m.data.vmodels[id]
	if !ok {
		return store.ErrNotFound
	}
	vm.Status = status
	vm.UpdatedAt = m.now()
	keep(m, vmodelsOf, id)
	m.data.vmodels[id] = vm
	return nil
}

// ---- guides ----

func (m *MemoryStore) CreateGuide(_ context.Context, g *models.Guide) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.Status == "" {
		g.Status = models.StatusPending
	}
	g.ID = m.id()
	g.CreatedAt = m.now()
	g.UpdatedAt = g.CreatedAt
	keep(m, guidesOf, g.ID)
	m.data.guides[g.ID] = *g
	return nil
}

func (m *MemoryStore) GetGuideByID(_ context.Context, id int64) (*models.Guide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.data.guides[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &g, nil
}

func newestFirst(a, b models.Guide) int {
	return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
}

func (m *MemoryStore) ListGuides(_ context.Context, status models.Status) ([]models.Guide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []models.Guide
	for _, g := range m.data.guides {
		if status == "" || g.Status == status {
			res = append(res, g)
		}
	}
	slices.SortFunc(res, newestFirst)
	return res, nil
}

func (m *MemoryStore) ListGuidesForModel(_ context.Context, modelID int64, status models.Status) ([]models.Guide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []models.Guide
	for l := range m.data.links {
		if l.modelID != modelID {
			continue
		}
		if g, ok := m.data.guides[l.guideID]; ok && (status == "" || g.Status == status) {
			res = append(res, g)
		}
	}
	slices.SortFunc(res, func(a, b models.Guide) int {
		return cmp.Or(cmp.Compare(b.HelpfulCount, a.HelpfulCount), newestFirst(a, b))
	})
	return res, nil
}

func (m *MemoryStore) ListGuideModels(_ context.Context, guideID int64) ([]models.VehicleModel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []models.VehicleModel
	for l := range m.data.links {
		if l.guideID != guideID {
			continue
		}
		if vm, ok := m.data.vmodels[l.modelID]; ok {
			res = append(res, m.withBrand(vm))
		}
	}
	slices.SortFunc(res, func(a, b models.VehicleModel) int {
		return cmp.Or(cmp.Compare(a.BrandName, b.BrandName), cmp.Compare(a.Name, b.Name))
	})
	return res, nil
}

func (m *MemoryStore) LinkGuideModel(_ context.Context, guideID, modelID int64) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.guides[guideID]; !ok {
		return store.ErrInvalidReference
	}
	if _, ok := m.data.vmodels[modelID]; !ok {
		return store.ErrInvalidReference
	}
	keep(m, linksOf, link{guideID, modelID})
	m.data.links[link{guideID, modelID}] = struct{}{}
	return nil
}

func (m *MemoryStore) UpdateGuideStatus(_ context.Context, id int64, status models.Status, approvedBy *int64) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.data.guides[id]
	if !ok {
		return store.ErrNotFound
	}
	prevStatus, prevApprover := g.Status, g.ApprovedByUserID
	m.onRollback(func(s *state) {
		if g, ok := s.guides[id]; ok {
			g.Status, g.ApprovedByUserID = prevStatus, prevApprover
			s.guides[id] = g
		}
	})
	g.Status = status
	if approvedBy != nil {
		g.ApprovedByUserID = approvedBy
	}
	g.UpdatedAt = m.now()
	m.data.guides[id] = g
	return nil
}

func (m *MemoryStore) UpdateGuideSubmitter(_ context.Context, id int64, name string, email *string) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.data.guides[id]
	if !ok {
		return store.ErrNotFound
	}
	prevName, prevEmail := g.SubmittedByName, g.SubmittedByEmail
	m.onRollback(func(s *state) {
		if g, ok := s.guides[id]; ok {
			g.SubmittedByName, g.SubmittedByEmail = prevName, prevEmail
			s.guides[id] = g
		}
	})
	g.SubmittedByName = name
	g.SubmittedByEmail = email
	g.UpdatedAt = m.now()
	m.data.guides[id] = g
	return nil
}

func (m *MemoryStore) DeleteGuide(_ context.Context, id int64) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.guides[id]; !ok {
		return store.ErrNotFound
	}
	keep(m, guidesOf, id)
	delete(m.data.guides, id)
	for l := range m.data.links {
		if l.guideID == id {
			keep(m, linksOf, l)
			delete(m.data.links, l)
		}
	}
	for sid, s := range m.data.steps {
		if s.GuideID == id {
			keep(m, stepsOf, sid)
			delete(m.data.steps, sid)
		}
	}
	return nil
}

func (m *MemoryStore) IncrementFeedback(_ context.Context, id int64, helpful bool) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.data.guides[id]
	if !ok {
		return store.ErrNotFound
	}
	// Counters roll back by decrement so concurrent votes are kept
	m.onRollback(func(s *state) {
		if g, ok := s.guides[id]; ok {
			if helpful {
				g.HelpfulCount--
			} else {
				g.NotHelpfulCount--
			}
			s.guides[id] = g
		}
	})
	if helpful {
		g.HelpfulCount++
	} else {
		g.NotHelpfulCount++
	}
	m.data.guides[id] = g
	return nil
}

func (m *MemoryStore) CountGuidesByStatus(_ context.Context) (map[models.Status]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[models.Status]int)
	for _, g := range m.data.guides {
		counts[g.Status]++
	}
	return counts, nil
}

// ---- steps ----

func (m *MemoryStore) ListSteps(_ context.Context, guideID int64) ([]models.GuideStep, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []models.GuideStep
	for _, s := range m.data.steps {
		if s.GuideID == guideID {
			res = append(res, s)
		}
	}
	slices.SortFunc(res, func(a, b models.GuideStep) int {
		return cmp.Or(cmp.Compare(a.StepNumber, b.StepNumber), cmp.Compare(a.ID, b.ID))
	})
	return res, nil
}

func (m *MemoryStore) CreateStep(_ context.Context, s *models.GuideStep) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.guides[s.GuideID]; !ok {
		return store.ErrInvalidReference
	}
	s.ID = m.id()
	s.CreatedAt = m.now()
	s.UpdatedAt = s.CreatedAt
	keep(m, stepsOf, s.ID)
	m.data.steps[s.ID] = *s
	return nil
}

func (m *MemoryStore) UpdateStep(_ context.Context, s *models.GuideStep) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.data.steps[s.ID]
	if !ok || cur.GuideID != s.GuideID {
		return store.ErrNotFound
	}
	cur.StepNumber = s.StepNumber
	cur.Description = s.Description
	cur.ImageURL = s.ImageURL
	cur.UpdatedAt = m.now()
	keep(m, stepsOf, s.ID)
	m.data.steps[s.ID] = cur
	*s = cur
	return nil
}

func (m *MemoryStore) DeleteStep(_ context.Context, guideID, stepID int64) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.data.steps[stepID]; ok && s.GuideID == guideID {
		keep(m, stepsOf, stepID)
		delete(m.data.steps, stepID)
	}
	return nil
}

// ---- users ----

func (m *MemoryStore) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]models.User, 0, len(m.data.users))
	for _, u := range m.data.users {
		res = append(res, u)
	}
	slices.SortFunc(res, func(a, b models.User) int { return cmp.Compare(a.Email, b.Email) })
	return res, nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.data.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.data.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.data.users {
		if strings.EqualFold(other.Email, u.Email) {
			return store.ErrDuplicate
		}
	}
	u.ID = m.id()
	u.Roles = slices.Clone(u.Roles)
	u.CreatedAt = m.now()
	u.UpdatedAt = u.CreatedAt
	keep(m, usersOf, u.ID)
	m.data.users[u.ID] = *u
	return nil
}

func (m *MemoryStore) UpdateUserRoles(_ context.Context, id int64, roles []models.Role) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.data.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.Roles = slices.Clone(roles)
	u.UpdatedAt = m.now()
	keep(m, usersOf, id)
	m.data.users[id] = u
	return nil
}

func (m *MemoryStore) UpdateUserPassword(_ context.Context, id int64, hash string) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.data.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = m.now()
	keep(m, usersOf, id)
	m.data.users[id] = u
	return nil
}

func (m *MemoryStore) DeleteUser(_ context.Context, id int64) error {
	m.write()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.users[id]; !ok {
		return store.ErrNotFound
	}
	keep(m, usersOf, id)
	delete(m.data.users, id)
	for gid, g := range m.data.guides {
		if g.ApprovedByUserID != nil && *g.ApprovedByUserID == id {
			m.onRollback(func(s *state) {
				if g, ok := s.guides[gid]; ok && g.ApprovedByUserID == nil {
					approver := id
					g.ApprovedByUserID = &approver
					s.guides[gid] = g
				}
			})
			g.ApprovedByUserID = nil
			m.data.guides[gid] = g
		}
	}
	return nil
}

func (m *MemoryStore) ListUserEmailsByRole(_ context.Context, role models.Role) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []string
	for _, u := range m.data.users {
		if u.HasRole(role) {
			res = append(res, u.Email)
		}
	}
	slices.Sort(res)
	return res, nil
}
