package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/projectvault/projectvault/pkg/apperrors"
	"github.com/projectvault/projectvault/pkg/filetree"
	"github.com/projectvault/projectvault/pkg/models"
)

// memStore is an in-memory stand-in for PostgreSQL. Row locks taken by
// GetForUpdate are held until the enclosing fakeTx finishes.
type memStore struct {
	mu         sync.Mutex
	users      map[uuid.UUID]*models.User
	friends    map[[2]uuid.UUID]bool
	projects   map[uuid.UUID]*models.Project
	members    map[uuid.UUID][]*models.Member
	files      map[uuid.UUID][]*models.FileRecord
	checkouts  []*models.Checkout
	favorites  map[[2]uuid.UUID]bool
	activities []*models.Activity
	rowLocks   map[uuid.UUID]*sync.Mutex

	activityErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:     make(map[uuid.UUID]*models.User),
		friends:   make(map[[2]uuid.UUID]bool),
		projects:  make(map[uuid.UUID]*models.Project),
		members:   make(map[uuid.UUID][]*models.Member),
		files:     make(map[uuid.UUID][]*models.FileRecord),
		favorites: make(map[[2]uuid.UUID]bool),
		rowLocks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *memStore) rowLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[id] = l
	}
	return l
}

// ---- transactor ----

type fakeTxKey struct{}

type fakeTxState struct {
	held []*sync.Mutex
}

type fakeTx struct{}

func (fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(fakeTxKey{}).(*fakeTxState); ok {
		return fn(ctx)
	}
	state := &fakeTxState{}
	defer func() {
		for _, l := range state.held {
			l.Unlock()
		}
	}()
	return fn(context.WithValue(ctx, fakeTxKey{}, state))
}

// ---- users ----

type fakeUsers struct{ *memStore }

func (r fakeUsers) Upsert(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username && u.ID != user.ID {
			return apperrors.ErrConflict
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r fakeUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// ---- friends ----

type fakeFriends struct{ *memStore }

func (r fakeFriends) Add(_ context.Context, userID, friendID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.friends[[2]uuid.UUID{userID, friendID}] {
		return apperrors.ErrConflict
	}
	r.friends[[2]uuid.UUID{userID, friendID}] = true
	r.friends[[2]uuid.UUID{friendID, userID}] = true
	return nil
}

func (r fakeFriends) Remove(_ context.Context, userID, friendID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.friends[[2]uuid.UUID{userID, friendID}] {
		return apperrors.ErrNotFound
	}
	delete(r.friends, [2]uuid.UUID{userID, friendID})
	delete(r.friends, [2]uuid.UUID{friendID, userID})
	return nil
}

func (r fakeFriends) Exists(_ context.Context, userID, friendID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.friends[[2]uuid.UUID{userID, friendID}], nil
}

func (r fakeFriends) List(_ context.Context, userID uuid.UUID) ([]*models.Friend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Friend
	for k := range r.friends {
		if k[0] != userID {
			continue
		}
		u := r.users[k[1]]
		f := &models.Friend{UserID: k[1]}
		if u != nil {
			f.Name, f.Username = u.Name, u.Username
		}
		out = append(out, f)
	}
	return out, nil
}

// ---- projects ----

type fakeProjects struct{ *memStore }

func (r fakeProjects) Create(_ context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project.Version = 1
	cp := *project
	r.projects[project.ID] = &cp
	return nil
}

func (r fakeProjects) Get(_ context.Context, id uuid.UUID) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r fakeProjects) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	state, ok := ctx.Value(fakeTxKey{}).(*fakeTxState)
	if !ok {
		return nil, errors.New("GetForUpdate requires a transaction")
	}
	l := r.rowLock(id)
	l.Lock()
	state.held = append(state.held, l)
	return r.Get(ctx, id)
}

func (r fakeProjects) ListForUser(_ context.Context, userID uuid.UUID) ([]*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Project
	for _, p := range r.projects {
		if p.OwnerID == userID || models.HasMember(r.members[p.ID], userID) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r fakeProjects) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.projects, id)
	delete(r.members, id)
	delete(r.files, id)
	return nil
}

func (r fakeProjects) UpdateOwner(_ context.Context, id, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.OwnerID = ownerID
	return nil
}

func (r fakeProjects) SetCheckedOut(_ context.Context, id uuid.UUID, checkedOut bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.IsCheckedOut = checkedOut
	return nil
}

func (r fakeProjects) Touch(_ context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	p.Version++
	return p.Version, nil
}

// ---- members ----

type fakeMembers struct{ *memStore }

func (r fakeMembers) Add(_ context.Context, member *models.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if models.HasMember(r.members[member.ProjectID], member.UserID) {
		return apperrors.ErrConflict
	}
	cp := *member
	r.members[member.ProjectID] = append(r.members[member.ProjectID], &cp)
	return nil
}

func (r fakeMembers) Remove(_ context.Context, projectID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.members[projectID]
	for i, m := range list {
		if m.UserID == userID {
			r.members[projectID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r fakeMembers) ListByProject(_ context.Context, projectID uuid.UUID) ([]*models.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Member, 0, len(r.members[projectID]))
	for _, m := range r.members[projectID] {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

// ---- files ----

type fakeFiles struct{ *memStore }

func (r fakeFiles) find(projectID uuid.UUID, path, name string) (int, *models.FileRecord) {
	for i, f := range r.files[projectID] {
		if f.Path == path && f.Name == name {
			return i, f
		}
	}
	return -1, nil
}

func (r fakeFiles) Create(_ context.Context, record *models.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, f := r.find(record.ProjectID, record.Path, record.Name); f != nil {
		return apperrors.ErrConflict
	}
	record.FullPath = filetree.FullPath(record.Path, record.Name)
	cp := *record
	r.files[record.ProjectID] = append(r.files[record.ProjectID], &cp)
	return nil
}

func (r fakeFiles) Get(_ context.Context, projectID uuid.UUID, path, name string) (*models.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, f := r.find(projectID, path, name)
	if f == nil {
		return nil, apperrors.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r fakeFiles) UpdateContent(_ context.Context, projectID uuid.UUID, path, name, content, changedBy, timeLabel string) (*models.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, f := r.find(projectID, path, name)
	if f == nil || f.IsFolder() {
		return nil, apperrors.ErrNotFound
	}
	f.Content, f.Changes, f.Time = content, changedBy, timeLabel
	f.UpdatedAt = time.Now()
	cp := *f
	return &cp, nil
}

func (r fakeFiles) Delete(_ context.Context, projectID uuid.UUID, path, name, recordType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, f := r.find(projectID, path, name)
	if f == nil || f.Type != recordType {
		return apperrors.ErrNotFound
	}
	list := r.files[projectID]
	r.files[projectID] = append(list[:i:i], list[i+1:]...)
	return nil
}

func (r fakeFiles) HasDescendants(_ context.Context, projectID uuid.UUID, fullPath string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files[projectID] {
		if f.Path == fullPath || strings.HasPrefix(f.Path, fullPath+"/") {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeFiles) ListByPath(_ context.Context, projectID uuid.UUID, path string) ([]*models.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.FileRecord
	for _, f := range r.files[projectID] {
		if f.Path == path {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r fakeFiles) ListAll(_ context.Context, projectID uuid.UUID) ([]*models.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.FileRecord, 0, len(r.files[projectID]))
	for _, f := range r.files[projectID] {
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

// ---- checkouts ----

type fakeCheckouts struct{ *memStore }

func (r fakeCheckouts) Create(_ context.Context, checkout *models.Checkout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.checkouts {
		if c.ProjectID == checkout.ProjectID && c.IsActive() {
			return apperrors.ErrAlreadyLocked
		}
	}
	checkout.Status = models.CheckoutStatusActive
	cp := *checkout
	r.checkouts = append(r.checkouts, &cp)
	return nil
}

func (r fakeCheckouts) GetActive(_ context.Context, projectID uuid.UUID) (*models.Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.checkouts {
		if c.ProjectID == projectID && c.IsActive() {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r fakeCheckouts) MarkReturned(_ context.Context, id uuid.UUID, returnedAt time.Time, notes string) (*models.Checkout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.checkouts {
		if c.ID == id && c.IsActive() {
			c.ReturnedAt = &returnedAt
			c.Status = models.CheckoutStatusReturned
			c.ReturnNotes = notes
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotLocked
}

func (r fakeCheckouts) list(match func(*models.Checkout) bool) []*models.Checkout {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Checkout
	for _, c := range r.checkouts {
		if match(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out
}

func (r fakeCheckouts) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Checkout, error) {
	return r.list(func(c *models.Checkout) bool { return c.UserID == userID }), nil
}

func (r fakeCheckouts) ListByProject(_ context.Context, projectID uuid.UUID) ([]*models.Checkout, error) {
	return r.list(func(c *models.Checkout) bool { return c.ProjectID == projectID }), nil
}

func (r fakeCheckouts) ListOverdue(_ context.Context, now time.Time) ([]*models.Checkout, error) {
	return r.list(func(c *models.Checkout) bool { return c.IsOverdue(now) }), nil
}

// ---- favorites ----

type fakeFavorites struct{ *memStore }

func (r fakeFavorites) Add(_ context.Context, userID, projectID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := [2]uuid.UUID{userID, projectID}
	if r.favorites[k] {
		return apperrors.ErrConflict
	}
	r.favorites[k] = true
	return nil
}

func (r fakeFavorites) Remove(_ context.Context, userID, projectID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := [2]uuid.UUID{userID, projectID}
	if !r.favorites[k] {
		return apperrors.ErrNotFound
	}
	delete(r.favorites, k)
	return nil
}

func (r fakeFavorites) Count(_ context.Context, projectID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k := range r.favorites {
		if k[1] == projectID {
			n++
		}
	}
	return n, nil
}

// ---- activities ----

type fakeActivities struct{ *memStore }

func (r fakeActivities) Create(_ context.Context, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activityErr != nil {
		return r.activityErr
	}
	cp := *activity
	r.activities = append(r.activities, &cp)
	return nil
}

func (r fakeActivities) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]*models.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Activity
	for i := len(r.activities) - 1; i >= 0 && len(out) < limit; i-- {
		if r.activities[i].UserID == userID {
			cp := *r.activities[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) activityTypes(userID uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, a := range s.activities {
		if a.UserID == userID {
			out = append(out, a.Type)
		}
	}
	return out
}
