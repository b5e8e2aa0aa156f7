package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/staffdesk/internal/common"
	"github.com/dmitrijs2005/staffdesk/internal/dbx"
	"github.com/dmitrijs2005/staffdesk/internal/logging"
	"github.com/dmitrijs2005/staffdesk/internal/server/config"
	"github.com/dmitrijs2005/staffdesk/internal/server/models"
	"github.com/dmitrijs2005/staffdesk/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/staffdesk/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/staffdesk/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/staffdesk/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

var (
	admin    = models.Principal{UserID: 1, UserName: "root", IsStaff: true}
	employee = models.Principal{UserID: 2, UserName: "lay"}
)

// memDB is an in-memory stand-in for the database shared by the fake
// repositories. Deleting a user cascades like the real schema does.
// Transactions are not isolated: sqlmock only checks that they are opened
// and finished.
type memDB struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*models.User
	profiles map[int64]*models.Profile
	tasks    map[int64]*models.Task
	tokens   map[string]*models.RefreshToken

	// failures injected per operation name, e.g. "profiles.Create".
	fail map[string]error

	// afterFind runs after a refresh token lookup, without the lock held.
	afterFind func(token string)
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[int64]*models.User{},
		profiles: map[int64]*models.Profile{},
		tasks:    map[int64]*models.Task{},
		tokens:   map[string]*models.RefreshToken{},
		fail:     map[string]error{},
	}
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memDB) addUser(name string, staff bool) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: m.id(), UserName: name, IsStaff: staff, DateJoined: time.Now()}
	m.users[u.ID] = u
	return u
}

func (m *memDB) addEmployee(name string, salary int64, key string) *models.User {
	u := m.addUser(name, false)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[u.ID] = &models.Profile{UserID: u.ID, Salary: salary, PictureKey: key}
	return u
}

func (m *memDB) addTask(employeeID int64, title string) *models.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &models.Task{ID: m.id(), EmployeeID: employeeID, Title: title, Deadline: time.Now().Add(time.Hour)}
	m.tasks[t.ID] = t
	return t
}

func (m *memDB) failing(op string) error {
	return m.fail[op]
}

func (m *memDB) counts() (int, int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), len(m.profiles), len(m.tasks)
}

type memUsers struct{ m *memDB }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.failing("users.Create"); err != nil {
		return nil, err
	}
	for _, x := range r.m.users {
		if x.UserName == u.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = r.m.id()
	c.DateJoined = time.Now()
	r.m.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r memUsers) get(id int64) *models.User {
	u, ok := r.m.users[id]
	if !ok {
		return nil
	}
	c := *u
	return &c
}

func (r memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.failing("users.GetByID"); err != nil {
		return nil, err
	}
	return r.get(id), nil
}

func (r memUsers) GetByUserName(_ context.Context, name string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, u := range r.m.users {
		if u.UserName == name {
			return r.get(id), nil
		}
	}
	return nil, nil
}

func (r memUsers) GetNonStaffByID(_ context.Context, id int64) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u := r.get(id)
	if u == nil || u.IsStaff {
		return nil, nil
	}
	return u, nil
}

func (r memUsers) ListEmployees(_ context.Context) ([]*models.Employee, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.failing("users.ListEmployees"); err != nil {
		return nil, err
	}
	var out []*models.Employee
	for id, p := range r.m.profiles {
		out = append(out, &models.Employee{User: *r.get(id), Profile: *p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User.ID < out[j].User.ID })
	return out, nil
}

func (r memUsers) Update(_ context.Context, u *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.users[u.ID]
	if !ok {
		return common.ErrorNotFound
	}
	for _, x := range r.m.users {
		if x.ID != u.ID && x.UserName == u.UserName {
			return common.ErrorAlreadyExists
		}
	}
	cur.UserName = u.UserName
	cur.Email = u.Email
	return nil
}

func (r memUsers) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r memUsers) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.users, id)
	delete(r.m.profiles, id)
	for tid, t := range r.m.tasks {
		if t.EmployeeID == id {
			delete(r.m.tasks, tid)
		}
	}
	for k, t := range r.m.tokens {
		if t.UserID == id {
			delete(r.m.tokens, k)
		}
	}
	return nil
}

type memProfiles struct{ m *memDB }

func (r memProfiles) Create(_ context.Context, p *models.Profile) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.failing("profiles.Create"); err != nil {
		return err
	}
	c := *p
	r.m.profiles[p.UserID] = &c
	return nil
}

func (r memProfiles) GetByUserID(_ context.Context, id int64) (*models.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.profiles[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r memProfiles) Update(_ context.Context, p *models.Profile) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.failing("profiles.Update"); err != nil {
		return err
	}
	if _, ok := r.m.profiles[p.UserID]; !ok {
		return common.ErrorNotFound
	}
	c := *p
	r.m.profiles[p.UserID] = &c
	return nil
}

type memTasks struct{ m *memDB }

func (r memTasks) Create(_ context.Context, t *models.Task) (*models.Task, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *t
	c.ID = r.m.id()
	r.m.tasks[c.ID] = &c
	out := c
	return &out, nil
}

func (r memTasks) GetByID(_ context.Context, id int64) (*models.Task, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.tasks[id]
	if !ok {
		return nil, nil
	}
	c := *t
	return &c, nil
}

func (r memTasks) list(keep func(*models.Task) bool) []*models.Task {
	out := []*models.Task{}
	for _, t := range r.m.tasks {
		if keep(t) {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memTasks) List(_ context.Context) ([]*models.Task, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.failing("tasks.List"); err != nil {
		return nil, err
	}
	return r.list(func(*models.Task) bool { return true }), nil
}

func (r memTasks) ListByEmployee(_ context.Context, id int64) ([]*models.Task, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.list(func(t *models.Task) bool { return t.EmployeeID == id }), nil
}

func (r memTasks) Update(_ context.Context, t *models.Task) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.tasks[t.ID]; !ok {
		return common.ErrorNotFound
	}
	c := *t
	r.m.tasks[t.ID] = &c
	return nil
}

func (r memTasks) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.tasks[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.tasks, id)
	return nil
}

type memTokens struct{ m *memDB }

func (r memTokens) Create(_ context.Context, userID int64, token string, validity time.Duration) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.failing("refreshtokens.Create"); err != nil {
		return err
	}
	r.m.tokens[token] = &models.RefreshToken{ID: r.m.id(), UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (r memTokens) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.m.mu.Lock()
	if err := r.m.failing("refreshtokens.Find"); err != nil {
		r.m.mu.Unlock()
		return nil, err
	}
	t, ok := r.m.tokens[token]
	var found *models.RefreshToken
	if ok {
		c := *t
		found = &c
	}
	hook := r.m.afterFind
	r.m.mu.Unlock()

	if hook != nil {
		hook(token)
	}
	return found, nil
}

func (r memTokens) Delete(_ context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.failing("refreshtokens.Delete"); err != nil {
		return err
	}
	if _, ok := r.m.tokens[token]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.tokens, token)
	return nil
}

type fakeRepoManager struct{ m *memDB }

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return memUsers{f.m} }
func (f *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository           { return memProfiles{f.m} }
func (f *fakeRepoManager) Tasks(dbx.DBTX) tasks.Repository                 { return memTasks{f.m} }
func (f *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return memTokens{f.m} }

// fakePictures is an in-memory PictureStore.
type fakePictures struct {
	mu      sync.Mutex
	seq     int
	objects map[string][]byte
	putErr  error
	delErr  error
	urlErr  error
}

func newFakePictures() *fakePictures {
	return &fakePictures{objects: map[string][]byte{}}
}

func (f *fakePictures) Put(_ context.Context, name, _ string, body io.Reader, _ int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return "", f.putErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.seq++
	key := fmt.Sprintf("pictures/%d-%s", f.seq, name)
	f.objects[key] = b
	return key, nil
}

func (f *fakePictures) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakePictures) URL(_ context.Context, key string) (string, error) {
	if f.urlErr != nil {
		return "", f.urlErr
	}
	return "https://files.test/" + key, nil
}

func (f *fakePictures) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func (f *fakePictures) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func picture(name string) *Picture {
	body := "\x89PNG\r\n\x1a\n" + strings.Repeat("x", 16)
	return &Picture{FileName: name, ContentType: "image/png", Size: int64(len(body)), Body: bytes.NewBufferString(body)}
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

type fixture struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	mem      *memDB
	pictures *fakePictures
	users    *UserService
	emps     *EmployeeService
	tasks    *TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	mem := newMemDB()
	rm := &fakeRepoManager{m: mem}
	pics := newFakePictures()
	log := logging.Nop()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	return &fixture{
		db:       db,
		mock:     mock,
		mem:      mem,
		pictures: pics,
		users:    NewUserService(db, rm, pics, log, cfg),
		emps:     NewEmployeeService(db, rm, pics, log),
		tasks:    NewTaskService(db, rm, log),
	}
}

func (f *fixture) expectTx(commit bool) {
	f.mock.ExpectBegin()
	if commit {
		f.mock.ExpectCommit()
	} else {
		f.mock.ExpectRollback()
	}
}

func (f *fixture) verify(t *testing.T) {
	t.Helper()
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func requireKind(t *testing.T, err error, kind common.Kind) *common.Error {
	t.Helper()
	var e *common.Error
	if !errors.As(err, &e) {
		t.Fatalf("want *common.Error of kind %s, got %v", kind, err)
	}
	if e.Kind != kind {
		t.Fatalf("want kind %s, got %s (%v)", kind, e.Kind, err)
	}
	return e
}
