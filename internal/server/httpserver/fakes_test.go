package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/staffdesk/internal/common"
	"github.com/dmitrijs2005/staffdesk/internal/logging"
	"github.com/dmitrijs2005/staffdesk/internal/server/models"
	"github.com/dmitrijs2005/staffdesk/internal/server/services"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

const (
	adminToken    = "admin-token"
	employeeToken = "employee-token"
)

var (
	adminPrincipal    = models.Principal{UserID: 1, UserName: "root", IsStaff: true}
	employeePrincipal = models.Principal{UserID: 2, UserName: "lay"}
)

type fakeUsers struct {
	loginErr   error
	refreshErr error
	details    *services.UserDetails
	detailsErr error
	gotID      int64
	gotUpdate  services.UserUpdate
	deleted    *models.User
	deleteErr  error
	gotLogin   [2]string
	gotRefresh string
	panicOnMe  bool
}

func (f *fakeUsers) Login(_ context.Context, userName, password string) (*services.TokenPair, error) {
	f.gotLogin = [2]string{userName, password}
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &services.TokenPair{AccessToken: "a", RefreshToken: "r"}, nil
}

func (f *fakeUsers) RefreshToken(_ context.Context, token string) (*services.TokenPair, error) {
	f.gotRefresh = token
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &services.TokenPair{AccessToken: "a2", RefreshToken: "r2"}, nil
}

func (f *fakeUsers) Authenticate(_ context.Context, token string) (models.Principal, error) {
	switch token {
	case adminToken:
		return adminPrincipal, nil
	case employeeToken:
		return employeePrincipal, nil
	}
	return models.Principal{}, common.Fail(common.KindUnauthenticated, "Given token not valid for any token type")
}

func (f *fakeUsers) IsAdmin(p models.Principal) bool { return p.IsStaff }

func (f *fakeUsers) Me(_ context.Context, p models.Principal) (*services.UserDetails, error) {
	if f.panicOnMe {
		panic("boom")
	}
	f.gotID = p.UserID
	return f.details, f.detailsErr
}

func (f *fakeUsers) Get(_ context.Context, _ models.Principal, id int64) (*services.UserDetails, error) {
	f.gotID = id
	return f.details, f.detailsErr
}

func (f *fakeUsers) Update(_ context.Context, _ models.Principal, id int64, in services.UserUpdate) (*services.UserDetails, error) {
	f.gotID = id
	f.gotUpdate = in
	return f.details, f.detailsErr
}

func (f *fakeUsers) Delete(_ context.Context, _ models.Principal, id int64) (*models.User, error) {
	f.gotID = id
	return f.deleted, f.deleteErr
}

type fakeEmployees struct {
	calls      int
	err        error
	gotCreate  services.NewEmployee
	gotUpdate  services.EmployeeUpdate
	gotDelete  int64
	pictureRaw []byte
	list       []*services.EmployeeView
}

func (f *fakeEmployees) view(name string, salary int64) *services.EmployeeView {
	return &services.EmployeeView{
		Employee:   models.Employee{User: models.User{ID: 7, UserName: name}, Profile: models.Profile{UserID: 7, Salary: salary, PictureKey: "k"}},
		PictureURL: "https://files.test/k",
	}
}

func (f *fakeEmployees) readPicture(p *services.Picture) {
	if p != nil {
		f.pictureRaw, _ = io.ReadAll(p.Body)
	}
}

func (f *fakeEmployees) List(context.Context, models.Principal) ([]*services.EmployeeView, error) {
	f.calls++
	return f.list, f.err
}

func (f *fakeEmployees) Create(_ context.Context, _ models.Principal, in services.NewEmployee) (*services.EmployeeView, error) {
	f.calls++
	f.gotCreate = in
	f.readPicture(in.Picture)
	if f.err != nil {
		return nil, f.err
	}
	return f.view(in.UserName, in.Salary), nil
}

func (f *fakeEmployees) Update(_ context.Context, _ models.Principal, in services.EmployeeUpdate) (*services.EmployeeView, error) {
	f.calls++
	f.gotUpdate = in
	f.readPicture(in.Picture)
	if f.err != nil {
		return nil, f.err
	}
	return f.view(in.UserName, in.Salary), nil
}

func (f *fakeEmployees) Delete(_ context.Context, _ models.Principal, id int64) (*models.User, error) {
	f.calls++
	f.gotDelete = id
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: id, UserName: "lay"}, nil
}

type fakeTasks struct {
	calls     int
	err       error
	mine      models.Principal
	gotCreate services.NewTask
	gotUpdate services.TaskUpdate
	gotDelete int64
	list      []*models.Task
}

func (f *fakeTasks) List(context.Context, models.Principal) ([]*models.Task, error) {
	f.calls++
	return f.list, f.err
}

func (f *fakeTasks) ListMine(_ context.Context, p models.Principal) ([]*models.Task, error) {
	f.mine = p
	return f.list, f.err
}

func (f *fakeTasks) Create(_ context.Context, _ models.Principal, in services.NewTask) (*models.Task, error) {
	f.calls++
	f.gotCreate = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Task{ID: 10, EmployeeID: in.EmployeeID, Title: in.Title, Description: in.Description, Deadline: in.Deadline}, nil
}

func (f *fakeTasks) Update(_ context.Context, _ models.Principal, in services.TaskUpdate) (*models.Task, error) {
	f.calls++
	f.gotUpdate = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Task{ID: in.TaskID, EmployeeID: 2, Title: in.Title, Description: in.Description, Deadline: in.Deadline}, nil
}

func (f *fakeTasks) Delete(_ context.Context, _ models.Principal, id int64) (*models.Task, error) {
	f.calls++
	f.gotDelete = id
	if f.err != nil {
		return nil, f.err
	}
	return &models.Task{ID: id, Title: "report"}, nil
}

type testServer struct {
	srv       *Server
	users     *fakeUsers
	employees *fakeEmployees
	tasks     *fakeTasks
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{users: &fakeUsers{}, employees: &fakeEmployees{}, tasks: &fakeTasks{}}
	ts.srv = NewServer("127.0.0.1:0", logging.Nop(), ts.users, ts.employees, ts.tasks, Limits{MaxUploadSize: 1 << 20})
	return ts
}

func (ts *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

// multipartRequest builds a multipart body from fields and, when file is not
// nil, a picture part named fileName.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, fileName string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile(common.PictureFormField, fileName)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

var testDeadline = time.Date(2030, 3, 12, 12, 34, 0, 0, time.UTC)
