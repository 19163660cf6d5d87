package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/taskboard/internal/config"
	"github.com/Tomlord1122/taskboard/internal/domain"
	"github.com/Tomlord1122/taskboard/internal/repository"
	"github.com/Tomlord1122/taskboard/internal/service"
)

type testApp struct {
	handler http.Handler
	repo    repository.TaskRepository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg, err := config.FromEnv(func(string) string { return "" })
	require.NoError(t, err)

	repo := repository.NewMemoryTaskRepository()
	s := New(cfg, service.NewTaskService(repo), nil, nil)
	return &testApp{handler: s.RegisterRoutes(), repo: repo}
}

func (a *testApp) do(t *testing.T, method, path string, form url.Values, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec.Result()
}

func (a *testApp) seed(t *testing.T, task domain.Task) *domain.Task {
	t.Helper()
	require.NoError(t, a.repo.Create(context.Background(), &task))
	return &task
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(b)
}

func flashCookie(res *http.Response) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == flashCookieName && c.MaxAge >= 0 {
			return c
		}
	}
	return nil
}

// followNotice renders the redirect target with the flash cookie and
// returns the page body.
func (a *testApp) followNotice(t *testing.T, res *http.Response) string {
	t.Helper()
	cookie := flashCookie(res)
	require.NotNil(t, cookie, "expected a flash cookie")
	return readBody(t, a.do(t, http.MethodGet, res.Header.Get("Location"), nil, cookie))
}

func TestListTasks(t *testing.T) {
	app := newTestApp(t)

	res := app.do(t, http.MethodGet, "/tasks", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, readBody(t, res), "No tasks yet.")

	app.seed(t, domain.Task{Title: "Buy milk"})
	app.seed(t, domain.Task{Title: "Walk dog", Completed: true})

	for _, path := range []string{"/", "/tasks"} {
		res := app.do(t, http.MethodGet, path, nil)
		body := readBody(t, res)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "Buy milk")
		assert.Contains(t, body, `class="task completed"`)
		assert.Contains(t, body, `action="/tasks/2/toggle_completed"`)
	}
}

func TestShowTask(t *testing.T) {
	app := newTestApp(t)
	task := app.seed(t, domain.Task{Title: "Read <book>", Details: "chapter 3"})

	res := app.do(t, http.MethodGet, taskPath(task.ID), nil)
	body := readBody(t, res)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Read &lt;book&gt;")
	assert.Contains(t, body, "chapter 3")
}

func TestNewAndEditForms(t *testing.T) {
	app := newTestApp(t)

	res := app.do(t, http.MethodGet, "/tasks/new", nil)
	body := readBody(t, res)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `action="/tasks"`)
	assert.NotContains(t, body, `name="_method"`)

	task := app.seed(t, domain.Task{Title: "Edit me", Completed: true})
	res = app.do(t, http.MethodGet, taskPath(task.ID)+"/edit", nil)
	body = readBody(t, res)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `value="Edit me"`)
	assert.Contains(t, body, `name="_method" value="patch"`)
	assert.Contains(t, body, ` checked>`)
}

func TestCreateTask(t *testing.T) {
	app := newTestApp(t)

	res := app.do(t, http.MethodPost, "/tasks", url.Values{
		"task[title]":     {"Buy milk"},
		"task[details]":   {"semi-skimmed"},
		"task[completed]": {"0"},
	})
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/tasks/1", res.Header.Get("Location"))
	assert.Contains(t, app.followNotice(t, res), noticeCreated)

	stored, err := app.repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", stored.Title)
	assert.Equal(t, "semi-skimmed", stored.Details)
	assert.False(t, stored.Completed)
}

func TestCreateTaskCheckboxOverridesHiddenField(t *testing.T) {
	app := newTestApp(t)

	res := app.do(t, http.MethodPost, "/tasks", url.Values{
		"task[title]":     {"Done already"},
		"task[completed]": {"0", "1"},
	})
	require.Equal(t, http.StatusFound, res.StatusCode)

	stored, err := app.repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
}

func TestCreateTaskWithBlankTitle(t *testing.T) {
	app := newTestApp(t)

	res := app.do(t, http.MethodPost, "/tasks", url.Values{
		"task[title]":   {""},
		"task[details]": {"keep my details"},
	})
	body := readBody(t, res)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, body, "Title can&#39;t be blank")
	assert.Contains(t, body, "keep my details")

	tasks, err := app.repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCreateTaskWithoutTaskParams(t *testing.T) {
	app := newTestApp(t)

	res := app.do(t, http.MethodPost, "/tasks", url.Values{"title": {"not nested"}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	tasks, err := app.repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestUnknownAttributesAreIgnored(t *testing.T) {
	app := newTestApp(t)
	existing := app.seed(t, domain.Task{Title: "first"})

	res := app.do(t, http.MethodPost, "/tasks", url.Values{
		"task[title]":    {"second"},
		"task[id]":       {"1"},
		"task[is_admin]": {"true"},
	})
	require.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/tasks/2", res.Header.Get("Location"))

	first, err := app.repo.FindByID(context.Background(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", first.Title)

	res = app.do(t, http.MethodPatch, taskPath(existing.ID), url.Values{
		"task[id]": {"99"},
	})
	require.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, taskPath(existing.ID), res.Header.Get("Location"))

	_, err = app.repo.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestUpdateTask(t *testing.T) {
	app := newTestApp(t)
	task := app.seed(t, domain.Task{Title: "Old", Details: "unchanged", Completed: true})

	// HTML forms submit POST with a _method override.
	res := app.do(t, http.MethodPost, taskPath(task.ID), url.Values{
		"_method":     {"patch"},
		"task[title]": {"New"},
	})
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, taskPath(task.ID), res.Header.Get("Location"))
	assert.Contains(t, app.followNotice(t, res), noticeUpdated)

	stored, err := app.repo.FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", stored.Title)
	assert.Equal(t, "unchanged", stored.Details)
	assert.True(t, stored.Completed)

	res = app.do(t, http.MethodPut, taskPath(task.ID), url.Values{"task[completed]": {"0"}})
	assert.Equal(t, http.StatusFound, res.StatusCode)

	stored, err = app.repo.FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.False(t, stored.Completed)
}

func TestUpdateTaskWithBlankTitle(t *testing.T) {
	app := newTestApp(t)
	task := app.seed(t, domain.Task{Title: "Keep"})

	res := app.do(t, http.MethodPatch, taskPath(task.ID), url.Values{
		"task[title]":   {"  "},
		"task[details]": {"attempted"},
	})
	body := readBody(t, res)
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, body, "Title can&#39;t be blank")
	assert.Contains(t, body, "attempted")
	assert.Contains(t, body, `action="/tasks/1"`)

	stored, err := app.repo.FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep", stored.Title)
	assert.Empty(t, stored.Details)
}

func TestDeleteTask(t *testing.T) {
	app := newTestApp(t)
	task := app.seed(t, domain.Task{Title: "Remove me"})

	res := app.do(t, http.MethodPost, taskPath(task.ID), url.Values{"_method": {"delete"}})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/tasks", res.Header.Get("Location"))
	assert.Contains(t, app.followNotice(t, res), noticeDeleted)

	res = app.do(t, http.MethodGet, taskPath(task.ID), nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = app.do(t, http.MethodDelete, taskPath(task.ID), nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestToggleTaskCompletedIgnoresPayload(t *testing.T) {
	app := newTestApp(t)
	task := app.seed(t, domain.Task{Title: "Stay"})

	res := app.do(t, http.MethodPatch, taskPath(task.ID)+"/toggle_completed", url.Values{
		"task[title]":     {""},
		"task[completed]": {"0"},
	})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)

	stored, err := app.repo.FindByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stay", stored.Title)
	assert.True(t, stored.Completed)
}

func TestUnknownTaskIsNotFound(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		method string
		path   string
		form   url.Values
	}{
		{http.MethodGet, "/tasks/999", nil},
		{http.MethodGet, "/tasks/999/edit", nil},
		{http.MethodGet, "/tasks/abc", nil},
		{http.MethodGet, "/tasks/0", nil},
		{http.MethodPatch, "/tasks/999", url.Values{"task[title]": {"x"}}},
		{http.MethodDelete, "/tasks/999", nil},
		{http.MethodPatch, "/tasks/999/toggle_completed", nil},
		{http.MethodGet, "/nowhere", nil},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			res := app.do(t, tt.method, tt.path, tt.form)
			assert.Equal(t, http.StatusNotFound, res.StatusCode)
			assert.Contains(t, readBody(t, res), "Not Found")
		})
	}
}

func TestBuyMilkScenario(t *testing.T) {
	app := newTestApp(t)

	res := app.do(t, http.MethodPost, "/tasks", url.Values{
		"task[title]":     {"Buy milk"},
		"task[details]":   {""},
		"task[completed]": {"0"},
	})
	require.Equal(t, http.StatusFound, res.StatusCode)
	location := res.Header.Get("Location")
	require.Equal(t, "/tasks/1", location)

	created, err := app.repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, created.Completed)

	res = app.do(t, http.MethodPatch, location+"/toggle_completed", nil)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/tasks", res.Header.Get("Location"))
	assert.Contains(t, app.followNotice(t, res), noticeComplete)

	toggled, err := app.repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	res = app.do(t, http.MethodPost, location+"/toggle_completed", url.Values{"_method": {"patch"}})
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Contains(t, app.followNotice(t, res), noticeReopened)

	reopened, err := app.repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, reopened.Completed)

	res = app.do(t, http.MethodDelete, location, nil)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)

	_, err = app.repo.FindByID(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, location, nil).StatusCode)
}

func TestFlashIsShownOnce(t *testing.T) {
	app := newTestApp(t)
	task := app.seed(t, domain.Task{Title: "once"})

	res := app.do(t, http.MethodPatch, taskPath(task.ID)+"/toggle_completed", nil)
	cookie := flashCookie(res)
	require.NotNil(t, cookie)

	page := app.do(t, http.MethodGet, "/tasks", nil, cookie)
	assert.Contains(t, readBody(t, page), noticeComplete)

	var cleared bool
	for _, c := range page.Cookies() {
		if c.Name == flashCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "flash cookie should be expired after display")
}
