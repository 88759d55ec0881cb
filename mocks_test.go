package bearer_test

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
)

// MockContext mocks router.Context. Request state lives in plain fields so
// tests seed locals, params, and headers directly; response methods go
// through testify expectations so tests can capture what handlers render.
type MockContext struct {
	mock.Mock
	NextCalled bool
	LocalsM    map[any]any
	ParamsM    map[string]string
	HeadersM   map[string]string
	QueriesM   map[string]string
	PathV      string
	Ctx        context.Context
}

func NewMockContext() *MockContext {
	return &MockContext{
		LocalsM:  map[any]any{},
		ParamsM:  map[string]string{},
		HeadersM: map[string]string{},
		QueriesM: map[string]string{},
		Ctx:      context.Background(),
	}
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	return m.Ctx
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Ctx = ctx
}

func (m *MockContext) Path() string {
	return m.PathV
}

func (m *MockContext) Method() string {
	return "POST"
}

func (m *MockContext) Body() []byte {
	return nil
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	args := m.Called(path, status)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	args := m.Called(name, data, status)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	args := m.Called(fallback, status)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.HeadersM[key] = val
	return m
}

func (m *MockContext) Header(key string) string {
	return m.HeadersM[key]
}

func (m *MockContext) Get(key string, defaultValue any) any {
	if val, ok := m.LocalsM[key]; ok {
		return val
	}
	return defaultValue
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	if val, ok := m.LocalsM[key].(bool); ok {
		return val
	}
	return defaultValue
}

func (m *MockContext) GetInt(key string, def int) int {
	if val, ok := m.LocalsM[key].(int); ok {
		return val
	}
	return def
}

func (m *MockContext) Set(key string, val any) {
	m.LocalsM[key] = val
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if val, ok := m.ParamsM[key]; ok {
		return val
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	return defaultValue
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if val, ok := m.QueriesM[key]; ok {
		return val
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *MockContext) QueryValues(key string) []string {
	if val, ok := m.QueriesM[key]; ok {
		return []string{val}
	}
	return nil
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	return defaultValue
}

func (m *MockContext) Queries() map[string]string {
	return m.QueriesM
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	if val, ok := m.HeadersM[key]; ok {
		return val
	}
	return defaultValue
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.LocalsM[key] = value[0]
		return nil
	}
	return m.LocalsM[key]
}

func (m *MockContext) OriginalURL() string {
	return m.PathV
}

func (m *MockContext) OnNext(callback func() error) {
}

func (m *MockContext) Referer() string {
	return m.HeadersM["Referer"]
}

func (m *MockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	return value
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	return nil, nil
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *MockContext) IP() string {
	return ""
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockContext) RouteName() string {
	return ""
}

func (m *MockContext) RouteParams() map[string]string {
	return m.ParamsM
}
