package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"

	. "github.com/trezcool/csiportal/apps/api/echo"
	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/event"
	"github.com/trezcool/csiportal/core/identity"
	"github.com/trezcool/csiportal/core/notification"
	"github.com/trezcool/csiportal/core/registration"
	"github.com/trezcool/csiportal/core/session"
	emailsvc "github.com/trezcool/csiportal/services/email"
	inmemdb "github.com/trezcool/csiportal/storage/database/inmem"
)

const sessionHeader = "X-Session-Token"

type testApp struct {
	Server
	storage       session.Storage
	mailSvc       *emailsvc.ConsoleServiceMock
	notifications *notification.Center
	registrations *registration.Registry
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "CSI Portal",
		SecretKey:        "test-secret",
		FrontendBaseURL:  "http://csi.test",
		DefaultFromEmail: mail.Address{Address: "noreply@csi.test"},
		Server:           core.ServerConfig{DisableReqLogs: true},
	}

	// set up storage
	storage := inmemdb.NewSessionStorage(inmemdb.Open())

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	sessions := session.NewManager(storage, session.Options{
		Authenticator: identity.MockAuthenticator{},
		OnSignup: func(id identity.Identity) {
			mailSvc.SendMessages(identity.NewWelcomeMessage(id))
		},
	})

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	identity.InitValidators(validate, translator)

	// set up server
	notifications := notification.NewCenter()
	registrations := registration.NewRegistry()
	app := NewServer(ServerDeps{
		Conf:          conf,
		Sessions:      sessions,
		Catalog:       event.NewCatalog(),
		Notifications: notifications,
		Registrations: registrations,
		Validate:      validate,
		Translator:    translator,
	})
	return &testApp{
		Server:        app,
		storage:       storage,
		mailSvc:       mailSvc,
		notifications: notifications,
		registrations: registrations,
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newSession opens a brand new session and returns its token.
func newSession(t *testing.T, app http.Handler) string {
	t.Helper()

	req, rec := newRequest(http.MethodGet, "/v1/session")
	app.ServeHTTP(rec, req)
	token := rec.Header().Get(sessionHeader)
	if rec.Code != http.StatusOK || token == "" {
		t.Fatalf("newSession() failed: code = %d, token = %q", rec.Code, token)
	}
	return token
}

// login authenticates the session of token as role.
func login(t *testing.T, app http.Handler, token, email string, role identity.Role) session.State {
	t.Helper()

	body := marchallObj(t, identity.Credentials{Email: email, Password: "pw123456", Role: role})
	req, rec := newAuthRequest(http.MethodPost, "/v1/session/login", token, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login() failed: code = %d, body = %s", rec.Code, rec.Body.String())
	}
	return decodeState(t, rec)
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) session.State {
	t.Helper()

	var st session.State
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decodeState(): %v", err)
	}
	return st
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
