package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"lexline/internal/config"
	"lexline/internal/db"
	"lexline/internal/domain"
	"lexline/internal/engine"
	"lexline/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, config.Default("firm-1"))
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/v0",
		Auth: AuthConfig{
			JWTSecret:              "test-secret",
			AllowLegacyActorHeader: true,
		},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if _, ok := headers["Authorization"]; !ok {
		req.Header.Set("X-Actor-Id", "tester")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestExecutionFlowHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/executions", map[string]any{
		"client_id":     "c-1",
		"client_name":   "Acme",
		"opponent_name": "Debtor LLC",
		"type":          "financial",
		"claim_amount":  500.0,
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", res.StatusCode, string(data))
	}
	var created domain.ExecutionRequest
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal execution: %v", err)
	}
	if created.Status != "registered" {
		t.Fatalf("expected registered, got %s", created.Status)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/executions/"+created.ID+"/decisions", map[string]any{
		"type": "34",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("decision status %d: %s", res.StatusCode, string(data))
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/executions/"+created.ID+"/collections", map[string]any{
		"amount": 500.0,
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("collection status %d: %s", res.StatusCode, string(data))
	}
	var collected domain.ExecutionRequest
	_ = json.Unmarshal(data, &collected)
	if collected.Status != "pending_closure" {
		t.Fatalf("expected pending_closure, got %s", collected.Status)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/executions/"+created.ID+"/close", map[string]any{
		"reason": "claim recovered",
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("close status %d: %s", res.StatusCode, string(data))
	}

	// closed requests reject further events with the transition envelope
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/executions/"+created.ID+"/suspend", map[string]any{
		"note": "too late",
	}, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", res.StatusCode, string(data))
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if env.Error.Code != "invalid_transition" {
		t.Fatalf("expected invalid_transition, got %q", env.Error.Code)
	}
	if env.Error.Details["from"] != "closed" {
		t.Fatalf("expected from=closed in details, got %v", env.Error.Details)
	}
}

func TestValidationErrorEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v0/executions", map[string]any{
		"client_id":     "c-1",
		"client_name":   "Acme",
		"opponent_name": "Debtor LLC",
		"type":          "financial",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", res.StatusCode, string(data))
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if env.Error.Code != "bad_request" {
		t.Fatalf("expected bad_request, got %q", env.Error.Code)
	}
	if env.Error.Details["field"] != "claim_amount" {
		t.Fatalf("expected field=claim_amount, got %v", env.Error.Details)
	}
}

func TestEstateClosureBlockedHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/estates", map[string]any{
		"deceased_name": "Ali Hassan",
		"method":        "court_assignment",
		"heirs": []map[string]any{
			{"name": "Sara", "identity_no": "1001", "iban": "SA001"},
		},
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create estate status %d: %s", res.StatusCode, string(data))
	}
	var est domain.Estate
	_ = json.Unmarshal(data, &est)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/estates/"+est.ID+"/assets", map[string]any{
		"type": "bank_funds",
		"name": "Savings account",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("add asset status %d: %s", res.StatusCode, string(data))
	}
	var asset domain.EstateAsset
	_ = json.Unmarshal(data, &asset)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/estates/"+est.ID+"/close", nil, nil)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", res.StatusCode, string(data))
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if env.Error.Code != "closure_blocked" {
		t.Fatalf("expected closure_blocked, got %q", env.Error.Code)
	}

	for _, lt := range asset.LinkedTasks {
		res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/liquidation-tasks/"+lt.ID+"/close", nil, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("close task status %d: %s", res.StatusCode, string(data))
		}
	}
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/estates/"+est.ID+"/close", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("close estate status %d: %s", res.StatusCode, string(data))
	}
	var closed domain.Estate
	_ = json.Unmarshal(data, &closed)
	if closed.Status != "closed" {
		t.Fatalf("expected closed, got %s", closed.Status)
	}
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v0/executions", nil)
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", res.StatusCode)
	}

	// health stays open
	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/v0/health", nil)
	res, err = client.Do(req)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected open health endpoint, got %d", res.StatusCode)
	}

	loginRes, loginBody := doJSON(t, client, http.MethodPost, srv.URL+"/v0/auth/dev/login", map[string]any{
		"actor_id": "emp-1",
	}, map[string]string{"Authorization": ""})
	if loginRes.StatusCode != http.StatusOK {
		t.Fatalf("dev login status %d: %s", loginRes.StatusCode, string(loginBody))
	}
	var login DevLoginResponse
	if err := json.Unmarshal(loginBody, &login); err != nil || login.Token == "" {
		t.Fatalf("expected token, got %s (%v)", string(loginBody), err)
	}

	listRes, listBody := doJSON(t, client, http.MethodGet, srv.URL+"/v0/executions", nil, map[string]string{
		"Authorization": "Bearer " + login.Token,
	})
	if listRes.StatusCode != http.StatusOK {
		t.Fatalf("list with bearer status %d: %s", listRes.StatusCode, string(listBody))
	}

	badRes, _ := doJSON(t, client, http.MethodGet, srv.URL+"/v0/executions", nil, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	if badRes.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", badRes.StatusCode)
	}
}

func TestTaskApprovalHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/v0/tasks", map[string]any{
		"name":              "Draft memo",
		"origin":            "cases",
		"executor_id":       "emp-1",
		"reviewer_id":       "emp-9",
		"requires_approval": true,
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create task status %d: %s", res.StatusCode, string(data))
	}
	var tk domain.Task
	_ = json.Unmarshal(data, &tk)

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/tasks/"+tk.ID+"/complete", map[string]any{
		"result": "memo v1",
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("complete status %d: %s", res.StatusCode, string(data))
	}
	var done domain.Task
	_ = json.Unmarshal(data, &done)
	if done.Status != "waiting_approval" {
		t.Fatalf("expected waiting_approval, got %s", done.Status)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v0/tasks/"+tk.ID+"/approve", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("approve status %d: %s", res.StatusCode, string(data))
	}
	_ = json.Unmarshal(data, &done)
	if done.Status != "closed" {
		t.Fatalf("expected closed, got %s", done.Status)
	}

	// activity trail covers the whole walk
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v0/log/task/"+tk.ID, nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("entity log status %d: %s", res.StatusCode, string(data))
	}
	var entries []domain.LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("unmarshal log: %v", err)
	}
	if len(entries) < 3 {
		t.Fatalf("expected create, complete and approve entries, got %d", len(entries))
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v0/executions/missing", nil, nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", res.StatusCode, string(data))
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal error envelope: %v", err)
	}
	if env.Error.Code != "not_found" {
		t.Fatalf("expected not_found, got %q", env.Error.Code)
	}
}
