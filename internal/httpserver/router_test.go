package httpserver_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bfstats/internal/auth"
	"bfstats/internal/authtoken"
	"bfstats/internal/httpserver"
	"bfstats/internal/stats"
	"bfstats/internal/store"
)

const (
	adminEmail = "admin@bfstats.local"
	adminPass  = "admin-pass"
	fixedTS    = 1160000000
)

type env struct {
	t  *testing.T
	h  http.Handler
	st *store.Memory

	mu        sync.Mutex
	statsBody string
	lastQuery string
}

func (e *env) setStatsBody(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statsBody = s
}

func (e *env) query() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastQuery
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{t: t, st: store.NewMemory()}

	daemon := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		e.lastQuery = r.URL.Path + "?" + r.URL.RawQuery
		body := e.statsBody
		e.mu.Unlock()
		fmt.Fprint(w, body)
	}))
	t.Cleanup(daemon.Close)
	sc, err := stats.NewClient(daemon.URL, 0, stats.WithHTTPClient(daemon.Client()))
	require.NoError(t, err)

	iss, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	asm, err := authtoken.NewAssembler()
	require.NoError(t, err)

	hash, err := auth.HashPassword(adminPass)
	require.NoError(t, err)
	_, err = store.SeedAdmin(context.Background(), e.st, adminEmail, hash)
	require.NoError(t, err)

	e.h = httpserver.NewRouter(httpserver.Deps{Store: e.st, Issuer: iss, Assembler: asm, Stats: sc})
	return e
}

func (e *env) do(method, path, token string, body any) (int, []byte) {
	e.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec.Code, rec.Body.Bytes()
}

func (e *env) login(email, password string) string {
	e.t.Helper()
	code, body := e.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(e.t, http.StatusOK, code, string(body))
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(e.t, json.Unmarshal(body, &res))
	require.NotEmpty(e.t, res.Token)
	return res.Token
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	code, _ := e.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestLoginLogout(t *testing.T) {
	e := newEnv(t)

	code, _ := e.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": adminEmail, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = e.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "nobody@x", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = e.do(http.MethodPost, "/v1/auth/login", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, code)

	tok := e.login(strings.ToUpper(adminEmail), adminPass)
	code, body := e.do(http.MethodGet, "/v1/me", tok, nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[map[string]any](t, body)
	assert.Equal(t, adminEmail, me["email"])
	assert.NotContains(t, string(body), "password")

	code, _ = e.do(http.MethodPost, "/v1/auth/logout", tok, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = e.do(http.MethodGet, "/v1/me", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = e.do(http.MethodGet, "/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	tok := e.login(adminEmail, adminPass)

	code, _ := e.do(http.MethodPost, "/v1/auth/password", tok, map[string]string{"current": "bad", "new": "n"})
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = e.do(http.MethodPost, "/v1/auth/password", tok, map[string]string{"current": adminPass, "new": "next-pass"})
	require.Equal(t, http.StatusOK, code)

	code, _ = e.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": adminEmail, "password": adminPass})
	assert.Equal(t, http.StatusUnauthorized, code)
	e.login(adminEmail, "next-pass")
}

func TestAdminUsers(t *testing.T) {
	e := newEnv(t)
	admin := e.login(adminEmail, adminPass)

	code, body := e.do(http.MethodPost, "/v1/admin/users", admin, map[string]any{"email": "op@bfstats.local", "password": "op-pass"})
	require.Equal(t, http.StatusCreated, code, string(body))
	created := decode[map[string]any](t, body)
	opID := created["id"].(string)

	code, _ = e.do(http.MethodPost, "/v1/admin/users", admin, map[string]any{"email": "OP@bfstats.local", "password": "x"})
	assert.Equal(t, http.StatusConflict, code)
	code, _ = e.do(http.MethodPost, "/v1/admin/users", admin, map[string]any{"email": ""})
	assert.Equal(t, http.StatusBadRequest, code)

	op := e.login("op@bfstats.local", "op-pass")
	code, _ = e.do(http.MethodGet, "/v1/admin/users", op, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = e.do(http.MethodGet, "/v1/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]map[string]any](t, body), 2)

	code, _ = e.do(http.MethodPatch, "/v1/admin/users/"+opID, admin, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, code)
	code, _ = e.do(http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "op@bfstats.local", "password": "op-pass"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = e.do(http.MethodPatch, "/v1/admin/users/missing", admin, map[string]any{"is_active": true})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = e.do(http.MethodDelete, "/v1/admin/users/"+opID, admin, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = e.do(http.MethodDelete, "/v1/admin/users/"+opID, admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	_, body = e.do(http.MethodGet, "/v1/me", admin, nil)
	me := decode[map[string]any](t, body)
	code, _ = e.do(http.MethodDelete, "/v1/admin/users/"+me["id"].(string), admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestIssueToken(t *testing.T) {
	e := newEnv(t)
	tok := e.login(adminEmail, adminPass)

	code, body := e.do(http.MethodPost, "/v1/tokens", tok, map[string]any{"pid": 81234567, "server": true, "timestamp": fixedTS})
	require.Equal(t, http.StatusOK, code, string(body))
	res := decode[map[string]any](t, body)
	assert.Equal(t, "dEvTMF4ezf8CZRM8x0qqRw__", res["token"])
	assert.Equal(t, "0032244564000000878ad70401003d3e", res["plaintext_hex"])
	assert.Equal(t, float64(0x3e3d), res["checksum"])

	code, body = e.do(http.MethodPost, "/v1/tokens", tok, map[string]any{"pid": 81234567, "timestamp": fixedTS})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "9bc81Ekd5yT]S5I0Me2UHA__", decode[map[string]any](t, body)["token"])

	code, body = e.do(http.MethodPost, "/v1/tokens", tok, map[string]any{"pid": 1})
	require.Equal(t, http.StatusOK, code)
	assert.NotZero(t, decode[map[string]any](t, body)["timestamp"])

	code, _ = e.do(http.MethodPost, "/v1/tokens", tok, map[string]any{"pid": -1})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = e.do(http.MethodPost, "/v1/tokens", tok, map[string]any{"pid": 1, "extra": true})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = e.do(http.MethodPost, "/v1/tokens", "", map[string]any{"pid": 1})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = e.do(http.MethodGet, "/v1/logs", tok, nil)
	require.Equal(t, http.StatusOK, code)
	logs := decode[[]map[string]any](t, body)
	require.Len(t, logs, 3)
	assert.Equal(t, "ISSUE_TOKEN", logs[0]["action"])
}

func TestServers(t *testing.T) {
	e := newEnv(t)
	tok := e.login(adminEmail, adminPass)

	code, _ := e.do(http.MethodPost, "/v1/servers", tok, map[string]any{"name": "Titan"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = e.do(http.MethodPost, "/v1/servers", tok, map[string]any{"name": " ", "pid": 1})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := e.do(http.MethodPost, "/v1/servers", tok, map[string]any{"name": "Titan", "pid": 81234567, "address": "10.0.0.1:17567"})
	require.Equal(t, http.StatusCreated, code, string(body))
	id := decode[map[string]any](t, body)["id"].(string)

	code, body = e.do(http.MethodPatch, "/v1/servers/"+id, tok, map[string]any{"name": "Titan 2"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Titan 2", decode[map[string]any](t, body)["name"])

	code, body = e.do(http.MethodGet, "/v1/servers", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]map[string]any](t, body), 1)

	code, body = e.do(http.MethodPost, "/v1/servers/"+id+"/token", tok, nil)
	require.Equal(t, http.StatusOK, code, string(body))
	res := decode[map[string]any](t, body)
	assert.Len(t, res["token"], authtoken.TokenLen)
	pt := res["plaintext_hex"].(string)
	assert.Equal(t, "64", pt[8:10])
	assert.Equal(t, "878ad704", pt[16:24])
	assert.Equal(t, "01", pt[24:26])

	_, body = e.do(http.MethodGet, "/v1/logs", tok, nil)
	logs := decode[[]map[string]any](t, body)
	assert.Equal(t, id, logs[0]["server_id"])

	code, _ = e.do(http.MethodDelete, "/v1/servers/"+id, tok, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = e.do(http.MethodPost, "/v1/servers/"+id+"/token", tok, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestEncryptBlock(t *testing.T) {
	e := newEnv(t)
	tok := e.login(adminEmail, adminPass)

	code, body := e.do(http.MethodPost, "/v1/blocks/encrypt", tok, map[string]string{"plaintext_hex": "00000000 00000000 00000000 00000000"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "d80369a55c2b77b9693773887107d960", decode[map[string]string](t, body)["ciphertext_hex"])

	code, _ = e.do(http.MethodPost, "/v1/blocks/encrypt", tok, map[string]string{"plaintext_hex": "00"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = e.do(http.MethodPost, "/v1/blocks/encrypt", tok, map[string]string{"plaintext_hex": "xyz"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStatsProxy(t *testing.T) {
	e := newEnv(t)
	tok := e.login(adminEmail, adminPass)

	e.setStatsBody("O\nH\tasof\nD\t1160000000\nH\tnick\tpid\nD\tFoo\t81234567\n$\t7\t$\n")
	code, body := e.do(http.MethodGet, "/v1/stats/playersearch?nick=Foo", tok, nil)
	require.Equal(t, http.StatusOK, code, string(body))
	res := decode[stats.Result](t, body)
	assert.Equal(t, stats.StatusOK, res.Status)
	assert.Equal(t, "7", res.Trailer)
	assert.Equal(t, []stats.Row{{"asof": "1160000000"}, {"nick": "Foo", "pid": "81234567"}}, res.Rows)
	assert.True(t, strings.HasPrefix(e.query(), "/playersearch.aspx?nick=Foo&auth="), e.query())

	code, body = e.do(http.MethodGet, "/v1/players/search?nick=Foo", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []map[string]any{{"nick": "Foo", "pid": float64(81234567)}}, decode[[]map[string]any](t, body))

	code, _ = e.do(http.MethodGet, "/v1/players/search", tok, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = e.do(http.MethodGet, "/v1/stats/Bad.Name", tok, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = e.do(http.MethodGet, "/v1/players/abc/awards", tok, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = e.do(http.MethodGet, "/v1/players/info?mode=xyz", tok, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = e.do(http.MethodGet, "/v1/stats/getunlocksinfo?authpid=x", tok, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	e.setStatsBody("O\nH\tconfig\nD\tstella\n")
	code, body = e.do(http.MethodGet, "/v1/stats/backend", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []map[string]any{{"config": "stella"}}, decode[[]map[string]any](t, body))

	e.setStatsBody("E\nH\terr\nD\tInvalid Syntax!\n")
	code, body = e.do(http.MethodGet, "/v1/stats/getleaderboard?pos=1", tok, nil)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, stats.StatusError, decode[stats.Result](t, body).Status)

	e.setStatsBody("")
	code, _ = e.do(http.MethodGet, "/v1/players/info?mode=ovr", tok, nil)
	assert.Equal(t, http.StatusBadGateway, code)
}

func TestVectors(t *testing.T) {
	e := newEnv(t)
	tok := e.login(adminEmail, adminPass)

	code, body := e.do(http.MethodPost, "/v1/vectors/generate", tok, map[string]any{"test_mode": "KAT", "count": 3})
	require.Equal(t, http.StatusOK, code, string(body))
	v := decode[map[string]any](t, body)
	assert.Len(t, v["records"], 3)

	code, txt := e.do(http.MethodPost, "/v1/vectors/generate?format=txt", tok, map[string]any{"test_mode": "MMT", "count": 4})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(txt), "[ENCRYPT]")

	code, _ = e.do(http.MethodPost, "/v1/vectors/generate", tok, map[string]any{"test_mode": "MCT"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = e.do(http.MethodPost, "/v1/vectors/validate", tok, string(txt))
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Equal(t, map[string]any{"total": float64(4), "passed": float64(4), "failed": float64(0)}, decode[map[string]any](t, body))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "vectors.txt")
	require.NoError(t, err)
	tampered := "[ENCRYPT]\nCOUNT = 0\nPLAINTEXT = 00000000000000000000000000000000\nCIPHERTEXT = 00000000000000000000000000000000\n"
	_, err = io.WriteString(fw, tampered)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/vectors/validate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[map[string]any](t, rec.Body.Bytes())
	assert.Equal(t, float64(1), res["failed"])

	code, _ = e.do(http.MethodPost, "/v1/vectors/validate", tok, "[DECRYPT]\n")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = e.do(http.MethodPost, "/v1/vectors/validate", tok, "# nothing\n")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLogsScope(t *testing.T) {
	e := newEnv(t)
	admin := e.login(adminEmail, adminPass)
	code, _ := e.do(http.MethodPost, "/v1/admin/users", admin, map[string]any{"email": "op@bfstats.local", "password": "op-pass"})
	require.Equal(t, http.StatusCreated, code)
	op := e.login("op@bfstats.local", "op-pass")

	code, _ = e.do(http.MethodPost, "/v1/tokens", op, map[string]any{"pid": 5})
	require.Equal(t, http.StatusOK, code)

	_, body := e.do(http.MethodGet, "/v1/logs?all=1", op, nil)
	assert.Len(t, decode[[]map[string]any](t, body), 1)

	_, body = e.do(http.MethodGet, "/v1/logs", admin, nil)
	assert.Len(t, decode[[]map[string]any](t, body), 1)

	_, body = e.do(http.MethodGet, "/v1/logs?all=1", admin, nil)
	assert.Len(t, decode[[]map[string]any](t, body), 2)

	_, body = e.do(http.MethodGet, "/v1/logs?all=1&limit=1", admin, nil)
	assert.Len(t, decode[[]map[string]any](t, body), 1)

	code, _ = e.do(http.MethodGet, "/v1/logs?limit=0", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
