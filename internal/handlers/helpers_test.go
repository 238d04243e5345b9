package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"Flow/internal/config"
	"Flow/internal/credential"
	"Flow/internal/handlers"
	"Flow/internal/offload"
	"Flow/internal/repo"
	"Flow/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

// newTestRouter поднимает полный стек поверх SQLite во временном каталоге
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()

	db, err := repo.InitDB(filepath.Join(dir, "flow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.CloseDB(db) })

	bodies, err := offload.New(filepath.Join(dir, "files"))
	require.NoError(t, err)
	creds, err := credential.OpenFileStore(filepath.Join(dir, "credentials.yaml"))
	require.NoError(t, err)

	logger := zap.NewNop().Sugar()
	users := repo.NewUserRepository(db)
	items := repo.NewItemRepository(db)

	userSvc := service.NewUserService(users, items, credential.NewVerifier(creds, users), bodies, logger)
	itemSvc := service.NewItemService(items, bodies, logger, service.Settings{PageSize: 2, PrefetchDistance: 1})

	cfg := &config.Config{AuthSecret: testSecret}
	return handlers.NewHandler(t.Context(), userSvc, itemSvc, logger, cfg).Router
}

// do выполняет запрос с cookie авторизации и JSON-телом
func do(t *testing.T, h http.Handler, method, target string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func login(t *testing.T, h http.Handler, name, password string) ([]*http.Cookie, int64) {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/api/user/login", map[string]string{"login": name, "password": password}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		UserID int64 `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return rr.Result().Cookies(), resp.UserID
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}
