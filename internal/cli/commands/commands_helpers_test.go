package commands

import (
	"bytes"
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

// перехват stdout на время теста
func withStdoutCapture(t *testing.T, fn func()) string {
	t.Helper()
	old := Out
	var buf bytes.Buffer
	Out = &buf
	defer func() { Out = old }()
	fn()
	return buf.String()
}

// fakeServerConfig - конфиг CLI, направленный на тестовый HTTP-обработчик
func fakeServerConfig(t *testing.T, h http.Handler) *config.Config {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return &config.Config{ServerURL: ts.URL, TokenFile: filepath.Join(t.TempDir(), "token")}
}

// realServerConfig поднимает настоящий сервер Flow поверх временной SQLite
func realServerConfig(t *testing.T) *config.Config {
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

	srvCfg := &config.Config{AuthSecret: "cli-test"}
	return fakeServerConfig(t, handlers.NewHandler(t.Context(), userSvc, itemSvc, logger, srvCfg).Router)
}
