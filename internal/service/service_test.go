package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/templui/filesmanager/internal/db"
	"github.com/templui/filesmanager/internal/model"
	"github.com/templui/filesmanager/internal/repository"
	"github.com/templui/filesmanager/internal/session"
	"github.com/templui/filesmanager/internal/storage"
)

const testRoot = "/tmp/files_manager"

type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []any
	err  error
}

func (f *fakeEnqueuer) Add(_ context.Context, payload any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.jobs = append(f.jobs, payload)
	return "job-id", nil
}

func (f *fakeEnqueuer) Jobs() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.jobs...)
}

// failingFileRepository rejects every insert.
type failingFileRepository struct {
	repository.FileRepository
}

func (failingFileRepository) Create(context.Context, *model.Node) error {
	return errors.New("disk full")
}

type testEnv struct {
	fs         afero.Fs
	store      storage.Storage
	users      repository.UserRepository
	files      repository.FileRepository
	sessions   *session.Store
	redis      *miniredis.Miniredis
	thumbnails *fakeEnqueuer
	welcome    *fakeEnqueuer

	auth    *AuthService
	user    *UserService
	file    *FileService
	content *ContentService
	app     *AppService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Init(ctx, "sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &testEnv{
		fs:         afero.NewMemMapFs(),
		users:      repository.NewUserRepository(conn),
		files:      repository.NewFileRepository(conn),
		sessions:   session.NewStore(rdb, 24*time.Hour),
		redis:      mr,
		thumbnails: &fakeEnqueuer{},
		welcome:    &fakeEnqueuer{},
	}
	env.store = storage.NewLocalStorage(env.fs, testRoot)
	env.content = NewContentService(env.store)
	env.auth = NewAuthService(env.users, env.sessions)
	env.user = NewUserService(env.users, env.auth, NewEmailService("", "noreply@example.com", "Files Manager", true), env.welcome)
	env.file = NewFileService(env.files, env.content, env.thumbnails)
	env.app = NewAppService(
		func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		conn.PingContext,
		env.users,
		env.files,
	)
	return env
}

// register creates a user and returns its id.
func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	u, err := e.user.Register(context.Background(), email, "pw1")
	require.NoError(t, err)
	return u.ID
}

// contentFiles lists every object under the content root.
func (e *testEnv) contentFiles(t *testing.T) []string {
	t.Helper()
	exists, err := afero.DirExists(e.fs, testRoot)
	require.NoError(t, err)
	if !exists {
		return nil
	}
	entries, err := afero.ReadDir(e.fs, testRoot)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}
