package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/filesmanager/internal/db"
	"github.com/templui/filesmanager/internal/model"
	"github.com/templui/filesmanager/internal/queue"
	"github.com/templui/filesmanager/internal/repository"
	"github.com/templui/filesmanager/internal/storage"
	"github.com/templui/filesmanager/internal/thumbnail"
)

type fakeWelcomer struct {
	userIDs []string
	err     error
}

func (f *fakeWelcomer) SendWelcome(_ context.Context, userID string) error {
	f.userIDs = append(f.userIDs, userID)
	return f.err
}

type fixture struct {
	files    repository.FileRepository
	fs       afero.Fs
	store    storage.Storage
	welcomer *fakeWelcomer
	worker   *Worker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.Init(context.Background(), "sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))

	f := &fixture{
		files:    repository.NewFileRepository(conn),
		fs:       afero.NewMemMapFs(),
		welcomer: &fakeWelcomer{},
	}
	f.store = storage.NewLocalStorage(f.fs, "/tmp/files_manager")
	f.worker = New(f.files, f.store, f.welcomer)
	return f
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1000, 800))
	for x := 0; x < 1000; x += 10 {
		for y := 0; y < 800; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// storeImage saves an image node owned by userID and returns it.
func (f *fixture) storeImage(t *testing.T, userID string, data []byte) *model.Node {
	t.Helper()
	ctx := context.Background()
	loc := f.store.Location("img-" + userID)
	require.NoError(t, f.store.Save(ctx, loc, bytes.NewReader(data)))

	node, err := model.NewContentNode(userID, "photo.jpg", model.NodeTypeImage, model.RootParentID, false, loc)
	require.NoError(t, err)
	require.NoError(t, f.files.Create(ctx, node))
	return node
}

func jobFor(t *testing.T, payload any) *queue.Job {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return &queue.Job{ID: "j1", Data: data}
}

func (f *fixture) renditions(t *testing.T, location string) map[int][]byte {
	t.Helper()
	out := map[int][]byte{}
	for _, w := range thumbnail.Widths {
		data, err := storage.ReadAll(context.Background(), f.store, thumbnail.RenditionLocation(location, w))
		if errors.Is(err, storage.ErrObjectNotFound) {
			continue
		}
		require.NoError(t, err)
		out[w] = data
	}
	return out
}

func TestHandleThumbnail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	node := f.storeImage(t, "u1", testJPEG(t))
	loc, err := node.Location()
	require.NoError(t, err)

	job := jobFor(t, model.ThumbnailJob{FileID: node.ID, UserID: "u1"})
	require.NoError(t, f.worker.HandleThumbnail(ctx, job))

	first := f.renditions(t, loc)
	require.Len(t, first, 3)
	for w, data := range first {
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, w, cfg.Width)
		assert.Equal(t, w*800/1000, cfg.Height)
	}

	// Redelivery produces the same renditions
	require.NoError(t, f.worker.HandleThumbnail(ctx, job))
	assert.Equal(t, first, f.renditions(t, loc))
}

func TestHandleThumbnailRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	node := f.storeImage(t, "u1", testJPEG(t))

	folder := model.NewFolder("u1", "docs", model.RootParentID, false)
	require.NoError(t, f.files.Create(ctx, folder))

	broken := f.storeImage(t, "u2", []byte("not an image"))

	tests := []struct {
		name    string
		payload any
		want    error
	}{
		{"missing fileId", model.ThumbnailJob{UserID: "u1"}, ErrMissingFileID},
		{"missing userId", model.ThumbnailJob{FileID: node.ID}, ErrMissingUserID},
		{"unknown file", model.ThumbnailJob{FileID: "missing", UserID: "u1"}, ErrFileNotFound},
		{"foreign file", model.ThumbnailJob{FileID: node.ID, UserID: "u2"}, ErrFileNotFound},
		{"folder", model.ThumbnailJob{FileID: folder.ID, UserID: "u1"}, model.ErrNoContent},
		{"undecodable image", model.ThumbnailJob{FileID: broken.ID, UserID: "u2"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.worker.HandleThumbnail(ctx, jobFor(t, tt.payload))
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}

	loc, err := broken.Location()
	require.NoError(t, err)
	assert.Empty(t, f.renditions(t, loc))

	err = f.worker.HandleThumbnail(ctx, &queue.Job{ID: "bad", Data: json.RawMessage(`"nope"`)})
	assert.Error(t, err)
}

func TestHandleWelcome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.worker.HandleWelcome(ctx, jobFor(t, model.WelcomeJob{UserID: "u1"})))
	assert.Equal(t, []string{"u1"}, f.welcomer.userIDs)

	assert.ErrorIs(t, f.worker.HandleWelcome(ctx, jobFor(t, model.WelcomeJob{})), ErrMissingUserID)

	f.welcomer.err = errors.New("unknown user")
	assert.Error(t, f.worker.HandleWelcome(ctx, jobFor(t, model.WelcomeJob{UserID: "u2"})))
}

func TestThumbnailQueueEndToEnd(t *testing.T) {
	f := newFixture(t)
	node := f.storeImage(t, "u1", testJPEG(t))
	loc, err := node.Location()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	q := queue.New(rdb, model.QueueThumbnails, 3)

	_, err = q.Add(context.Background(), model.ThumbnailJob{FileID: node.ID, UserID: "u1"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() {
		stopped <- q.Process(ctx, "test", 1, Instrument(model.QueueThumbnails, f.worker.HandleThumbnail))
	}()

	require.Eventually(t, func() bool {
		return len(f.renditions(t, loc)) == 3
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-stopped)

	pending, failed, err := q.Counts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pending)
	assert.Zero(t, failed)
}
