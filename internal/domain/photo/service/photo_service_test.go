package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"testing"

	"post_market/internal/domain/photo/model"
	"post_market/pkg/apperr"
	"post_market/pkg/cache"
	baseModel "post_market/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockPhotoRepository struct {
	mock.Mock
}

func (m *MockPhotoRepository) CreateBatch(ctx context.Context, photos []model.Photo) error {
	return m.Called(ctx, photos).Error(0)
}

func (m *MockPhotoRepository) GetByID(ctx context.Context, id string) (*model.Photo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Photo), args.Error(1)
}

func (m *MockPhotoRepository) ListActiveByUser(ctx context.Context, userID string, offset, limit int) ([]model.Photo, int64, error) {
	args := m.Called(ctx, userID, offset, limit)
	return args.Get(0).([]model.Photo), args.Get(1).(int64), args.Error(2)
}

func (m *MockPhotoRepository) UpdateStatus(ctx context.Context, id string, status int) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockPhotoRepository) CountOwnedActive(ctx context.Context, userID string, ids []string) (int64, error) {
	args := m.Called(ctx, userID, ids)
	return args.Get(0).(int64), args.Error(1)
}

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, key string, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	return "https://bucket.example.com/" + key, nil
}

func formFiles(t *testing.T, names ...string) []*multipart.FileHeader {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, _ = part.Write([]byte("img"))
	}
	require.NoError(t, w.Close())
	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["files"]
}

func TestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("stores one photo per file", func(t *testing.T) {
		repo := new(MockPhotoRepository)
		repo.On("CreateBatch", ctx, mock.MatchedBy(func(p []model.Photo) bool {
			return len(p) == 2 && p[0].UserID == "u1" && p[1].Status == baseModel.StatusActive
		})).Return(nil)

		photos, err := NewPhotoService(repo, stubUploader{}, cache.NopInvalidator{}).Upload(ctx, "u1", formFiles(t, "a.jpg", "b.png"))
		require.NoError(t, err)
		require.Len(t, photos, 2)
		assert.Contains(t, photos[0].URL, photos[0].Filename)
		assert.Contains(t, photos[1].Filename, ".png")
		repo.AssertExpectations(t)
	})

	t.Run("no files", func(t *testing.T) {
		_, err := NewPhotoService(new(MockPhotoRepository), stubUploader{}, cache.NopInvalidator{}).Upload(ctx, "u1", nil)
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("uploader missing", func(t *testing.T) {
		_, err := NewPhotoService(new(MockPhotoRepository), nil, cache.NopInvalidator{}).Upload(ctx, "u1", formFiles(t, "a.jpg"))
		assert.True(t, apperr.Is(err, apperr.KindInternal))
	})
}

type recordingInvalidator struct{ families []string }

func (r *recordingInvalidator) Invalidate(ctx context.Context, family string) {
	r.families = append(r.families, family)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	own := &model.Photo{UserID: "u1", Status: baseModel.StatusActive}
	own.ID = "p1"

	t.Run("owner deletes", func(t *testing.T) {
		repo := new(MockPhotoRepository)
		repo.On("GetByID", ctx, "p1").Return(own, nil)
		repo.On("UpdateStatus", ctx, "p1", baseModel.StatusDeleted).Return(nil)
		inv := &recordingInvalidator{}

		require.NoError(t, NewPhotoService(repo, nil, inv).Delete(ctx, "u1", "p1"))
		repo.AssertExpectations(t)
		assert.Equal(t, []string{cache.FamilyPosts}, inv.families)
	})

	t.Run("other user forbidden", func(t *testing.T) {
		repo := new(MockPhotoRepository)
		repo.On("GetByID", ctx, "p1").Return(own, nil)

		inv := &recordingInvalidator{}
		err := NewPhotoService(repo, nil, inv).Delete(ctx, "u2", "p1")
		assert.True(t, apperr.Is(err, apperr.KindForbidden))
		assert.Empty(t, inv.families)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing", func(t *testing.T) {
		repo := new(MockPhotoRepository)
		repo.On("GetByID", ctx, "nope").Return(nil, gorm.ErrRecordNotFound)

		err := NewPhotoService(repo, nil, cache.NopInvalidator{}).Delete(ctx, "u1", "nope")
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})
}

func TestCheckOwned(t *testing.T) {
	ctx := context.Background()
	a := "0b5f3c1e-8a2d-4f6b-9c7e-1d2e3f4a5b6c"
	b := "1c6a4d2f-9b3e-4a7c-8d8f-2e3f4a5b6c7d"

	t.Run("duplicates collapse", func(t *testing.T) {
		repo := new(MockPhotoRepository)
		repo.On("CountOwnedActive", ctx, "u1", []string{a, b}).Return(int64(2), nil)
		assert.NoError(t, NewPhotoService(repo, nil, cache.NopInvalidator{}).CheckOwned(ctx, "u1", []string{a, b, a}))
	})

	t.Run("foreign photo rejected", func(t *testing.T) {
		repo := new(MockPhotoRepository)
		repo.On("CountOwnedActive", ctx, "u1", []string{a, b}).Return(int64(1), nil)
		err := NewPhotoService(repo, nil, cache.NopInvalidator{}).CheckOwned(ctx, "u1", []string{a, b})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("malformed id rejected without store", func(t *testing.T) {
		repo := new(MockPhotoRepository)
		err := NewPhotoService(repo, nil, cache.NopInvalidator{}).CheckOwned(ctx, "u1", []string{a, "not-a-uuid"})
		assert.True(t, apperr.Is(err, apperr.KindValidation))
		repo.AssertNotCalled(t, "CountOwnedActive", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty list skips store", func(t *testing.T) {
		assert.NoError(t, NewPhotoService(new(MockPhotoRepository), nil, cache.NopInvalidator{}).CheckOwned(ctx, "u1", nil))
	})

	t.Run("store failure", func(t *testing.T) {
		repo := new(MockPhotoRepository)
		repo.On("CountOwnedActive", ctx, "u1", []string{a}).Return(int64(0), errors.New("conn reset"))
		err := NewPhotoService(repo, nil, cache.NopInvalidator{}).CheckOwned(ctx, "u1", []string{a})
		assert.True(t, apperr.Is(err, apperr.KindInternal))
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	repo := new(MockPhotoRepository)
	repo.On("ListActiveByUser", ctx, "u1", 0, 10).Return([]model.Photo{{UserID: "u1"}}, int64(11), nil)

	result, err := NewPhotoService(repo, nil, cache.NopInvalidator{}).List(ctx, "u1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(11), result.Total)
	assert.Equal(t, 2, result.TotalPages)
}
