package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return db, mock
}

func TestLockByIDUsesForUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "status", "stock_quantity", "attributes"}).
			AddRow("p1", "Boots", "19.90", 1, 4, `{"size":"39"}`))
	mock.ExpectCommit()

	err := repo.Transaction(context.Background(), func(tx PostRepository) error {
		post, err := tx.LockByID(context.Background(), "p1")
		require.NoError(t, err)
		assert.Equal(t, "Boots", post.Title)
		assert.Equal(t, "19.9", post.Price.String())
		assert.Equal(t, 4, post.StockQuantity)
		assert.Equal(t, "39", post.Attributes["size"])
		return nil
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextVersionNumber(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version_number\), 0\) FROM "post_versions" WHERE post_id = \$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))

	n, err := repo.NextVersionNumber(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextVersionNumberFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version_number\), 0\) FROM "post_versions"`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	n, err := repo.NextVersionNumber(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCountLikes(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "likes" WHERE post_id = \$1`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.CountLikes(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestGetDetailSkipsDeletedPhotos(t *testing.T) {
	db, mock := newMockDB(t)
	mock.MatchExpectationsInOrder(false)
	repo := NewPostRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "posts" WHERE id = \$1 AND status = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "cover_photo_id", "status"}).
			AddRow("p1", "Boots", "c1", 1))
	// 封面图片已删除
	mock.ExpectQuery(`SELECT \* FROM "photos" WHERE status = \$1`).
		WithArgs(1, "c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "status"}))
	mock.ExpectQuery(`FROM "post_galleries" JOIN photos ON photos\.id = post_galleries\.photo_id AND photos\.status = \$1 WHERE post_galleries\.status = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "photo_id", "sort_order", "status"}).
			AddRow("g1", "p1", "ph1", 0, 1))
	mock.ExpectQuery(`SELECT \* FROM "photos" WHERE status = \$1`).
		WithArgs(1, "ph1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "status"}).AddRow("ph1", "https://cdn/ph1.jpg", 1))

	post, err := repo.GetDetail(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, post.CoverPhoto)
	require.Len(t, post.Gallery, 1)
	require.NotNil(t, post.Gallery[0].Photo)
	assert.Equal(t, "ph1", post.Gallery[0].Photo.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
