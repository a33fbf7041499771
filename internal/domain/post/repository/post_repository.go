package repository

import (
	"context"

	"post_market/internal/domain/post/model"
	"post_market/internal/domain/post/search"
	baseModel "post_market/pkg/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository 帖子、图集、版本与点赞仓库
type PostRepository interface {
	// Transaction 在事务中执行 fn，fn 收到绑定该事务的仓库
	Transaction(ctx context.Context, fn func(repo PostRepository) error) error

	Create(ctx context.Context, post *model.Post) error
	Save(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	// GetDetail 有效帖子，带封面和有序图集
	GetDetail(ctx context.Context, id string) (*model.Post, error)
	// LockByID SELECT ... FOR UPDATE，须在事务内调用
	LockByID(ctx context.Context, id string) (*model.Post, error)
	Search(ctx context.Context, p search.Params, categoryIDs []string) ([]model.Post, int64, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Post, int64, error)

	ReplaceGallery(ctx context.Context, postID string, photoIDs []string) error

	NextVersionNumber(ctx context.Context, postID string) (int, error)
	CreateVersion(ctx context.Context, v *model.PostVersion) error
	ListVersions(ctx context.Context, postID string) ([]model.PostVersion, error)
	GetVersion(ctx context.Context, postID string, number int) (*model.PostVersion, error)

	FindLike(ctx context.Context, userID, postID string) (*model.Like, error)
	CreateLike(ctx context.Context, like *model.Like) error
	DeleteLike(ctx context.Context, id string) error
	CountLikes(ctx context.Context, postID string) (int64, error)
	ListLikers(ctx context.Context, postID string, offset, limit int) ([]model.Author, int64, error)
	ListLikedPosts(ctx context.Context, userID string, offset, limit int) ([]model.Post, int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository 创建帖子仓库
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// activePhotos 预加载时排除已删除的图片
func activePhotos(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", baseModel.StatusActive)
}

// activeGallery 只保留图片仍有效的图集条目
func activeGallery(db *gorm.DB) *gorm.DB {
	return db.
		Joins("JOIN photos ON photos.id = post_galleries.photo_id AND photos.status = ?", baseModel.StatusActive).
		Where("post_galleries.status = ?", baseModel.StatusActive).
		Order("post_galleries.sort_order ASC")
}

func (r *postRepository) Transaction(ctx context.Context, fn func(repo PostRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&postRepository{db: tx})
	})
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

func (r *postRepository) Save(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetDetail(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).
		Preload("CoverPhoto", activePhotos).
		Preload("Gallery", activeGallery).
		Preload("Gallery.Photo", activePhotos).
		Where("id = ? AND status = ?", id, baseModel.StatusActive).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) LockByID(ctx context.Context, id string) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Search 条件分别用于计数和分页查询，两次构造避免共享 Statement
func (r *postRepository) Search(ctx context.Context, p search.Params, categoryIDs []string) ([]model.Post, int64, error) {
	countQuery, err := search.Apply(r.db.WithContext(ctx).Model(&model.Post{}), p, categoryIDs)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery, err := search.Apply(r.db.WithContext(ctx).Model(&model.Post{}), p, categoryIDs)
	if err != nil {
		return nil, 0, err
	}
	var posts []model.Post
	if err := search.Page(listQuery, p).Preload("CoverPhoto", activePhotos).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Post, int64, error) {
	var posts []model.Post
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("user_id = ? AND status = ?", userID, baseModel.StatusActive)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("CoverPhoto", activePhotos).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, total, err
}

// ReplaceGallery 用 photoIDs 的顺序整体替换图集
func (r *postRepository) ReplaceGallery(ctx context.Context, postID string, photoIDs []string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("post_id = ?", postID).Delete(&model.PostGallery{}).Error; err != nil {
		return err
	}
	if len(photoIDs) == 0 {
		return nil
	}

	items := make([]model.PostGallery, 0, len(photoIDs))
	for i, photoID := range photoIDs {
		items = append(items, model.PostGallery{
			PostID:    postID,
			PhotoID:   photoID,
			SortOrder: i,
			Status:    baseModel.StatusActive,
		})
	}
	return db.Omit(clause.Associations).Create(&items).Error
}

// --- Versions ---

func (r *postRepository) NextVersionNumber(ctx context.Context, postID string) (int, error) {
	var current int
	err := r.db.WithContext(ctx).Model(&model.PostVersion{}).
		Select("COALESCE(MAX(version_number), 0)").
		Where("post_id = ?", postID).
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (r *postRepository) CreateVersion(ctx context.Context, v *model.PostVersion) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error
}

func (r *postRepository) ListVersions(ctx context.Context, postID string) ([]model.PostVersion, error) {
	var versions []model.PostVersion
	err := r.db.WithContext(ctx).
		Preload("ChangedByUser").
		Where("post_id = ?", postID).
		Order("version_number DESC").
		Find(&versions).Error
	return versions, err
}

func (r *postRepository) GetVersion(ctx context.Context, postID string, number int) (*model.PostVersion, error) {
	var v model.PostVersion
	err := r.db.WithContext(ctx).
		Preload("ChangedByUser").
		Where("post_id = ? AND version_number = ?", postID, number).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// --- Likes ---

func (r *postRepository) FindLike(ctx context.Context, userID, postID string) (*model.Like, error) {
	var like model.Like
	if err := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).First(&like).Error; err != nil {
		return nil, err
	}
	return &like, nil
}

func (r *postRepository) CreateLike(ctx context.Context, like *model.Like) error {
	return r.db.WithContext(ctx).Create(like).Error
}

func (r *postRepository) DeleteLike(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Like{}).Error
}

func (r *postRepository) CountLikes(ctx context.Context, postID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Like{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}

func (r *postRepository) ListLikers(ctx context.Context, postID string, offset, limit int) ([]model.Author, int64, error) {
	var users []model.Author
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Author{}).
		Joins("JOIN likes ON likes.user_id = users.id").
		Where("likes.post_id = ? AND users.status = ?", postID, baseModel.StatusActive)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Select("users.id", "users.username").
		Order("likes.created_at DESC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	return users, total, err
}

func (r *postRepository) ListLikedPosts(ctx context.Context, userID string, offset, limit int) ([]model.Post, int64, error) {
	var posts []model.Post
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Post{}).
		Joins("JOIN likes ON likes.post_id = posts.id").
		Where("likes.user_id = ? AND posts.status = ?", userID, baseModel.StatusActive)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("CoverPhoto", activePhotos).
		Order("likes.created_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, total, err
}
