package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"post_market/internal/domain/post/model"
	"post_market/internal/domain/post/repository"
	"post_market/internal/domain/post/search"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeRepo 内存仓库，Transaction 失败时回滚全部状态
type fakeRepo struct {
	posts    map[string]model.Post
	versions []model.PostVersion
	likes    map[string]model.Like
	gallery  map[string][]string
	authors  map[string]string

	failCreateVersion bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		posts:   map[string]model.Post{},
		likes:   map[string]model.Like{},
		gallery: map[string][]string{},
		authors: map[string]string{},
	}
}

func clonePost(p model.Post) model.Post {
	attrs := make(map[string]interface{}, len(p.Attributes))
	for k, v := range p.Attributes {
		attrs[k] = v
	}
	p.Attributes = attrs
	return p
}

func (r *fakeRepo) Transaction(ctx context.Context, fn func(repo repository.PostRepository) error) error {
	posts := make(map[string]model.Post, len(r.posts))
	for k, v := range r.posts {
		posts[k] = clonePost(v)
	}
	versions := append([]model.PostVersion(nil), r.versions...)
	likes := make(map[string]model.Like, len(r.likes))
	for k, v := range r.likes {
		likes[k] = v
	}
	gallery := make(map[string][]string, len(r.gallery))
	for k, v := range r.gallery {
		gallery[k] = append([]string(nil), v...)
	}

	if err := fn(r); err != nil {
		r.posts, r.versions, r.likes, r.gallery = posts, versions, likes, gallery
		return err
	}
	return nil
}

func (r *fakeRepo) Create(ctx context.Context, post *model.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	post.CreatedAt = time.Now()
	r.posts[post.ID] = clonePost(*post)
	return nil
}

func (r *fakeRepo) Save(ctx context.Context, post *model.Post) error {
	r.posts[post.ID] = clonePost(*post)
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	p, ok := r.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := clonePost(p)
	return &cp, nil
}

func (r *fakeRepo) GetDetail(ctx context.Context, id string) (*model.Post, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != 1 {
		return nil, gorm.ErrRecordNotFound
	}
	for i, photoID := range r.gallery[id] {
		p.Gallery = append(p.Gallery, model.PostGallery{PostID: id, PhotoID: photoID, SortOrder: i, Status: 1})
	}
	return p, nil
}

func (r *fakeRepo) LockByID(ctx context.Context, id string) (*model.Post, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeRepo) Search(ctx context.Context, p search.Params, categoryIDs []string) ([]model.Post, int64, error) {
	var out []model.Post
	for _, post := range r.posts {
		if post.Status != 1 {
			continue
		}
		if len(categoryIDs) > 0 && (post.CategoryID == nil || !contains(categoryIDs, *post.CategoryID)) {
			continue
		}
		out = append(out, post)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	start := min(p.Offset(), len(out))
	end := min(start+p.Limit, len(out))
	return out[start:end], total, nil
}

func (r *fakeRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Post, int64, error) {
	var out []model.Post
	for _, post := range r.posts {
		if post.UserID == userID && post.Status == 1 {
			out = append(out, post)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) ReplaceGallery(ctx context.Context, postID string, photoIDs []string) error {
	r.gallery[postID] = append([]string(nil), photoIDs...)
	return nil
}

func (r *fakeRepo) NextVersionNumber(ctx context.Context, postID string) (int, error) {
	n := 0
	for _, v := range r.versions {
		if v.PostID == postID && v.VersionNumber > n {
			n = v.VersionNumber
		}
	}
	return n + 1, nil
}

func (r *fakeRepo) CreateVersion(ctx context.Context, v *model.PostVersion) error {
	if r.failCreateVersion {
		return errors.New("disk full")
	}
	for _, existing := range r.versions {
		if existing.PostID == v.PostID && existing.VersionNumber == v.VersionNumber {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	v.ID = uuid.New().String()
	r.versions = append(r.versions, *v)
	return nil
}

func (r *fakeRepo) ListVersions(ctx context.Context, postID string) ([]model.PostVersion, error) {
	var out []model.PostVersion
	for _, v := range r.versions {
		if v.PostID == postID {
			if name, ok := r.authors[v.ChangedBy]; ok {
				v.ChangedByUser = &model.Author{ID: v.ChangedBy, Username: name}
			}
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber > out[j].VersionNumber })
	return out, nil
}

func (r *fakeRepo) GetVersion(ctx context.Context, postID string, number int) (*model.PostVersion, error) {
	for _, v := range r.versions {
		if v.PostID == postID && v.VersionNumber == number {
			cp := v
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) FindLike(ctx context.Context, userID, postID string) (*model.Like, error) {
	for _, l := range r.likes {
		if l.UserID == userID && l.PostID == postID {
			cp := l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) CreateLike(ctx context.Context, like *model.Like) error {
	like.ID = uuid.New().String()
	r.likes[like.ID] = *like
	return nil
}

func (r *fakeRepo) DeleteLike(ctx context.Context, id string) error {
	delete(r.likes, id)
	return nil
}

func (r *fakeRepo) CountLikes(ctx context.Context, postID string) (int64, error) {
	var n int64
	for _, l := range r.likes {
		if l.PostID == postID {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) ListLikers(ctx context.Context, postID string, offset, limit int) ([]model.Author, int64, error) {
	var out []model.Author
	for _, l := range r.likes {
		if l.PostID == postID {
			out = append(out, model.Author{ID: l.UserID, Username: r.authors[l.UserID]})
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) ListLikedPosts(ctx context.Context, userID string, offset, limit int) ([]model.Post, int64, error) {
	var out []model.Post
	for _, l := range r.likes {
		if l.UserID == userID {
			if p, ok := r.posts[l.PostID]; ok && p.Status == 1 {
				out = append(out, p)
			}
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) versionsOf(postID string) []model.PostVersion {
	var out []model.PostVersion
	for _, v := range r.versions {
		if v.PostID == postID {
			out = append(out, v)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
