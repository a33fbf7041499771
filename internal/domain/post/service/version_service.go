package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"post_market/internal/domain/post/model"
	"post_market/internal/domain/post/repository"
	"post_market/pkg/apperr"
	"post_market/pkg/cache"
	"post_market/pkg/database"
	"post_market/pkg/metrics"
	"post_market/pkg/response"
	"post_market/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// FieldDiff 版本比较中一个字段的新旧值
type FieldDiff struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// VersionService 帖子版本服务
type VersionService interface {
	// CreateVersion 写入帖子当前状态的快照，必须在调用方事务内、帖子行加锁之后调用
	CreateVersion(ctx context.Context, repo repository.PostRepository, post *model.Post, changeType, changedBy string, reason *string) (*model.PostVersion, error)
	ListVersions(ctx context.Context, postID string) ([]model.PostVersion, error)
	GetVersion(ctx context.Context, postID string, number int) (*model.PostVersion, error)
	// Restore 先为当前状态生成 UPDATE 快照，再用版本 number 覆盖帖子
	Restore(ctx context.Context, postID string, number int, changedBy string, reason *string) (*model.Post, error)
	// Compare 只返回两个版本间不同的字段
	Compare(ctx context.Context, postID string, v1, v2 int) (map[string]FieldDiff, error)
}

type versionService struct {
	repo  repository.PostRepository
	cache cache.Invalidator
}

// NewVersionService 创建版本服务
func NewVersionService(repo repository.PostRepository, invalidator cache.Invalidator) VersionService {
	return &versionService{repo: repo, cache: invalidator}
}

var (
	errPostNotFound    = apperr.NotFound(response.ErrPostNotFound, "post not found")
	errVersionNotFound = apperr.NotFound(response.ErrVersionNotFound, "version not found")
	errNotPostOwner    = apperr.Forbidden(response.ErrNoPermission, "you can only modify your own posts")
)

func (s *versionService) CreateVersion(ctx context.Context, repo repository.PostRepository, post *model.Post, changeType, changedBy string, reason *string) (*model.PostVersion, error) {
	number, err := repo.NextVersionNumber(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("next version number: %w", err)
	}

	v := model.Snapshot(post, number, changeType, changedBy, reason)
	if err := repo.CreateVersion(ctx, v); err != nil {
		return nil, fmt.Errorf("create version %d: %w", number, err)
	}

	metrics.GetGlobalCollector().RecordPostVersion(changeType)
	return v, nil
}

func (s *versionService) ListVersions(ctx context.Context, postID string) ([]model.PostVersion, error) {
	if _, err := s.repo.GetByID(ctx, postID); err != nil {
		if database.IsNotFound(err) {
			return nil, errPostNotFound
		}
		return nil, apperr.Internal(err)
	}

	versions, err := s.repo.ListVersions(ctx, postID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return versions, nil
}

func (s *versionService) GetVersion(ctx context.Context, postID string, number int) (*model.PostVersion, error) {
	return getVersion(ctx, s.repo, postID, number)
}

func (s *versionService) Restore(ctx context.Context, postID string, number int, changedBy string, reason *string) (post *model.Post, err error) {
	ctx, span := tracing.Start(ctx, "post.version.restore",
		attribute.String("post.id", postID), attribute.Int("version", number))
	defer func() { tracing.End(span, err) }()

	if reason == nil || *reason == "" {
		r := fmt.Sprintf("Restored to version %d", number)
		reason = &r
	}

	err = s.repo.Transaction(ctx, func(tx repository.PostRepository) error {
		current, err := lockPost(ctx, tx, postID)
		if err != nil {
			return err
		}
		if current.UserID != changedBy {
			return errNotPostOwner
		}

		target, err := getVersion(ctx, tx, postID, number)
		if err != nil {
			return err
		}

		if _, err := s.CreateVersion(ctx, tx, current, model.ChangeUpdate, changedBy, reason); err != nil {
			return apperr.Internal(err)
		}

		target.ApplyTo(current)
		if err := tx.Save(ctx, current); err != nil {
			return apperr.Internal(err)
		}
		post = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.FamilyPosts)
	return post, nil
}

func (s *versionService) Compare(ctx context.Context, postID string, v1, v2 int) (map[string]FieldDiff, error) {
	older, err := getVersion(ctx, s.repo, postID, v1)
	if err != nil {
		return nil, err
	}
	newer, err := getVersion(ctx, s.repo, postID, v2)
	if err != nil {
		return nil, err
	}
	return Diff(older, newer)
}

// Diff 按 JSON 序列化结果比较可比较字段
func Diff(a, b *model.PostVersion) (map[string]FieldDiff, error) {
	diff := make(map[string]FieldDiff)
	left, right := a.ComparableFields(), b.ComparableFields()

	for i := range left {
		l, err := json.Marshal(left[i].Value)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		r, err := json.Marshal(right[i].Value)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if !bytes.Equal(l, r) {
			diff[left[i].Name] = FieldDiff{Old: left[i].Value, New: right[i].Value}
		}
	}
	return diff, nil
}

func getVersion(ctx context.Context, repo repository.PostRepository, postID string, number int) (*model.PostVersion, error) {
	v, err := repo.GetVersion(ctx, postID, number)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errVersionNotFound
		}
		return nil, apperr.Internal(err)
	}
	return v, nil
}

// lockPost 加行锁读取帖子，不区分状态
func lockPost(ctx context.Context, repo repository.PostRepository, postID string) (*model.Post, error) {
	post, err := repo.LockByID(ctx, postID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errPostNotFound
		}
		return nil, apperr.Internal(err)
	}
	return post, nil
}
