package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/datatypes"

	"github.com/charlesng35/softstore/internal/database"
	"github.com/charlesng35/softstore/internal/models"
	"github.com/charlesng35/softstore/internal/softdelete"
	apperrors "github.com/charlesng35/softstore/pkg/errors"
)

var (
	// ErrTagNotFound indicates the requested tag does not exist or is deleted.
	ErrTagNotFound = apperrors.New("TAG_NOT_FOUND", "Tag not found", http.StatusNotFound)
	// ErrTagExists indicates a live tag already uses the requested name.
	ErrTagExists = apperrors.New("TAG_EXISTS", "A tag with this name already exists", http.StatusConflict)
)

// TagService manages tags on top of the soft-delete repository.
type TagService struct {
	repo *softdelete.Repository[models.Tag]
}

// NewTagService constructs a tag service once a repository is supplied.
func NewTagService(repo *softdelete.Repository[models.Tag]) (*TagService, error) {
	if repo == nil {
		return nil, errors.New("tag service: repository is required")
	}
	return &TagService{repo: repo}, nil
}

func ensuredContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// CreateTagInput captures the fields of a new tag.
type CreateTagInput struct {
	Name        string
	Description string
	Color       string
	Metadata    map[string]any
}

// UpdateTagInput describes mutable tag fields. A nil pointer indicates no change.
type UpdateTagInput struct {
	Name        *string
	Description *string
	Color       *string
	Metadata    map[string]any
}

// ListTagsOptions controls paging. Zero values return every tag.
type ListTagsOptions struct {
	Limit  int
	Offset int
}

// Create persists a tag. A soft-deleted tag with the same name is brought back with
// the new values.
func (s *TagService) Create(ctx context.Context, input CreateTagInput) (*models.Tag, error) {
	ctx = ensuredContext(ctx)

	tag, err := buildTag(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, s.translate(err, "create tag")
	}
	return tag, nil
}

// Get returns a live tag by id.
func (s *TagService) Get(ctx context.Context, id string) (*models.Tag, error) {
	ctx = ensuredContext(ctx)

	tag, err := s.repo.Get(ctx, softdelete.Conditions{"id": strings.TrimSpace(id)})
	if err != nil {
		return nil, s.translate(err, "get tag")
	}
	return tag, nil
}

// FindByName returns the live tag whose name matches ignoring case. Names are unique
// per exact spelling only, so when several casings are live the earliest created wins.
func (s *TagService) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	ctx = ensuredContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewBadRequest("Tag name is required")
	}
	tag, err := s.repo.Default(ctx).
		Filter(softdelete.Conditions{"name": name}).
		OrderBy("created_at", false).
		First()
	if err != nil {
		return nil, s.translate(err, "find tag")
	}
	return tag, nil
}

// List returns live tags ordered by name.
func (s *TagService) List(ctx context.Context, opts ListTagsOptions) ([]*models.Tag, error) {
	return s.list(s.repo.Default(ensuredContext(ctx)), opts)
}

// ListDeleted returns soft-deleted tags ordered by name.
func (s *TagService) ListDeleted(ctx context.Context, opts ListTagsOptions) ([]*models.Tag, error) {
	return s.list(s.repo.Deleted(ensuredContext(ctx)), opts)
}

func (s *TagService) list(q *softdelete.Query[models.Tag], opts ListTagsOptions) ([]*models.Tag, error) {
	q = q.OrderBy("name", false)
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	tags, err := q.Find()
	if err != nil {
		return nil, fmt.Errorf("tag service: list tags: %w", err)
	}
	return tags, nil
}

// Update applies the supplied changes to a live tag.
func (s *TagService) Update(ctx context.Context, id string, input UpdateTagInput) (*models.Tag, error) {
	ctx = ensuredContext(ctx)

	tag, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("Tag name is required")
		}
		tag.Name = name
	}
	if input.Description != nil {
		tag.Description = strings.TrimSpace(*input.Description)
	}
	if input.Color != nil {
		tag.Color = strings.TrimSpace(*input.Color)
	}
	if input.Metadata != nil {
		tag.Metadata = datatypes.JSONMap(input.Metadata)
	}

	if err := s.repo.Save(ctx, tag, softdelete.ForceUpdate()); err != nil {
		return nil, s.translate(err, "update tag")
	}
	return tag, nil
}

// Delete soft-deletes a live tag.
func (s *TagService) Delete(ctx context.Context, id string) error {
	ctx = ensuredContext(ctx)

	tag, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, tag); err != nil {
		return s.translate(err, "delete tag")
	}
	return nil
}

// Restore clears the deleted flag of a soft-deleted tag.
func (s *TagService) Restore(ctx context.Context, id string) (*models.Tag, error) {
	ctx = ensuredContext(ctx)

	tag, err := s.repo.Deleted(ctx).Filter(softdelete.Conditions{"id": strings.TrimSpace(id)}).First()
	if err != nil {
		return nil, s.translate(err, "restore tag")
	}
	tag.SetDeleted(false)
	if err := s.repo.Save(ctx, tag, softdelete.ForceUpdate()); err != nil {
		return nil, s.translate(err, "restore tag")
	}
	return tag, nil
}

// Purge removes a tag from storage whether or not it is soft-deleted.
func (s *TagService) Purge(ctx context.Context, id string) error {
	ctx = ensuredContext(ctx)

	tag, err := s.repo.Unfiltered(ctx).Filter(softdelete.Conditions{"id": strings.TrimSpace(id)}).First()
	if err != nil {
		return s.translate(err, "purge tag")
	}
	if err := s.repo.HardDelete(ctx, tag); err != nil {
		return s.translate(err, "purge tag")
	}
	return nil
}

// Import inserts the supplied tags in one statement, skipping names already taken by
// live or deleted tags. It returns the number of tags inserted.
func (s *TagService) Import(ctx context.Context, inputs []CreateTagInput) (int64, error) {
	ctx = ensuredContext(ctx)

	tags := make([]*models.Tag, 0, len(inputs))
	for i, input := range inputs {
		tag, err := buildTag(input)
		if err != nil {
			return 0, apperrors.NewBadRequest(fmt.Sprintf("Tag %d: %s", i, err.Error()))
		}
		tags = append(tags, tag)
	}

	inserted, err := s.repo.BulkInsertIgnore(ctx, tags)
	if err != nil {
		return 0, fmt.Errorf("tag service: import tags: %w", err)
	}
	return inserted, nil
}

func buildTag(input CreateTagInput) (*models.Tag, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("Tag name is required")
	}
	tag := &models.Tag{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Color:       strings.TrimSpace(input.Color),
	}
	if len(input.Metadata) > 0 {
		tag.Metadata = datatypes.JSONMap(input.Metadata)
	}
	return tag, nil
}

func (s *TagService) translate(err error, action string) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case database.IsUniqueViolation(err):
		return ErrTagExists.WithInternal(err)
	case errors.Is(err, softdelete.ErrNotFound), errors.Is(err, softdelete.ErrNoRowsUpdated):
		return ErrTagNotFound.WithInternal(err)
	default:
		return fmt.Errorf("tag service: %s: %w", action, err)
	}
}
