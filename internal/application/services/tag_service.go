package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/priospace/core/internal/application/store"
	"github.com/priospace/core/internal/domain/entities"
	"github.com/priospace/core/internal/infrastructure/logger"
	"github.com/priospace/core/internal/ports"
)

const defaultTagColor = "#3b82f6"

// TagService handles custom tag operations.
type TagService struct {
	store  *store.Store
	logger *logger.Logger
}

// NewTagService creates a new tag service.
func NewTagService(s *store.Store, logger *logger.Logger) *TagService {
	return &TagService{store: s, logger: logger}
}

// ListTags returns all custom tags.
func (s *TagService) ListTags() []*entities.Tag {
	return s.store.Tags()
}

// CreateTag creates a tag. Names are unique case-insensitively.
func (s *TagService) CreateTag(req ports.CreateTagRequest) (*entities.Tag, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("tag name is required")
	}
	for _, existing := range s.store.Tags() {
		if strings.EqualFold(existing.Name, name) {
			return nil, fmt.Errorf("tag %q already exists", existing.Name)
		}
	}

	tag := &entities.Tag{
		ID:    uuid.NewString(),
		Name:  name,
		Color: req.Color,
	}
	if tag.Color == "" {
		tag.Color = defaultTagColor
	}
	s.store.UpsertTag(tag)
	s.logger.Info("Tag created", "tag_id", tag.ID, "name", tag.Name)
	return tag, nil
}

// UpdateTag patches tag fields.
func (s *TagService) UpdateTag(id string, req ports.UpdateTagRequest) (*entities.Tag, error) {
	var tag *entities.Tag
	for _, t := range s.store.Tags() {
		if t.ID == id {
			tag = t
			break
		}
	}
	if tag == nil {
		return nil, entities.ErrTagNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("tag name is required")
		}
		for _, other := range s.store.Tags() {
			if other.ID != id && strings.EqualFold(other.Name, name) {
				return nil, fmt.Errorf("tag %q already exists", other.Name)
			}
		}
		tag.Name = name
	}
	if req.Color != nil {
		tag.Color = *req.Color
	}
	s.store.UpsertTag(tag)
	return tag, nil
}

// DeleteTag removes a tag and clears every reference to it. Tasks and
// habits that carried the tag survive untagged.
func (s *TagService) DeleteTag(id string) error {
	if !s.store.RemoveTag(id) {
		return entities.ErrTagNotFound
	}
	s.logger.Info("Tag deleted", "tag_id", id)
	return nil
}
