package service

import (
	"context"
	"log/slog"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// GroupService manages groups and their membership.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a GroupService.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// Create creates a new group. The creator is always a member.
func (s *GroupService) Create(ctx context.Context, name string, members []string, createdBy string) (*models.Group, error) {
	hasCreator := false
	for _, m := range members {
		if m == createdBy {
			hasCreator = true
			break
		}
	}
	if !hasCreator {
		members = append([]string{createdBy}, members...)
	}

	group := &models.Group{Name: name, Members: members}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}

	slog.Info("group created", "group_id", group.ID, "name", group.Name, "members", len(group.Members))
	return group, nil
}

// Get retrieves a group by id.
func (s *GroupService) Get(ctx context.Context, groupID string) (*models.Group, error) {
	return s.store.GetGroup(ctx, groupID)
}

// List retrieves all groups.
func (s *GroupService) List(ctx context.Context) ([]*models.Group, error) {
	return s.store.ListGroups(ctx)
}

// Update replaces a group's name and membership. The caller must be a
// member.
func (s *GroupService) Update(ctx context.Context, group *models.Group, userID string) (*models.Group, error) {
	existing, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	if !existing.HasMember(userID) {
		return nil, models.ErrNotGroupMember
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		return nil, err
	}
	return s.store.GetGroup(ctx, group.ID)
}

// Delete removes a group. The caller must be a member.
func (s *GroupService) Delete(ctx context.Context, groupID, userID string) error {
	existing, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !existing.HasMember(userID) {
		return models.ErrNotGroupMember
	}

	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		return err
	}
	slog.Info("group deleted", "group_id", groupID)
	return nil
}

// AddMembers adds users to a group, ignoring existing members. The caller
// must be a member.
func (s *GroupService) AddMembers(ctx context.Context, groupID string, members []string, userID string) (*models.Group, error) {
	existing, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !existing.HasMember(userID) {
		return nil, models.ErrNotGroupMember
	}

	if err := s.store.AddGroupMembers(ctx, groupID, members); err != nil {
		return nil, err
	}
	return s.store.GetGroup(ctx, groupID)
}
