package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/openrangelabs/middleware/pkg/model"
)

// PortalUsers is an in-memory users.Repository.
type PortalUsers struct {
	mu     sync.RWMutex
	rows   []model.PortalUser
	nextID int64
}

func NewPortalUsers() *PortalUsers {
	return &PortalUsers{nextID: 1}
}

func (s *PortalUsers) Save(_ context.Context, rec model.PortalUser) (model.PortalUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.nextID
	s.nextID++
	s.rows = append(s.rows, rec)
	return rec, nil
}

func (s *PortalUsers) collect(keep func(model.PortalUser) bool) []model.PortalUser {
	s.mu.RLock()
	out := make([]model.PortalUser, 0)
	for _, r := range s.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()
	slices.SortStableFunc(out, func(a, b model.PortalUser) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out
}

func (s *PortalUsers) FindMostRecentByUserID(_ context.Context, userID int64) (*model.PortalUser, error) {
	list := s.collect(func(r model.PortalUser) bool { return r.UserID == userID })
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (s *PortalUsers) FindByUserID(_ context.Context, userID int64) ([]model.PortalUser, error) {
	return s.collect(func(r model.PortalUser) bool { return r.UserID == userID }), nil
}

func (s *PortalUsers) FindByOrganization(_ context.Context, orgID int64, page model.PageRequest) (model.Page[model.PortalUser], error) {
	return paginate(s.collect(func(r model.PortalUser) bool { return r.OrganizationID == orgID }), page), nil
}

func (s *PortalUsers) Search(_ context.Context, f model.PortalUserFilter, page model.PageRequest) (model.Page[model.PortalUser], error) {
	username, email := strings.ToLower(f.Username), strings.ToLower(f.Email)
	return paginate(s.collect(func(r model.PortalUser) bool {
		switch {
		case f.OrganizationID != nil && r.OrganizationID != *f.OrganizationID,
			f.Status != "" && r.Status != f.Status,
			f.OperationType != "" && r.OperationType != f.OperationType,
			username != "" && !strings.Contains(strings.ToLower(r.Username), username),
			email != "" && !strings.Contains(strings.ToLower(r.Email), email):
			return false
		}
		return within(r.CreatedAt, f.Start, f.End)
	}), page), nil
}

func (s *PortalUsers) countBy(orgID int64, field func(model.PortalUser) string) map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int64)
	for _, r := range s.rows {
		if r.OrganizationID == orgID {
			counts[field(r)]++
		}
	}
	return counts
}

func (s *PortalUsers) CountByStatus(_ context.Context, orgID int64) (map[string]int64, error) {
	return s.countBy(orgID, func(r model.PortalUser) string { return r.Status }), nil
}

func (s *PortalUsers) CountByOperationType(_ context.Context, orgID int64) (map[string]int64, error) {
	return s.countBy(orgID, func(r model.PortalUser) string { return r.OperationType }), nil
}

func (s *PortalUsers) exists(match func(model.PortalUser) bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.rows, match)
}

func (s *PortalUsers) ExistsByUsername(_ context.Context, username string, orgID int64) (bool, error) {
	return s.exists(func(r model.PortalUser) bool { return r.Username == username && r.OrganizationID == orgID }), nil
}

func (s *PortalUsers) ExistsByEmail(_ context.Context, email string, orgID int64) (bool, error) {
	return s.exists(func(r model.PortalUser) bool { return r.Email == email && r.OrganizationID == orgID }), nil
}

func (s *PortalUsers) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.rows)
	s.rows = slices.DeleteFunc(s.rows, func(r model.PortalUser) bool { return r.CreatedAt.Before(cutoff) })
	return int64(before - len(s.rows)), nil
}
