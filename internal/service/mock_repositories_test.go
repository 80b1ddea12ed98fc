package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/noteduco342/groupmeet-backend/internal/models"
	"github.com/noteduco342/groupmeet-backend/internal/repository"
	"github.com/noteduco342/groupmeet-backend/internal/storage"
	"gorm.io/gorm"
)

// memStore is a shared in-memory database. Each mock repository is a view
// over it so cascades behave like the real schema.
type memStore struct {
	users    map[uint]*models.User
	groups   map[uint]*models.Group
	members  map[uint]map[uint]models.MemberRole
	requests map[uint]*models.JoinRequest
	posts    map[uint]*models.Post
	comments map[uint]*models.Comment
	attend   map[uint]map[uint]time.Time
	revoked  map[string]models.RevokedToken
	nextID   uint
	clock    time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[uint]*models.User),
		groups:   make(map[uint]*models.Group),
		members:  make(map[uint]map[uint]models.MemberRole),
		requests: make(map[uint]*models.JoinRequest),
		posts:    make(map[uint]*models.Post),
		comments: make(map[uint]*models.Comment),
		attend:   make(map[uint]map[uint]time.Time),
		revoked:  make(map[string]models.RevokedToken),
		clock:    time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) newID() uint {
	s.nextID++
	return s.nextID
}

// tick advances the fake clock so creation order is total.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) isMember(groupID, userID uint) bool {
	_, ok := s.members[groupID][userID]
	return ok
}

func (s *memStore) userCopy(id uint) models.User {
	if u, ok := s.users[id]; ok {
		return *u
	}
	return models.User{}
}

func (s *memStore) postCopy(p *models.Post) models.Post {
	out := *p
	out.Author = s.userCopy(p.AuthorID)
	if g, ok := s.groups[p.GroupID]; ok {
		out.Group = *g
	}
	return out
}

func (s *memStore) deletePost(postID uint) {
	for id, c := range s.comments {
		if c.PostID == postID {
			delete(s.comments, id)
		}
	}
	delete(s.attend, postID)
	delete(s.posts, postID)
}

func (s *memStore) deleteGroup(groupID uint) []uint {
	var former []uint
	for uid := range s.members[groupID] {
		former = append(former, uid)
	}
	sort.Slice(former, func(i, j int) bool { return former[i] < former[j] })

	for id, p := range s.posts {
		if p.GroupID == groupID {
			s.deletePost(id)
		}
	}
	for id, r := range s.requests {
		if r.GroupID == groupID {
			delete(s.requests, id)
		}
	}
	delete(s.members, groupID)
	delete(s.groups, groupID)
	return former
}

func (s *memStore) sortedPosts(keep func(*models.Post) bool, less func(a, b *models.Post) bool) []models.Post {
	var matched []*models.Post
	for _, p := range s.posts {
		if keep(p) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return less(matched[i], matched[j]) })
	out := make([]models.Post, 0, len(matched))
	for _, p := range matched {
		out = append(out, s.postCopy(p))
	}
	return out
}

func newestFirst(a, b *models.Post) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// MockUserRepository implements repository.UserRepositoryInterface.
type MockUserRepository struct{ *memStore }

func (m MockUserRepository) Create(user *models.User) error {
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = m.newID()
	user.CreatedAt = m.tick()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m MockUserRepository) find(match func(*models.User) bool) (*models.User, error) {
	for _, u := range m.users {
		if match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m MockUserRepository) FindByEmail(email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m MockUserRepository) FindByUsername(username string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Username == username })
}

func (m MockUserRepository) FindByID(id uint) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m MockUserRepository) Update(user *models.User) error {
	for _, u := range m.users {
		if u.ID != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m MockUserRepository) DeleteCascade(userID uint) ([]uint, error) {
	if _, ok := m.users[userID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	affected := []uint{userID}
	for id, g := range m.groups {
		if g.OwnerID == userID {
			affected = append(affected, m.deleteGroup(id)...)
		}
	}
	for id, p := range m.posts {
		if p.AuthorID == userID {
			m.deletePost(id)
		}
	}
	for id, c := range m.comments {
		if c.AuthorID == userID {
			delete(m.comments, id)
		}
	}
	for _, att := range m.attend {
		delete(att, userID)
	}
	for _, gm := range m.members {
		delete(gm, userID)
	}
	for id, r := range m.requests {
		if r.UserID == userID {
			delete(m.requests, id)
		}
	}
	delete(m.users, userID)
	return affected, nil
}

// MockRevokedTokenRepository implements repository.RevokedTokenRepositoryInterface.
type MockRevokedTokenRepository struct{ *memStore }

func (m MockRevokedTokenRepository) Create(token *models.RevokedToken) error {
	if _, ok := m.revoked[token.JTI]; ok {
		return nil
	}
	m.revoked[token.JTI] = *token
	return nil
}

func (m MockRevokedTokenRepository) IsRevoked(jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}

func (m MockRevokedTokenRepository) DeleteExpired(before time.Time) (int64, error) {
	var n int64
	for jti, t := range m.revoked {
		if t.Expired(before) {
			delete(m.revoked, jti)
			n++
		}
	}
	return n, nil
}

// MockGroupRepository implements repository.GroupRepositoryInterface.
type MockGroupRepository struct{ *memStore }

func (m MockGroupRepository) Create(group *models.Group) error {
	group.ID = m.newID()
	group.CreatedAt = m.tick()
	group.UpdatedAt = group.CreatedAt
	stored := *group
	m.groups[group.ID] = &stored
	m.members[group.ID] = map[uint]models.MemberRole{group.OwnerID: models.RoleOwner}
	return nil
}

func (m MockGroupRepository) FindByID(id uint) (*models.Group, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *g
	out.Owner = m.userCopy(g.OwnerID)
	return &out, nil
}

func (m MockGroupRepository) Update(group *models.Group) error {
	if _, ok := m.groups[group.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *group
	stored.Owner = models.User{}
	m.groups[group.ID] = &stored
	return nil
}

func (m MockGroupRepository) DeleteCascade(groupID uint) ([]uint, error) {
	if _, ok := m.groups[groupID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.deleteGroup(groupID), nil
}

func (m MockGroupRepository) search(match func(*models.Group) bool, offset, limit int) []models.Group {
	var out []models.Group
	for _, g := range m.groups {
		if match(g) {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if offset >= len(out) {
		return nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m MockGroupRepository) SearchByName(query string, offset, limit int) ([]models.Group, error) {
	q := strings.ToLower(query)
	return m.search(func(g *models.Group) bool { return strings.Contains(strings.ToLower(g.Name), q) }, offset, limit), nil
}

func (m MockGroupRepository) SearchByCategory(query string, offset, limit int) ([]models.Group, error) {
	q := strings.ToLower(query)
	return m.search(func(g *models.Group) bool { return strings.Contains(strings.ToLower(g.Category), q) }, offset, limit), nil
}

func (m MockGroupRepository) ListOwnedBy(userID uint) ([]models.Group, error) {
	return m.search(func(g *models.Group) bool { return g.OwnerID == userID }, 0, 0), nil
}

func (m MockGroupRepository) ListJoinedBy(userID uint) ([]models.Group, error) {
	return m.search(func(g *models.Group) bool {
		return g.OwnerID != userID && m.isMember(g.ID, userID)
	}, 0, 0), nil
}

// MockMembershipRepository implements repository.MembershipRepositoryInterface.
type MockMembershipRepository struct{ *memStore }

func (m MockMembershipRepository) AddMember(groupID, userID uint, role models.MemberRole) error {
	if m.isMember(groupID, userID) {
		return gorm.ErrDuplicatedKey
	}
	if m.members[groupID] == nil {
		m.members[groupID] = make(map[uint]models.MemberRole)
	}
	m.members[groupID][userID] = role
	return nil
}

func (m MockMembershipRepository) RemoveMember(groupID, userID uint) (bool, error) {
	if !m.isMember(groupID, userID) {
		return false, nil
	}
	delete(m.members[groupID], userID)
	return true, nil
}

func (m MockMembershipRepository) IsMember(groupID, userID uint) (bool, error) {
	return m.isMember(groupID, userID), nil
}

func (m MockMembershipRepository) GroupIDsForUser(userID uint) ([]uint, error) {
	var ids []uint
	for gid, gm := range m.members {
		if _, ok := gm[userID]; ok {
			ids = append(ids, gid)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m MockMembershipRepository) GetMembers(groupID uint) ([]models.User, error) {
	var out []models.User
	for uid := range m.members[groupID] {
		out = append(out, m.userCopy(uid))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m MockMembershipRepository) CreateJoinRequest(req *models.JoinRequest) error {
	for _, r := range m.requests {
		if r.GroupID == req.GroupID && r.UserID == req.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	req.ID = m.newID()
	req.CreatedAt = m.tick()
	stored := *req
	m.requests[req.ID] = &stored
	return nil
}

func (m MockMembershipRepository) FindPendingRequest(groupID, userID uint) (*models.JoinRequest, error) {
	for _, r := range m.requests {
		if r.GroupID == groupID && r.UserID == userID && r.Status == models.JoinPending {
			out := *r
			out.User = m.userCopy(r.UserID)
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m MockMembershipRepository) ListPendingRequests(groupID uint) ([]models.JoinRequest, error) {
	var out []models.JoinRequest
	for _, r := range m.requests {
		if r.GroupID == groupID && r.Status == models.JoinPending {
			req := *r
			req.User = m.userCopy(r.UserID)
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m MockMembershipRepository) deletePending(groupID, userID uint) error {
	req, err := m.FindPendingRequest(groupID, userID)
	if err != nil {
		return err
	}
	delete(m.requests, req.ID)
	return nil
}

func (m MockMembershipRepository) AcceptRequest(groupID, userID uint) error {
	if err := m.deletePending(groupID, userID); err != nil {
		return err
	}
	if err := m.AddMember(groupID, userID, models.RoleMember); err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	return nil
}

func (m MockMembershipRepository) RejectRequest(groupID, userID uint) error {
	return m.deletePending(groupID, userID)
}

// MockPostRepository implements repository.PostRepositoryInterface.
type MockPostRepository struct{ *memStore }

func (m MockPostRepository) Create(post *models.Post) error {
	post.ID = m.newID()
	post.CreatedAt = m.tick()
	post.UpdatedAt = post.CreatedAt
	stored := *post
	stored.Author, stored.Group = models.User{}, models.Group{}
	m.posts[post.ID] = &stored
	return nil
}

func (m MockPostRepository) FindByID(id uint) (*models.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := m.postCopy(p)
	return &out, nil
}

func (m MockPostRepository) Update(post *models.Post) error {
	if _, ok := m.posts[post.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	post.UpdatedAt = m.tick()
	stored := *post
	stored.Author, stored.Group = models.User{}, models.Group{}
	m.posts[post.ID] = &stored
	return nil
}

func (m MockPostRepository) DeleteCascade(postID uint) error {
	if _, ok := m.posts[postID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.deletePost(postID)
	return nil
}

func (m MockPostRepository) ListByGroup(groupID uint) ([]models.Post, error) {
	return m.sortedPosts(func(p *models.Post) bool { return p.GroupID == groupID }, newestFirst), nil
}

func (m MockPostRepository) Feed(userID uint) ([]models.Post, error) {
	return m.sortedPosts(func(p *models.Post) bool { return m.isMember(p.GroupID, userID) }, newestFirst), nil
}

func (m MockPostRepository) Calendar(userID uint, filter repository.CalendarFilter) ([]models.Post, error) {
	keep := func(p *models.Post) bool {
		if !p.IsCalendarEvent() || !m.isMember(p.GroupID, userID) {
			return false
		}
		if filter.RSVPOnly {
			if _, ok := m.attend[p.ID][userID]; !ok {
				return false
			}
		}
		if filter.From != nil && p.EventAt.Before(*filter.From) {
			return false
		}
		return true
	}
	return m.sortedPosts(keep, func(a, b *models.Post) bool {
		if !a.EventAt.Equal(*b.EventAt) {
			return a.EventAt.Before(*b.EventAt)
		}
		return a.ID < b.ID
	}), nil
}

// MockCommentRepository implements repository.CommentRepositoryInterface.
type MockCommentRepository struct{ *memStore }

func (m MockCommentRepository) Create(comment *models.Comment) error {
	comment.ID = m.newID()
	comment.CreatedAt = m.tick()
	stored := *comment
	m.comments[comment.ID] = &stored
	return nil
}

func (m MockCommentRepository) FindByID(id uint) (*models.Comment, error) {
	c, ok := m.comments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *c
	out.Author = m.userCopy(c.AuthorID)
	return &out, nil
}

func (m MockCommentRepository) Update(comment *models.Comment) error {
	if _, ok := m.comments[comment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *comment
	m.comments[comment.ID] = &stored
	return nil
}

func (m MockCommentRepository) Delete(id uint) error {
	if _, ok := m.comments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.comments, id)
	return nil
}

func (m MockCommentRepository) ListByPost(postID uint) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range m.comments {
		if c.PostID == postID {
			cc := *c
			cc.Author = m.userCopy(c.AuthorID)
			out = append(out, cc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MockAttendanceRepository implements repository.AttendanceRepositoryInterface.
type MockAttendanceRepository struct{ *memStore }

func (m MockAttendanceRepository) Add(postID, userID uint) error {
	if m.attend[postID] == nil {
		m.attend[postID] = make(map[uint]time.Time)
	}
	if _, ok := m.attend[postID][userID]; !ok {
		m.attend[postID][userID] = m.tick()
	}
	return nil
}

func (m MockAttendanceRepository) Remove(postID, userID uint) error {
	delete(m.attend[postID], userID)
	return nil
}

func (m MockAttendanceRepository) ListAttendees(postID uint) ([]models.User, error) {
	type row struct {
		at   time.Time
		user models.User
	}
	var rows []row
	for uid, at := range m.attend[postID] {
		rows = append(rows, row{at: at, user: m.userCopy(uid)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].at.Before(rows[j].at) })
	out := make([]models.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.user)
	}
	return out, nil
}

func (m MockAttendanceRepository) Count(postID uint) (int64, error) {
	return int64(len(m.attend[postID])), nil
}

// memObjects is an in-memory ObjectStore.
type memObjects struct {
	objects map[string][]byte
	deleted []string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: make(map[string][]byte)}
}

func (o *memObjects) PutObject(_ context.Context, key string, body io.Reader, _ int64, contentType string) (storage.ObjectStat, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return storage.ObjectStat{}, err
	}
	o.objects[key] = data
	return storage.ObjectStat{Size: int64(len(data)), ContentType: contentType}, nil
}

func (o *memObjects) GetObject(_ context.Context, key string) (io.ReadCloser, storage.ObjectStat, error) {
	data, ok := o.objects[key]
	if !ok {
		return nil, storage.ObjectStat{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	}
	return io.NopCloser(bytes.NewReader(data)), storage.ObjectStat{Size: int64(len(data)), ContentType: "image/jpeg"}, nil
}

func (o *memObjects) DeleteObject(_ context.Context, key string) error {
	delete(o.objects, key)
	o.deleted = append(o.deleted, key)
	return nil
}
