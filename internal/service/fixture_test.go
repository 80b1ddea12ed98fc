package service

import (
	"testing"
	"time"

	"github.com/noteduco342/groupmeet-backend/internal/apperr"
	"github.com/noteduco342/groupmeet-backend/internal/cache"
	"github.com/noteduco342/groupmeet-backend/internal/config"
	"github.com/noteduco342/groupmeet-backend/internal/logger"
	"github.com/noteduco342/groupmeet-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "password123"

// fixture wires every service over one in-memory store with no Redis.
type fixture struct {
	store   *memStore
	objects *memObjects

	auth    *AuthService
	users   *UserService
	members *MembershipService
	groups  *GroupService
	icons   *IconService
	posts   *PostService
	feed    *FeedService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithCalendar(t, config.CalendarConfig{Mode: config.CalendarModeGroups, Location: time.UTC})
}

func newFixtureWithCalendar(t *testing.T, cal config.CalendarConfig) *fixture {
	return newFixtureWith(t, cal, nil)
}

func newFixtureWith(t *testing.T, cal config.CalendarConfig, memberCache *cache.MembershipCache) *fixture {
	t.Helper()
	store := newMemStore()
	objects := newMemObjects()
	log := logger.Discard()

	userRepo := MockUserRepository{store}
	groupRepo := MockGroupRepository{store}
	memberRepo := MockMembershipRepository{store}
	postRepo := MockPostRepository{store}
	commentRepo := MockCommentRepository{store}
	attendanceRepo := MockAttendanceRepository{store}

	members := NewMembershipService(groupRepo, memberRepo, memberCache, log)
	return &fixture{
		store:   store,
		objects: objects,
		auth: NewAuthService(userRepo, MockRevokedTokenRepository{store}, nil, config.AuthConfig{
			JWTSecret:         "test-secret-key-12345",
			TokenTTL:          time.Hour,
			PasswordMinLength: 8,
		}, log),
		users:   NewUserService(userRepo, groupRepo, members, objects, log),
		members: members,
		groups:  NewGroupService(groupRepo, postRepo, members, objects, log),
		icons:   NewIconService(groupRepo, objects, "http://api.test", log),
		posts:   NewPostService(postRepo, commentRepo, attendanceRepo, members, cal.Location, log),
		feed:    NewFeedService(postRepo, attendanceRepo, members, cal, log),
	}
}

func (f *fixture) addUser(t *testing.T, username string) uint {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		FirstName:    "Test",
		LastName:     "User",
	}
	require.NoError(t, MockUserRepository{f.store}.Create(u))
	return u.ID
}

func (f *fixture) addGroup(t *testing.T, ownerID uint, name, access string) uint {
	t.Helper()
	g, err := f.groups.CreateGroup(ownerID, GroupInput{
		Name:        name,
		Location:    "Leeds",
		Category:    "Hiking",
		Description: "Weekend walks",
		Access:      access,
	})
	require.NoError(t, err)
	return g.ID
}

func (f *fixture) addPost(t *testing.T, authorID, groupID uint, title string) uint {
	t.Helper()
	p, err := f.posts.CreatePost(authorID, CreatePostInput{
		GroupID:   groupID,
		PostInput: PostInput{Title: title, Message: "body", EventButton: models.EventFlagNo},
	})
	require.NoError(t, err)
	return p.ID
}

func (f *fixture) addEvent(t *testing.T, authorID, groupID uint, title, date string) uint {
	t.Helper()
	p, err := f.posts.CreatePost(authorID, CreatePostInput{
		GroupID:   groupID,
		PostInput: PostInput{Title: title, Message: "come along", EventButton: models.EventFlagYes, EventDate: date},
	})
	require.NoError(t, err)
	return p.ID
}

func assertKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), "unexpected error: %v", err)
}
