package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/noteduco342/groupmeet-backend/internal/apperr"
	"github.com/noteduco342/groupmeet-backend/internal/config"
	"github.com/noteduco342/groupmeet-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calendarConfig(loc *time.Location) config.CalendarConfig {
	return config.CalendarConfig{Mode: config.CalendarModeGroups, Location: loc}
}

func responseIDs(t *testing.T, posts []models.PostResponse, err error) []uint {
	t.Helper()
	require.NoError(t, err)
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func (f *fixture) feedIDs(t *testing.T, userID uint) []uint {
	t.Helper()
	posts, err := f.feed.HomeFeed(userID)
	return responseIDs(t, posts, err)
}

func (f *fixture) calendarIDs(t *testing.T, userID uint) []uint {
	t.Helper()
	posts, err := f.feed.MyCalendar(userID)
	return responseIDs(t, posts, err)
}

func TestHomeFeedFollowsMembership(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	hikers := f.addGroup(t, alice, "Hikers", "Public")
	chess := f.addGroup(t, alice, "Chess", "Public")

	p1 := f.addPost(t, alice, hikers, "walk")
	p2 := f.addPost(t, alice, chess, "openings")
	p3 := f.addPost(t, alice, hikers, "another walk")

	assert.Empty(t, f.feedIDs(t, bob))
	assert.Equal(t, []uint{p3, p2, p1}, f.feedIDs(t, alice))

	require.NoError(t, f.members.JoinPublicGroup(bob, hikers))
	assert.Equal(t, []uint{p3, p1}, f.feedIDs(t, bob))

	require.NoError(t, f.members.JoinPublicGroup(bob, chess))
	assert.Equal(t, []uint{p3, p2, p1}, f.feedIDs(t, bob))

	require.NoError(t, f.members.LeaveGroup(bob, hikers))
	assert.Equal(t, []uint{p2}, f.feedIDs(t, bob))

	feed, err := f.feed.HomeFeed(bob)
	require.NoError(t, err)
	assert.Equal(t, "Chess", feed[0].GroupName)
	assert.Equal(t, "alice", feed[0].CreatorUsername)
}

func TestMyCalendarGroupsMode(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	hikers := f.addGroup(t, alice, "Hikers", "Public")
	secret := f.addGroup(t, alice, "Secret", "Private")
	require.NoError(t, f.members.JoinPublicGroup(bob, hikers))

	late := f.addEvent(t, alice, hikers, "late", "2026-09-01 10:00")
	early := f.addEvent(t, alice, hikers, "early", "2025-01-01 08:00")
	f.addPost(t, alice, hikers, "not an event")
	hidden := f.addEvent(t, alice, secret, "hidden", "2026-02-01 10:00")

	assert.Equal(t, []uint{early, late}, f.calendarIDs(t, bob))
	assert.Equal(t, []uint{early, hidden, late}, f.calendarIDs(t, alice))
}

func TestMyCalendarRSVPMode(t *testing.T) {
	f := newFixtureWithCalendar(t, config.CalendarConfig{Mode: config.CalendarModeRSVP, Location: time.UTC})
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	gid := f.addGroup(t, alice, "Hikers", "Public")
	require.NoError(t, f.members.JoinPublicGroup(bob, gid))

	going := f.addEvent(t, alice, gid, "going", "2026-04-01 10:00")
	f.addEvent(t, alice, gid, "skipping", "2026-04-02 10:00")

	assert.Empty(t, f.calendarIDs(t, bob))

	_, err := f.feed.RSVP(bob, gid, going)
	require.NoError(t, err)
	assert.Equal(t, []uint{going}, f.calendarIDs(t, bob))

	// Leaving the group hides the event even though the RSVP row remains.
	require.NoError(t, f.members.LeaveGroup(bob, gid))
	assert.Empty(t, f.calendarIDs(t, bob))
}

func TestMyCalendarUpcomingOnly(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	f := newFixtureWithCalendar(t, config.CalendarConfig{
		Mode:         config.CalendarModeGroups,
		UpcomingOnly: true,
		Location:     loc,
	})
	// 02:00 UTC on the 10th is still the 9th in UTC-5.
	f.feed.now = func() time.Time { return time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC) }

	alice := f.addUser(t, "alice")
	gid := f.addGroup(t, alice, "Hikers", "Public")
	f.addEvent(t, alice, gid, "last week", "2026-03-02 09:00")
	earlierToday := f.addEvent(t, alice, gid, "this morning", "2026-03-09 08:00")
	tomorrow := f.addEvent(t, alice, gid, "tomorrow", "2026-03-10 19:00")

	assert.Equal(t, []uint{earlierToday, tomorrow}, f.calendarIDs(t, alice))
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	got := startOfDay(time.Date(2026, 3, 10, 20, 30, 0, 0, time.UTC), loc)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, loc), got)
}

func TestRSVP(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	stranger := f.addUser(t, "stranger")
	gid := f.addGroup(t, alice, "Hikers", "Public")
	require.NoError(t, f.members.JoinPublicGroup(bob, gid))
	event := f.addEvent(t, alice, gid, "Walk", "2026-05-01 10:00")
	plain := f.addPost(t, alice, gid, "Plain")

	n, err := f.feed.RSVP(bob, gid, event)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = f.feed.RSVP(bob, gid, event)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "second RSVP leaves one row")

	_, err = f.feed.RSVP(stranger, gid, event)
	assert.ErrorIs(t, err, ErrNotMember)

	_, err = f.feed.RSVP(bob, gid, plain)
	assertKind(t, err, apperr.KindNotFound)

	_, err = f.feed.RSVP(bob, gid, 999)
	assert.ErrorIs(t, err, ErrPostNotFound)

	n, err = f.feed.CancelRSVP(bob, gid, event)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.feed.CancelRSVP(bob, gid, event)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAttendees(t *testing.T) {
	f := newFixture(t)
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")
	stranger := f.addUser(t, "stranger")
	gid := f.addGroup(t, alice, "Hikers", "Public")
	require.NoError(t, f.members.JoinPublicGroup(bob, gid))
	event := f.addEvent(t, alice, gid, "Walk", "2026-05-01 10:00")

	list, err := f.feed.Attendees(bob, gid, event)
	require.NoError(t, err)
	assert.Equal(t, "Walk", list.EventTitle)
	assert.Empty(t, list.Attendees)
	assert.Zero(t, list.Count)

	_, err = f.feed.RSVP(alice, gid, event)
	require.NoError(t, err)
	_, err = f.feed.RSVP(bob, gid, event)
	require.NoError(t, err)

	list, err = f.feed.Attendees(bob, gid, event)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, []string{"alice", "bob"}, list.Attendees)

	raw, err := json.Marshal(list)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event_title":"Walk","attendees":["alice","bob"],"count":2}`, string(raw))
	assert.NotContains(t, string(raw), "@example.com")

	_, err = f.feed.Attendees(stranger, gid, event)
	assert.ErrorIs(t, err, ErrNotMember)
}
