package service

import (
	"log/slog"
	"time"

	"github.com/noteduco342/groupmeet-backend/internal/apperr"
	"github.com/noteduco342/groupmeet-backend/internal/config"
	"github.com/noteduco342/groupmeet-backend/internal/models"
	"github.com/noteduco342/groupmeet-backend/internal/repository"
)

// FeedService serves the cross-group views: the home feed, the calendar
// and event attendance.
type FeedService struct {
	postRepo       repository.PostRepositoryInterface
	attendanceRepo repository.AttendanceRepositoryInterface
	memberships    *MembershipService
	calendar       config.CalendarConfig
	log            *slog.Logger
	now            func() time.Time
}

func NewFeedService(
	postRepo repository.PostRepositoryInterface,
	attendanceRepo repository.AttendanceRepositoryInterface,
	memberships *MembershipService,
	calendar config.CalendarConfig,
	log *slog.Logger,
) *FeedService {
	if calendar.Location == nil {
		calendar.Location = time.UTC
	}
	if calendar.Mode == "" {
		calendar.Mode = config.CalendarModeGroups
	}
	return &FeedService{
		postRepo:       postRepo,
		attendanceRepo: attendanceRepo,
		memberships:    memberships,
		calendar:       calendar,
		log:            log,
		now:            time.Now,
	}
}

func toPostResponses(posts []models.Post) []models.PostResponse {
	out := make([]models.PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, posts[i].ToResponse())
	}
	return out
}

// HomeFeed lists posts from every group the user belongs to, newest first.
func (s *FeedService) HomeFeed(userID uint) ([]models.PostResponse, error) {
	posts, err := s.postRepo.Feed(userID)
	if err != nil {
		return nil, apperr.Internal("db_failed", err)
	}
	return toPostResponses(posts), nil
}

// MyCalendar lists dated events ordered by event time.
func (s *FeedService) MyCalendar(userID uint) ([]models.PostResponse, error) {
	filter := repository.CalendarFilter{
		RSVPOnly: s.calendar.Mode == config.CalendarModeRSVP,
	}
	if s.calendar.UpcomingOnly {
		from := startOfDay(s.now(), s.calendar.Location)
		filter.From = &from
	}
	posts, err := s.postRepo.Calendar(userID, filter)
	if err != nil {
		return nil, apperr.Internal("db_failed", err)
	}
	return toPostResponses(posts), nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// loadEvent finds an event post and checks that it lives in groupID.
func (s *FeedService) loadEvent(groupID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		return nil, lookupErr(err, ErrPostNotFound)
	}
	if post.GroupID != groupID {
		return nil, ErrPostNotFound
	}
	if !post.IsEvent {
		return nil, apperr.NotFound("not_an_event", "This post is not an event")
	}
	return post, nil
}

// RSVP marks the user as attending. Repeating it is a no-op.
func (s *FeedService) RSVP(userID, groupID, postID uint) (int64, error) {
	post, err := s.loadEvent(groupID, postID)
	if err != nil {
		return 0, err
	}
	member, err := s.memberships.IsMemberStrict(userID, post.GroupID)
	if err != nil {
		return 0, err
	}
	if !member {
		return 0, ErrNotMember
	}
	if err := s.attendanceRepo.Add(postID, userID); err != nil {
		return 0, apperr.Internal("db_failed", err)
	}
	s.log.Info("rsvp added", "post_id", postID, "user_id", userID)
	return s.count(postID)
}

// CancelRSVP removes the user's attendance. Cancelling twice is not an error.
func (s *FeedService) CancelRSVP(userID, groupID, postID uint) (int64, error) {
	if _, err := s.loadEvent(groupID, postID); err != nil {
		return 0, err
	}
	if err := s.attendanceRepo.Remove(postID, userID); err != nil {
		return 0, apperr.Internal("db_failed", err)
	}
	s.log.Info("rsvp cancelled", "post_id", postID, "user_id", userID)
	return s.count(postID)
}

// AttendeeList names attendees by username only; other members' contact
// details stay private.
type AttendeeList struct {
	EventTitle string   `json:"event_title"`
	Attendees  []string `json:"attendees"`
	Count      int      `json:"count"`
}

func (s *FeedService) Attendees(userID, groupID, postID uint) (*AttendeeList, error) {
	member, err := s.memberships.IsMember(userID, groupID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotMember
	}
	post, err := s.loadEvent(groupID, postID)
	if err != nil {
		return nil, err
	}
	users, err := s.attendanceRepo.ListAttendees(postID)
	if err != nil {
		return nil, apperr.Internal("db_failed", err)
	}
	list := &AttendeeList{EventTitle: post.Title, Attendees: make([]string, 0, len(users))}
	for i := range users {
		list.Attendees = append(list.Attendees, users[i].Username)
	}
	list.Count = len(list.Attendees)
	return list, nil
}

func (s *FeedService) count(postID uint) (int64, error) {
	n, err := s.attendanceRepo.Count(postID)
	if err != nil {
		return 0, apperr.Internal("db_failed", err)
	}
	return n, nil
}
