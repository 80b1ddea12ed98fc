package service

import (
	"log/slog"
	"strings"
	"time"

	"github.com/noteduco342/groupmeet-backend/internal/apperr"
	"github.com/noteduco342/groupmeet-backend/internal/models"
	"github.com/noteduco342/groupmeet-backend/internal/repository"
	"github.com/noteduco342/groupmeet-backend/internal/validation"
)

type PostService struct {
	postRepo       repository.PostRepositoryInterface
	commentRepo    repository.CommentRepositoryInterface
	attendanceRepo repository.AttendanceRepositoryInterface
	memberships    *MembershipService
	location       *time.Location
	log            *slog.Logger
	now            func() time.Time
}

func NewPostService(
	postRepo repository.PostRepositoryInterface,
	commentRepo repository.CommentRepositoryInterface,
	attendanceRepo repository.AttendanceRepositoryInterface,
	memberships *MembershipService,
	location *time.Location,
	log *slog.Logger,
) *PostService {
	if location == nil {
		location = time.UTC
	}
	return &PostService{
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		attendanceRepo: attendanceRepo,
		memberships:    memberships,
		location:       location,
		log:            log,
		now:            time.Now,
	}
}

type PostInput struct {
	Title       string `json:"post_title" form:"post_title" validate:"notblank,max=200"`
	Message     string `json:"post_message" form:"post_message" validate:"notblank,max=5000"`
	EventButton string `json:"event_button" form:"event_button"`
	EventDate   string `json:"event_date" form:"event_date"`
}

type CreatePostInput struct {
	GroupID uint
	PostInput
}

// eventFields validates the event flag and date together.
func (s *PostService) eventFields(in PostInput) (bool, *time.Time, error) {
	isEvent := strings.EqualFold(strings.TrimSpace(in.EventButton), models.EventFlagYes)
	if !isEvent {
		return false, nil, nil
	}
	if strings.TrimSpace(in.EventDate) == "" {
		return false, nil, apperr.Validation("missing_event_date", "Event date must be provided")
	}
	at, err := validation.ParseEventDate(in.EventDate, s.location)
	if err != nil {
		return false, nil, err
	}
	return true, &at, nil
}

func normalizePost(in *PostInput) {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
}

func (s *PostService) CreatePost(userID uint, input CreatePostInput) (*models.Post, error) {
	if input.GroupID == 0 {
		return nil, apperr.Validation("missing_group", "A group must be selected")
	}
	normalizePost(&input.PostInput)
	if err := validation.Struct(input.PostInput); err != nil {
		return nil, err
	}
	isEvent, eventAt, err := s.eventFields(input.PostInput)
	if err != nil {
		return nil, err
	}

	if err := s.memberships.RequireMember(userID, input.GroupID); err != nil {
		return nil, err
	}

	post := &models.Post{
		GroupID:  input.GroupID,
		AuthorID: userID,
		Title:    input.Title,
		Message:  input.Message,
		IsEvent:  isEvent,
		EventAt:  eventAt,
	}
	if err := s.postRepo.Create(post); err != nil {
		return nil, apperr.Internal("db_failed", err)
	}
	s.log.Info("post created", "post_id", post.ID, "group_id", post.GroupID, "user_id", userID, "event", isEvent)
	return post, nil
}

// loadPost finds a post and checks that it lives in groupID.
func (s *PostService) loadPost(groupID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		return nil, lookupErr(err, ErrPostNotFound)
	}
	if post.GroupID != groupID {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// GetPost returns the post with its comments oldest first.
func (s *PostService) GetPost(userID, groupID, postID uint) (*models.PostResponse, error) {
	member, err := s.memberships.IsMember(userID, groupID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotMember
	}
	post, err := s.loadPost(groupID, postID)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPost(postID)
	if err != nil {
		return nil, apperr.Internal("db_failed", err)
	}
	resp := post.ToResponse()
	resp.Comments = make([]models.CommentResponse, 0, len(comments))
	for i := range comments {
		resp.Comments = append(resp.Comments, comments[i].ToResponse())
	}
	if post.IsEvent {
		count, err := s.attendanceRepo.Count(postID)
		if err != nil {
			return nil, apperr.Internal("db_failed", err)
		}
		resp.AttendeeCount = &count
	}
	return &resp, nil
}

// EditPost is author-only; group owners get no exemption.
func (s *PostService) EditPost(userID, groupID, postID uint, input PostInput) (*models.Post, error) {
	post, err := s.loadPost(groupID, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthor(userID) {
		return nil, apperr.Forbidden("not_author", "Only the author can edit this post")
	}

	normalizePost(&input)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	isEvent, eventAt, err := s.eventFields(input)
	if err != nil {
		return nil, err
	}

	post.Title = input.Title
	post.Message = input.Message
	post.IsEvent = isEvent
	post.EventAt = eventAt
	if err := s.postRepo.Update(post); err != nil {
		return nil, apperr.Internal("db_failed", err)
	}
	s.log.Info("post updated", "post_id", postID, "user_id", userID)
	return post, nil
}

func (s *PostService) DeletePost(userID, groupID, postID uint) error {
	post, err := s.loadPost(groupID, postID)
	if err != nil {
		return err
	}
	if !post.IsAuthor(userID) {
		return apperr.Forbidden("not_author", "Only the author can delete this post")
	}
	if err := s.postRepo.DeleteCascade(postID); err != nil {
		return lookupErr(err, ErrPostNotFound)
	}
	s.log.Info("post deleted", "post_id", postID, "group_id", groupID, "user_id", userID)
	return nil
}

type CommentInput struct {
	Text string `json:"comment_text" form:"comment_text" validate:"notblank,max=2000"`
}

func (s *PostService) AddComment(userID, groupID, postID uint, input CommentInput) (*models.Comment, error) {
	input.Text = strings.TrimSpace(input.Text)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	member, err := s.memberships.IsMemberStrict(userID, groupID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotMember
	}
	if _, err := s.loadPost(groupID, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, AuthorID: userID, Text: input.Text}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, apperr.Internal("db_failed", err)
	}
	s.log.Info("comment added", "comment_id", comment.ID, "post_id", postID, "user_id", userID)
	return comment, nil
}

// loadComment finds a comment and checks that it hangs off postID in groupID.
func (s *PostService) loadComment(groupID, postID, commentID uint) (*models.Comment, error) {
	if _, err := s.loadPost(groupID, postID); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		return nil, lookupErr(err, ErrCommentNotFound)
	}
	if comment.PostID != postID {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

func (s *PostService) EditComment(userID, groupID, postID, commentID uint, input CommentInput) (*models.Comment, error) {
	comment, err := s.loadComment(groupID, postID, commentID)
	if err != nil {
		return nil, err
	}
	if !comment.IsAuthor(userID) {
		return nil, apperr.Forbidden("not_author", "Only the author can edit this comment")
	}
	input.Text = strings.TrimSpace(input.Text)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	comment.Text = input.Text
	comment.EditedAt = &now
	if err := s.commentRepo.Update(comment); err != nil {
		return nil, apperr.Internal("db_failed", err)
	}
	return comment, nil
}

func (s *PostService) DeleteComment(userID, groupID, postID, commentID uint) error {
	comment, err := s.loadComment(groupID, postID, commentID)
	if err != nil {
		return err
	}
	if !comment.IsAuthor(userID) {
		return apperr.Forbidden("not_author", "Only the author can delete this comment")
	}
	if err := s.commentRepo.Delete(commentID); err != nil {
		return lookupErr(err, ErrCommentNotFound)
	}
	s.log.Info("comment deleted", "comment_id", commentID, "post_id", postID, "user_id", userID)
	return nil
}
