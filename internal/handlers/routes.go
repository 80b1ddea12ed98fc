package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/noteduco342/groupmeet-backend/internal/middleware"
)

type Handlers struct {
	Auth       *AuthHandler
	User       *UserHandler
	Group      *GroupHandler
	Membership *MembershipHandler
	Post       *PostHandler
	Feed       *FeedHandler
	Media      *MediaHandler
	Health     *HealthHandler
}

// RouteMiddleware carries the per-route middleware. Nil limiters are skipped.
type RouteMiddleware struct {
	AuthRequired  fiber.Handler
	AuthLimiter   fiber.Handler
	UploadLimiter fiber.Handler
}

func with(mw fiber.Handler, h fiber.Handler) []fiber.Handler {
	if mw == nil {
		return []fiber.Handler{h}
	}
	return []fiber.Handler{mw, h}
}

// RegisterRoutes mounts the API on api, normally app.Group("/api").
// Literal segments under /groups/:group_id are registered before the
// :post_id catch-alls so they win.
func RegisterRoutes(api fiber.Router, h Handlers, mw RouteMiddleware) {
	// Public routes
	api.Get("/login", with(mw.AuthLimiter, h.Auth.Login)...)
	api.Post("/register", with(mw.AuthLimiter, h.Auth.Register)...)
	api.Get("/database_health", h.Health.DatabaseHealth)

	// Protected routes
	p := api.Group("/", mw.AuthRequired)
	p.Get("/logout", h.Auth.Logout)
	p.Put("/change_password", h.Auth.ChangePassword)
	p.Get("/profile", h.User.GetCurrentUser)
	p.Put("/edit_profile", h.User.UpdateProfile)
	p.Delete("/delete_account", h.User.DeleteAccount)
	p.Delete("/admin/users/:user_id", middleware.RequireAdmin(), h.User.AdminDeleteUser)

	p.Get("/home", h.Feed.Home)
	p.Get("/my_calendar", h.Feed.MyCalendar)
	p.Get("/get_user_groups", h.Group.GetUserGroups)
	p.Get("/search_for_groups/group_name/:q", h.Group.SearchByName)
	p.Get("/search_for_groups/category/:q", h.Group.SearchByCategory)
	p.Get("/media/groups/*", h.Media.GetGroupIcon)

	p.Post("/create_group", h.Group.CreateGroup)
	p.Put("/:group_id/join", h.Membership.Join)

	g := p.Group("/groups/:group_id")
	g.Get("/", h.Group.GetGroup)
	g.Put("/settings/edit_group", h.Group.EditGroup)
	g.Delete("/settings/delete_group", h.Group.DeleteGroup)
	g.Put("/settings/icon", with(mw.UploadLimiter, h.Media.UploadGroupIcon)...)
	g.Get("/requests_to_join", h.Membership.ListJoinRequests)
	g.Put("/requests_to_join/:request_id/accepted", h.Membership.AcceptRequest)
	g.Put("/requests_to_join/:request_id/rejected", h.Membership.RejectRequest)
	g.Put("/leave", h.Membership.LeaveGroup)

	p.Post("/create_post", h.Post.CreatePost)
	g.Get("/:post_id", h.Post.GetPost)
	g.Put("/:post_id/edit_post", h.Post.EditPost)
	g.Delete("/:post_id/delete_post", h.Post.DeletePost)
	g.Post("/:post_id/add_comment", h.Post.AddComment)
	g.Put("/:post_id/rsvp", h.Feed.RSVP)
	g.Delete("/:post_id/rsvp", h.Feed.CancelRSVP)
	g.Get("/:post_id/attendees", h.Feed.Attendees)
	g.Put("/:post_id/:comment_id/edit", h.Post.EditComment)
	g.Delete("/:post_id/:comment_id/delete", h.Post.DeleteComment)
}
