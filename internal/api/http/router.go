package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/teamboard/teamboard/internal/api/http/handlers"
	"github.com/teamboard/teamboard/internal/auth"
	"github.com/teamboard/teamboard/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Teams          *handlers.TeamsHandler
	Users          *handlers.UsersHandler
	Tasks          *handlers.TasksHandler
	Dashboard      *handlers.DashboardHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
	TeamLookup     auth.TeamLookup
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")
	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireUser())

	teams := protected.Group("/teams")
	member := auth.RequireTeamRole(cfg.TeamLookup)
	teams.Get("/", cfg.Teams.List)
	teams.Post("/", cfg.Teams.Create)
	teams.Get("/:id", cfg.Teams.Get)
	teams.Put("/:id", auth.RequireTeamRole(cfg.TeamLookup, domain.RoleAdmin, domain.RoleManager), cfg.Teams.Update)
	teams.Delete("/:id", auth.RequireTeamRole(cfg.TeamLookup, domain.RoleAdmin), cfg.Teams.Delete)
	teams.Post("/:id/close", cfg.Teams.Close)
	teams.Post("/:id/members", cfg.Teams.AddMember)
	teams.Delete("/:id/members/:userId", cfg.Teams.RemoveMember)
	teams.Put("/:id/members/:userId/role", cfg.Teams.UpdateMemberRole)
	teams.Get("/:id/stats", member, cfg.Teams.Stats)
	teams.Get("/:id/posts", member, cfg.Teams.ListPosts)
	teams.Post("/:id/posts", member, cfg.Teams.CreatePost)

	users := protected.Group("/users")
	users.Get("/", cfg.Users.List)
	users.Get("/calculateSkills", cfg.Users.CalculateSkills)
	users.Get("/:id", cfg.Users.Get)
	users.Put("/:id/skills", cfg.Users.UpdateSkills)
	users.Get("/:id/productivity", cfg.Dashboard.Productivity)
	users.Get("/:id/predictions", cfg.Dashboard.Predictions)
	users.Get("/:id/series", cfg.Dashboard.Series)

	tasks := protected.Group("/tasks")
	tasks.Get("/", cfg.Tasks.List)
	tasks.Post("/", cfg.Tasks.Create)
	tasks.Put("/:id/status", cfg.Tasks.UpdateStatus)

	protected.Get("/notifications", cfg.Notifications.List)
}
