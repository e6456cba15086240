package app

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heyho99/task-management-app/internal/config"
	"github.com/heyho99/task-management-app/internal/event_bus"
	"github.com/heyho99/task-management-app/internal/utils"
	"github.com/heyho99/task-management-app/pkg/planner"
	"github.com/heyho99/task-management-app/pkg/report"
	"github.com/heyho99/task-management-app/pkg/task"
	"github.com/heyho99/task-management-app/pkg/user"
	"github.com/heyho99/task-management-app/pkg/worklog"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus

	UserService user.Service
	UserHandler *user.Handler

	PlanGenerator  planner.Generator
	PlannerHandler *planner.Handler

	TaskRepo    task.Repository
	TaskService task.Service
	TaskHandler *task.Handler

	WorklogRepo    worklog.Repository
	WorklogService worklog.Service
	WorklogHandler *worklog.Handler

	ReportService report.Service
	ReportHandler *report.Handler

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	if cfg.Planner.Remote.Url != "" {
		deps.PlanGenerator = planner.NewRemoteGenerator(cfg.Planner.Remote.Url)
	} else {
		deps.PlanGenerator = planner.NewLocalGenerator()
	}
	deps.PlannerHandler = planner.NewHandler(deps.PlanGenerator)

	deps.TaskRepo = task.NewRepo(db)
	deps.WorklogRepo = worklog.NewRepo(db)
	deps.WorklogService = worklog.NewWorklogService(deps.WorklogRepo, deps.TaskRepo, deps.Clock, deps.EventBus)
	deps.TaskService = task.NewTaskService(deps.TaskRepo, deps.WorklogService, deps.EventBus)
	deps.TaskHandler = task.NewHandler(deps.TaskService)
	deps.WorklogHandler = worklog.NewHandler(deps.WorklogService)

	deps.ReportService = report.NewReportService(deps.TaskService, deps.WorklogService, deps.EventBus)
	deps.ReportHandler = report.NewHandler(deps.ReportService)

	return deps
}
