package app

import (
	"github.com/gorilla/mux"

	"github.com/heyho99/task-management-app/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Planner (stateless plan calculations)
	r.HandleFunc("/api/planner/initial-values", deps.PlannerHandler.InitialValues).Methods("POST")
	r.HandleFunc("/api/planner/contributions/redistribute", deps.PlannerHandler.RedistributeContributions).Methods("POST")
	r.HandleFunc("/api/planner/contributions/edit", deps.PlannerHandler.EditContribution).Methods("POST")
	r.HandleFunc("/api/planner/validate", deps.PlannerHandler.Validate).Methods("POST")

	// Tasks
	r.HandleFunc("/api/task", deps.TaskHandler.ListTasks).Methods("GET")
	r.HandleFunc("/api/task", deps.TaskHandler.CreateTask).Methods("POST")
	r.HandleFunc("/api/task/{taskId}", deps.TaskHandler.GetTask).Methods("GET")
	r.HandleFunc("/api/task/{taskId}", deps.TaskHandler.UpdateTask).Methods("PUT")
	r.HandleFunc("/api/task/{taskId}", deps.TaskHandler.DeleteTask).Methods("DELETE")

	// Work records
	r.HandleFunc("/api/worklog", deps.WorklogHandler.RecordWork).Methods("POST")
	r.HandleFunc("/api/worklog", deps.WorklogHandler.GetRecords).Methods("GET")
	r.HandleFunc("/api/worklog/{recordId}", deps.WorklogHandler.UpdateRecord).Methods("PUT")
	r.HandleFunc("/api/worklog/{recordId}", deps.WorklogHandler.DeleteRecord).Methods("DELETE")

	// Reports
	r.HandleFunc("/api/report/task/{taskId}", deps.ReportHandler.GetTaskReport).Methods("GET")

	// User management
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")
	r.HandleFunc("/api/user", deps.UserHandler.CreateUser).Methods("POST")
	r.HandleFunc("/api/user/name-availability", deps.UserHandler.IsUsernameAvailable).Methods("GET").Queries("username", "{username}")
	r.HandleFunc("/api/user", deps.UserHandler.GetAvailableUsers).Methods("GET")
}
