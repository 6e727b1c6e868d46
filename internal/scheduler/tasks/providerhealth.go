package tasks

import (
	"github.com/screenlens/screenlens/internal/health"
	"github.com/screenlens/screenlens/internal/scheduler"
)

// RegisterProviderHealthTask registers the periodic upstream provider
// connectivity check.
func RegisterProviderHealthTask(sched *scheduler.Scheduler, svc *health.Service) error {
	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "provider-health",
		Name:        "Provider Health Check",
		Description: "Tests connectivity to the catalog, availability, video, and AI providers",
		Cron:        "*/15 * * * *",
		RunOnStart:  true,
		Func:        svc.CheckAll,
	})
}
