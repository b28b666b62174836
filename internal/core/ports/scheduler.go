package ports

import "time"

type SchedulerService interface {
	Start()
	Stop()
	// ScheduleReconciliation runs reportFn every interval until Stop.
	ScheduleReconciliation(interval time.Duration, reportFn func()) error
}
