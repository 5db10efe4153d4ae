package domain

// Event lifecycle statuses.
const (
	EventStatusPlanning  = "planning"
	EventStatusActive    = "active"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
)

// Kanban columns for tasks.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusDone       = "done"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var (
	EventStatuses     = []string{EventStatusPlanning, EventStatusActive, EventStatusCompleted, EventStatusCancelled}
	TaskStatuses      = []string{TaskStatusTodo, TaskStatusInProgress, TaskStatusDone}
	TaskPriorities    = []string{PriorityLow, PriorityMedium, PriorityHigh}
	NotificationTypes = []string{NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError}
)

// Statuses groups the selectable values the client renders in its forms.
type Statuses struct {
	EventStatuses     []string `json:"event_statuses"`
	TaskStatuses      []string `json:"task_statuses"`
	TaskPriorities    []string `json:"task_priorities"`
	NotificationTypes []string `json:"notification_types"`
}

// AllStatuses returns every selectable status list.
func AllStatuses() Statuses {
	return Statuses{
		EventStatuses:     EventStatuses,
		TaskStatuses:      TaskStatuses,
		TaskPriorities:    TaskPriorities,
		NotificationTypes: NotificationTypes,
	}
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
