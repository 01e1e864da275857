package models

const (
	StatusPendingConfirmation = "pending_confirmation"
	StatusConfirmed           = "confirmed"
	StatusInProgress          = "in_progress"
	StatusReadyForCollection  = "ready_for_collection"
	StatusCompleted           = "completed"
	StatusCancelled           = "cancelled"
)

const (
	// DateKeyLayout ключ дня в расписании
	DateKeyLayout = "2006-01-02"

	// DefaultAdminSimulationTTL время жизни dev-флага администратора в секундах
	DefaultAdminSimulationTTL = 24 * 60 * 60

	// DefaultSchedulePollInterval интервал обновления экранов планирования в секундах
	DefaultSchedulePollInterval = 30

	// DefaultBookingsPerHour лимит создания заявок одним пользователем
	DefaultBookingsPerHour = 20

	// DefaultTokenTTL время жизни dev JWT в секундах
	DefaultTokenTTL = 12 * 60 * 60
)
