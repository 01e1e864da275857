package models

// StatusPresentation is the label and CSS colour class shown for a status badge.
type StatusPresentation struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

const neutralStatusColor = "bg-gray-100 text-gray-800"

var orderedStatuses = []string{
	StatusPendingConfirmation,
	StatusConfirmed,
	StatusInProgress,
	StatusReadyForCollection,
	StatusCompleted,
	StatusCancelled,
}

var statusPresentations = map[string]StatusPresentation{
	StatusPendingConfirmation: {Label: "Pending Confirmation", Color: "bg-yellow-100 text-yellow-800"},
	StatusConfirmed:           {Label: "Confirmed", Color: "bg-blue-100 text-blue-800"},
	StatusInProgress:          {Label: "In Progress", Color: "bg-purple-100 text-purple-800"},
	StatusReadyForCollection:  {Label: "Ready for Collection", Color: "bg-green-100 text-green-800"},
	StatusCompleted:           {Label: "Completed", Color: "bg-emerald-100 text-emerald-800"},
	StatusCancelled:           {Label: "Cancelled", Color: "bg-red-100 text-red-800"},
}

// StatusInfo returns the presentation for status. Unknown values are shown as-is
// with the neutral colour.
func StatusInfo(status string) StatusPresentation {
	if p, ok := statusPresentations[status]; ok {
		return p
	}
	return StatusPresentation{Label: status, Color: neutralStatusColor}
}

// Statuses lists the lifecycle statuses in their usual progression order.
func Statuses() []string {
	return append([]string(nil), orderedStatuses...)
}

func IsKnownStatus(status string) bool {
	_, ok := statusPresentations[status]
	return ok
}

// IsTerminalStatus reports whether the booking no longer needs collection planning.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}
