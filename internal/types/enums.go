package types

// User roles. A role is fixed at registration; there is no role-change
// operation anywhere in the API.
const (
	RoleSenior = "senior"
	RoleFamily = "family"
)

// Dose status values
const (
	DoseScheduled = "scheduled"
	DoseTaken     = "taken"
	DoseMissed    = "missed"
)

// Schedule kinds
const (
	ScheduleDaily    = "daily"
	ScheduleWeekly   = "weekly"
	ScheduleInterval = "interval"
)

// Valid values for validation
var ValidRoles = []string{RoleSenior, RoleFamily}

var ValidDoseStatuses = []string{DoseScheduled, DoseTaken, DoseMissed}

var ValidScheduleKinds = []string{ScheduleDaily, ScheduleWeekly, ScheduleInterval}

// Helper functions for validation
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

func IsValidDoseStatus(status string) bool {
	for _, s := range ValidDoseStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsValidScheduleKind(kind string) bool {
	for _, k := range ValidScheduleKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// CounterpartRole returns the role a link counterpart must have.
func CounterpartRole(role string) string {
	if role == RoleSenior {
		return RoleFamily
	}
	return RoleSenior
}
