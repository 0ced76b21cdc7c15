package enums

import "fmt"

// JobcardStatus tracks the lifecycle of a dilution jobcard. The status set is
// lowercase and closed; transitions are enforced by the jobcards service.
type JobcardStatus string

const (
	JobcardStatusRequested  JobcardStatus = "requested"
	JobcardStatusApproved   JobcardStatus = "approved"
	JobcardStatusRejected   JobcardStatus = "rejected"
	JobcardStatusProcessing JobcardStatus = "processing"
	JobcardStatusCompleted  JobcardStatus = "completed"
)

var validJobcardStatuses = []JobcardStatus{
	JobcardStatusRequested,
	JobcardStatusApproved,
	JobcardStatusRejected,
	JobcardStatusProcessing,
	JobcardStatusCompleted,
}

// String implements fmt.Stringer.
func (j JobcardStatus) String() string {
	return string(j)
}

// IsValid reports whether the value is a known JobcardStatus.
func (j JobcardStatus) IsValid() bool {
	for _, candidate := range validJobcardStatuses {
		if candidate == j {
			return true
		}
	}
	return false
}

// CanApprove reports whether a jobcard in this status may move to approved.
// Rejected jobcards may be re-approved; rejection is not terminal.
func (j JobcardStatus) CanApprove() bool {
	return j == JobcardStatusRequested || j == JobcardStatusRejected
}

// CanReject reports whether a jobcard in this status may move to rejected.
func (j JobcardStatus) CanReject() bool {
	return j == JobcardStatusRequested
}

// CanExecute reports whether dispensing may start from this status.
func (j JobcardStatus) CanExecute() bool {
	return j == JobcardStatusApproved
}

// CanComplete reports whether a jobcard in this status may be finalized.
func (j JobcardStatus) CanComplete() bool {
	return j == JobcardStatusProcessing
}

// ParseJobcardStatus converts raw input into a JobcardStatus.
func ParseJobcardStatus(value string) (JobcardStatus, error) {
	for _, candidate := range validJobcardStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid jobcard status %q", value)
}
