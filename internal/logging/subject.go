package logging

import "strings"

// FormatSubject builds the sender/task/stage subject string used in console output.
// Task identifiers are shortened to their first UUID group so console lines stay
// readable; the full identifier remains available as a structured attribute.
func FormatSubject(senderID, taskID, stage string) string {
	senderID = strings.TrimSpace(senderID)
	taskID = ShortTaskID(taskID)
	stage = strings.TrimSpace(stage)
	parts := make([]string, 0, 3)
	if senderID != "" {
		var formatted string
		if len(senderID) > 1 {
			formatted = strings.ToUpper(senderID[:1]) + strings.ToLower(senderID[1:])
		} else {
			formatted = strings.ToUpper(senderID)
		}
		parts = append(parts, formatted)
	}
	switch {
	case taskID != "" && stage != "":
		parts = append(parts, "Task #"+taskID+" ("+stage+")")
	case taskID != "":
		parts = append(parts, "Task #"+taskID)
	case stage != "":
		parts = append(parts, stage)
	}
	return strings.Join(parts, " · ")
}

// ShortTaskID trims a UUID task identifier to its leading group. Non-UUID
// values are returned unchanged.
func ShortTaskID(taskID string) string {
	taskID = strings.TrimSpace(taskID)
	if idx := strings.IndexByte(taskID, '-'); idx == 8 {
		return taskID[:idx]
	}
	return taskID
}
