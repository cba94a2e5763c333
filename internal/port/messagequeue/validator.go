package messagequeue

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects pass validation.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	switch {
	case subject == SubjectResearchRequest:
		var p ResearchRequestPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if strings.TrimSpace(p.Topic) == "" {
			return fmt.Errorf("schema validation failed for %s: topic is required", subject)
		}
	case strings.HasSuffix(subject, DLQSuffix):
		return nil
	case strings.HasPrefix(subject, SubjectTaskPrefix+"."):
		var p TaskStatusPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("schema validation failed for %s: %w", subject, err)
		}
		if p.TaskID == "" {
			return fmt.Errorf("schema validation failed for %s: task_id is required", subject)
		}
	}
	return nil
}
