// Package metric defines the metric record shapes shared by the engine
// repository and its mirror projection.
//
// Two populations exist per reconciliation run: EngineMetric rows from the
// relational repository (the source of truth for monitoring state) and
// MirrorMetric rows from the document store that should reflect the ACTIVE
// engine metrics. Both are keyed by UID, unique within a population.
package metric

import (
	"encoding/json"
	"fmt"
)

// Status is the monitoring state of an engine metric.
type Status int

// Engine metric states. The numeric values are part of the repository
// schema and must not be renumbered.
const (
	StatusUnmonitored   Status = 0
	StatusActive        Status = 1
	StatusCreatePending Status = 2
	StatusError         Status = 4
	StatusPendingData   Status = 8
)

// String returns the canonical name of the status.
func (s Status) String() string {
	switch s {
	case StatusUnmonitored:
		return "UNMONITORED"
	case StatusActive:
		return "ACTIVE"
	case StatusCreatePending:
		return "CREATE_PENDING"
	case StatusError:
		return "ERROR"
	case StatusPendingData:
		return "PENDING_DATA"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ParseStatus converts a raw repository status value to a Status.
// Returns an error for values outside the known set.
func ParseStatus(raw int) (Status, error) {
	s := Status(raw)
	switch s {
	case StatusUnmonitored, StatusActive, StatusCreatePending, StatusError, StatusPendingData:
		return s, nil
	}
	return 0, fmt.Errorf("metric: unknown status value %d", raw)
}

// EngineMetric is one row from the engine repository's metric table.
type EngineMetric struct {
	UID    string
	Name   string
	Server string
	Status Status

	// Message carries the failure detail for metrics in ERROR state.
	Message string

	// Parameters is the serialized model configuration payload. The
	// nested metricSpec.userInfo document holds the fields compared
	// against the mirror.
	Parameters string
}

// UserInfo is the subset of the model configuration payload that is
// projected into the mirror store.
type UserInfo struct {
	MetricType     string `json:"metricType"`
	MetricTypeName string `json:"metricTypeName"`
	Symbol         string `json:"symbol"`
}

type modelParams struct {
	MetricSpec struct {
		UserInfo UserInfo `json:"userInfo"`
	} `json:"metricSpec"`
}

// UserInfo deserializes the Parameters payload and extracts the
// metricSpec.userInfo document. A payload that cannot be parsed is a data
// defect in the repository and is returned as an error; callers must not
// treat it as an ordinary mismatch.
func (m EngineMetric) UserInfo() (UserInfo, error) {
	var params modelParams
	if err := json.Unmarshal([]byte(m.Parameters), &params); err != nil {
		return UserInfo{}, fmt.Errorf("metric: malformed parameters payload for uid %s: %w", m.UID, err)
	}
	return params.MetricSpec.UserInfo, nil
}

// MirrorMetric is one row from the mirror document store.
type MirrorMetric struct {
	UID            string
	Name           string
	DisplayName    string
	MetricType     string
	MetricTypeName string
	Symbol         string
}
