// Package reconcile diffs the engine repository's metric rows against
// the mirror store's projection and classifies discrepancies.
//
// Three independent comparisons run per invocation: failed-state
// detection over the repository alone, set parity between the ACTIVE
// repository metrics and the mirror key space, and per-field attribute
// parity over the intersection of the two. Each comparison is a pure
// function over its inputs and returns ordered warning and error
// findings; none of them performs I/O.
package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kylerisse/abgleich/pkg/metric"
)

// CheckFailedModels scans the repository rows for metrics in ERROR
// state and aggregates them into a single warning finding. A model that
// failed during creation is not expected in the mirror, so this is
// informational rather than a divergence.
func CheckFailedModels(engine []metric.EngineMetric) (warnings, errors []Finding) {
	var failed []metric.EngineMetric
	for _, m := range engine {
		if m.Status == metric.StatusError {
			failed = append(failed, m)
		}
	}
	if len(failed) == 0 {
		return nil, nil
	}

	lines := make([]string, 0, len(failed))
	for _, m := range failed {
		lines = append(lines, fmt.Sprintf(
			"WARNING - model in error state: uid=%s name=%q message=%q",
			m.UID, m.Name, m.Message))
	}

	warnings = append(warnings, Finding{
		Severity: Warning,
		Caption:  fmt.Sprintf("%d models in ERROR state", len(failed)),
		Detail:   strings.Join(lines, "\n"),
	})
	return warnings, nil
}

// CheckModelParity verifies that the ACTIVE repository metrics and the
// mirror store cover the same uid set. Two error findings result, each
// only when non-empty: active models missing from the mirror, and
// mirror entries not among the active models. Detail lines are sorted
// by uid so output is reproducible for a given input.
func CheckModelParity(engine []metric.EngineMetric, mirror []metric.MirrorMetric) (warnings, errors []Finding) {
	activeByUID := activeMap(engine)
	mirrorByUID := mirrorMap(mirror)

	var missing []string
	for uid := range activeByUID {
		if _, ok := mirrorByUID[uid]; !ok {
			missing = append(missing, uid)
		}
	}
	sort.Strings(missing)

	if len(missing) > 0 {
		lines := make([]string, 0, len(missing))
		for _, uid := range missing {
			lines = append(lines, fmt.Sprintf(
				"ERROR - model not in mirror store: uid=%s name=%q",
				uid, activeByUID[uid].Name))
		}
		errors = append(errors, Finding{
			Severity: Error,
			Caption: fmt.Sprintf(
				"%d active models in the repository are not in the mirror store",
				len(missing)),
			Detail: strings.Join(lines, "\n"),
		})
	}

	var orphaned []string
	for uid := range mirrorByUID {
		if _, ok := activeByUID[uid]; !ok {
			orphaned = append(orphaned, uid)
		}
	}
	sort.Strings(orphaned)

	if len(orphaned) > 0 {
		lines := make([]string, 0, len(orphaned))
		for _, uid := range orphaned {
			lines = append(lines, fmt.Sprintf(
				"ERROR - model uid not among active repository models: uid=%s name=%q",
				uid, mirrorByUID[uid].Name))
		}
		errors = append(errors, Finding{
			Severity: Error,
			Caption: fmt.Sprintf(
				"%d model uids in the mirror store are not among active repository models",
				len(orphaned)),
			Detail: strings.Join(lines, "\n"),
		})
	}

	return nil, errors
}

// fieldDiff is one mismatching field for a uid present on both sides.
type fieldDiff struct {
	field  string
	engine string
	mirror string
}

// CheckAttributeParity compares the fixed attribute mapping between the
// two shapes for every uid present in both the active repository set
// and the mirror: name against name, server against display_name, and
// the metricType, metricTypeName and symbol fields nested in the
// repository row's parameters payload against their flat mirror
// counterparts. All mismatching uids aggregate into one error finding.
//
// A malformed parameters payload is a defect in the repository data,
// not a divergence: it is returned as an error and aborts the run.
func CheckAttributeParity(engine []metric.EngineMetric, mirror []metric.MirrorMetric) (warnings, errors []Finding, err error) {
	activeByUID := activeMap(engine)
	mirrorByUID := mirrorMap(mirror)

	var common []string
	for uid := range activeByUID {
		if _, ok := mirrorByUID[uid]; ok {
			common = append(common, uid)
		}
	}
	sort.Strings(common)

	var lines []string
	mismatched := 0
	for _, uid := range common {
		eng := activeByUID[uid]
		mir := mirrorByUID[uid]

		var diffs []fieldDiff
		if eng.Name != mir.Name {
			diffs = append(diffs, fieldDiff{"name", eng.Name, mir.Name})
		}
		if eng.Server != mir.DisplayName {
			diffs = append(diffs, fieldDiff{"display_name", eng.Server, mir.DisplayName})
		}

		info, err := eng.UserInfo()
		if err != nil {
			return nil, nil, fmt.Errorf("reconcile: attribute parity: %w", err)
		}
		if info.MetricType != mir.MetricType {
			diffs = append(diffs, fieldDiff{"metricType", info.MetricType, mir.MetricType})
		}
		if info.MetricTypeName != mir.MetricTypeName {
			diffs = append(diffs, fieldDiff{"metricTypeName", info.MetricTypeName, mir.MetricTypeName})
		}
		if info.Symbol != mir.Symbol {
			diffs = append(diffs, fieldDiff{"symbol", info.Symbol, mir.Symbol})
		}

		if len(diffs) == 0 {
			continue
		}
		mismatched++

		parts := make([]string, 0, len(diffs))
		for _, d := range diffs {
			parts = append(parts, fmt.Sprintf(
				"%s (repository=%q mirror=%q)", d.field, d.engine, d.mirror))
		}
		lines = append(lines, fmt.Sprintf(
			"ERROR - model %s has attribute mismatch: %s",
			uid, strings.Join(parts, ", ")))
	}

	if mismatched > 0 {
		errors = append(errors, Finding{
			Severity: Error,
			Caption: fmt.Sprintf(
				"%d models have attribute mismatches between the repository and the mirror store",
				mismatched),
			Detail: strings.Join(lines, "\n"),
		})
	}

	return nil, errors, nil
}

// RunAll performs the three comparisons in order (failed-state, set
// parity, attribute parity), unconditionally and independently, and
// concatenates their findings. Verbose mode logs population counts per
// repository status before comparing.
func RunAll(logger *logrus.Logger, engine []metric.EngineMetric, mirror []metric.MirrorMetric, verbose bool) (allWarnings, allErrors []Finding, err error) {
	if verbose {
		logPopulations(logger, engine, mirror)
	}

	warnings, errors := CheckFailedModels(engine)
	allWarnings = append(allWarnings, warnings...)
	allErrors = append(allErrors, errors...)

	warnings, errors = CheckModelParity(engine, mirror)
	allWarnings = append(allWarnings, warnings...)
	allErrors = append(allErrors, errors...)

	warnings, errors, err = CheckAttributeParity(engine, mirror)
	if err != nil {
		return nil, nil, err
	}
	allWarnings = append(allWarnings, warnings...)
	allErrors = append(allErrors, errors...)

	return allWarnings, allErrors, nil
}

func logPopulations(logger *logrus.Logger, engine []metric.EngineMetric, mirror []metric.MirrorMetric) {
	logger.Infof("There are %d metrics in the engine repository", len(engine))
	logger.Infof("There are %d metrics in the mirror store", len(mirror))

	counts := make(map[metric.Status]int)
	for _, m := range engine {
		counts[m.Status]++
	}
	logger.Infof("There are %d actively-monitored models (ACTIVE)", counts[metric.StatusActive])

	for _, s := range []metric.Status{
		metric.StatusUnmonitored,
		metric.StatusCreatePending,
		metric.StatusPendingData,
	} {
		if counts[s] > 0 {
			logger.Infof("There are %d models in state %s", counts[s], s)
		}
	}
}

// activeMap keys the ACTIVE subset of the repository rows by uid.
func activeMap(engine []metric.EngineMetric) map[string]metric.EngineMetric {
	m := make(map[string]metric.EngineMetric)
	for _, row := range engine {
		if row.Status == metric.StatusActive {
			m[row.UID] = row
		}
	}
	return m
}

// mirrorMap keys the mirror rows by uid.
func mirrorMap(mirror []metric.MirrorMetric) map[string]metric.MirrorMetric {
	m := make(map[string]metric.MirrorMetric)
	for _, row := range mirror {
		m[row.UID] = row
	}
	return m
}
