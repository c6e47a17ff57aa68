// Package report renders reconciliation findings and derives the
// process verdict.
package report

import (
	"github.com/sirupsen/logrus"

	"github.com/kylerisse/abgleich/pkg/reconcile"
)

// Verdict derives the process exit code from the finding counts and
// the strict flag: 1 when any errors exist, or when any warnings exist
// and strict mode promotes them; 0 otherwise. Pure, so callers can test
// it without rendering anything.
func Verdict(numWarnings, numErrors int, strict bool) int {
	if numErrors > 0 || (numWarnings > 0 && strict) {
		return 1
	}
	return 0
}

// Render logs each finding as caption plus detail, then a summary
// section of captions only, then the counts. Nothing is logged for a
// clean run unless verbose is set, in which case the zero counts are
// still reported.
func Render(logger *logrus.Logger, warnings, errors []reconcile.Finding, verbose bool) {
	if len(warnings) == 0 && len(errors) == 0 && !verbose {
		return
	}

	for _, f := range warnings {
		logger.Warnf("%s\n%s", f.Caption, f.Detail)
	}
	for _, f := range errors {
		logger.Errorf("%s\n%s", f.Caption, f.Detail)
	}

	logger.Info("--------- SUMMARY ---------")

	for _, f := range warnings {
		logger.Warn(f.Caption)
	}
	for _, f := range errors {
		logger.Error(f.Caption)
	}

	if len(warnings) > 0 {
		logger.Warnf("Warnings: %d", len(warnings))
	} else if verbose {
		logger.Info("Warnings: 0")
	}

	if len(errors) > 0 {
		logger.Errorf("Errors: %d", len(errors))
	} else if verbose {
		logger.Info("Errors: 0")
	}
}
