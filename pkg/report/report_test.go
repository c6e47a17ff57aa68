package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/kylerisse/abgleich/pkg/reconcile"
)

func TestVerdict(t *testing.T) {
	cases := []struct {
		warnings int
		errors   int
		strict   bool
		want     int
	}{
		{0, 0, false, 0},
		{0, 0, true, 0},
		{0, 1, false, 1},
		{1, 0, false, 0},
		{1, 0, true, 1},
		{1, 1, false, 1},
		{3, 2, true, 1},
	}
	for _, tc := range cases {
		got := Verdict(tc.warnings, tc.errors, tc.strict)
		if got != tc.want {
			t.Errorf("Verdict(%d, %d, %v) = %d, want %d",
				tc.warnings, tc.errors, tc.strict, got, tc.want)
		}
	}
}

func captureLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	return logger, &buf
}

func TestRender_Findings(t *testing.T) {
	logger, buf := captureLogger()

	warnings := []reconcile.Finding{
		{Severity: reconcile.Warning, Caption: "2 models in ERROR state", Detail: "warn detail"},
	}
	errors := []reconcile.Finding{
		{Severity: reconcile.Error, Caption: "1 active models missing", Detail: "error detail"},
	}

	Render(logger, warnings, errors, false)

	out := buf.String()
	for _, fragment := range []string{
		"2 models in ERROR state",
		"warn detail",
		"1 active models missing",
		"error detail",
		"SUMMARY",
		"Warnings: 1",
		"Errors: 1",
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("output missing %q:\n%s", fragment, out)
		}
	}
}

func TestRender_CleanQuiet(t *testing.T) {
	logger, buf := captureLogger()

	Render(logger, nil, nil, false)

	if buf.Len() != 0 {
		t.Errorf("expected no output for a clean quiet run, got:\n%s", buf.String())
	}
}

func TestRender_CleanVerbose(t *testing.T) {
	logger, buf := captureLogger()

	Render(logger, nil, nil, true)

	out := buf.String()
	for _, fragment := range []string{"SUMMARY", "Warnings: 0", "Errors: 0"} {
		if !strings.Contains(out, fragment) {
			t.Errorf("verbose output missing %q:\n%s", fragment, out)
		}
	}
}
