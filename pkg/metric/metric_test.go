package metric

import (
	"testing"
)

func TestStatus_String(t *testing.T) {
	cases := []struct {
		status Status
		want   string
	}{
		{StatusUnmonitored, "UNMONITORED"},
		{StatusActive, "ACTIVE"},
		{StatusCreatePending, "CREATE_PENDING"},
		{StatusError, "ERROR"},
		{StatusPendingData, "PENDING_DATA"},
		{Status(99), "Status(99)"},
	}
	for _, tc := range cases {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", int(tc.status), got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, raw := range []int{0, 1, 2, 4, 8} {
		s, err := ParseStatus(raw)
		if err != nil {
			t.Errorf("ParseStatus(%d) failed: %v", raw, err)
		}
		if int(s) != raw {
			t.Errorf("ParseStatus(%d) = %d", raw, int(s))
		}
	}

	for _, raw := range []int{-1, 3, 5, 16} {
		if _, err := ParseStatus(raw); err == nil {
			t.Errorf("ParseStatus(%d): expected error", raw)
		}
	}
}

func TestEngineMetric_UserInfo(t *testing.T) {
	m := EngineMetric{
		UID: "abc123",
		Parameters: `{"metricSpec": {"userInfo": {
			"metricType": "StockVolume",
			"metricTypeName": "Stock Volume",
			"symbol": "ACME"
		}}}`,
	}

	info, err := m.UserInfo()
	if err != nil {
		t.Fatalf("UserInfo failed: %v", err)
	}
	if info.MetricType != "StockVolume" {
		t.Errorf("unexpected metricType %q", info.MetricType)
	}
	if info.MetricTypeName != "Stock Volume" {
		t.Errorf("unexpected metricTypeName %q", info.MetricTypeName)
	}
	if info.Symbol != "ACME" {
		t.Errorf("unexpected symbol %q", info.Symbol)
	}
}

func TestEngineMetric_UserInfoMissingFields(t *testing.T) {
	// A payload without the userInfo document parses to empty fields;
	// only malformed JSON is an error.
	m := EngineMetric{UID: "abc123", Parameters: `{"metricSpec": {}}`}

	info, err := m.UserInfo()
	if err != nil {
		t.Fatalf("UserInfo failed: %v", err)
	}
	if info != (UserInfo{}) {
		t.Errorf("expected zero UserInfo, got %+v", info)
	}
}

func TestEngineMetric_UserInfoMalformed(t *testing.T) {
	m := EngineMetric{UID: "abc123", Parameters: `{"metricSpec": `}

	if _, err := m.UserInfo(); err == nil {
		t.Fatal("expected error for malformed parameters payload")
	}
}
