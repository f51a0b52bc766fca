package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
search:
  phrases:
    - "mens pajama"
  brand: "Rebel River"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Scheduler.FetchInterval != 4*time.Hour {
		t.Fatalf("fetch_interval default wrong: %v", cfg.Scheduler.FetchInterval)
	}
	if cfg.Alerting.DropThreshold != 20 {
		t.Fatalf("drop_threshold default wrong: %d", cfg.Alerting.DropThreshold)
	}
	if cfg.History.File != "data/history.csv" {
		t.Fatalf("history.file default wrong: %q", cfg.History.File)
	}
	if cfg.Search.MaxPages != 3 {
		t.Fatalf("max_pages default wrong: %d", cfg.Search.MaxPages)
	}
}

func TestLoadRejectsMissingPhrases(t *testing.T) {
	_, err := Load(writeConfig(t, `
search:
  brand: "Rebel River"
`))
	if err == nil {
		t.Fatal("config without phrases must be rejected")
	}
}

func TestLoadRejectsTelegramWithoutToken(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
telegram:
  enabled: true
  chat_ids: ["111"]
`))
	if err == nil {
		t.Fatal("telegram without bot_token must be rejected")
	}
}

func TestCatalogMapping(t *testing.T) {
	cfg := CatalogConfig{SKUs: map[string]string{
		"260704956": "RRPPSBK0924",
		"261245021": "RRPPSGN0924",
	}}

	mapping, err := cfg.Mapping()
	if err != nil {
		t.Fatalf("mapping: %v", err)
	}
	if mapping[260704956] != "RRPPSBK0924" || mapping[261245021] != "RRPPSGN0924" {
		t.Fatalf("unexpected mapping: %v", mapping)
	}
}

func TestCatalogMappingRejectsBadKey(t *testing.T) {
	cfg := CatalogConfig{SKUs: map[string]string{"not-a-number": "X"}}
	if _, err := cfg.Mapping(); err == nil {
		t.Fatal("non-numeric card id must be rejected")
	}
}

func TestReportSchedule(t *testing.T) {
	sched := SchedulerConfig{ReportWeekday: "Sunday", ReportTime: "10:00"}

	weekday, hour, minute, err := sched.ReportSchedule()
	if err != nil {
		t.Fatalf("report schedule: %v", err)
	}
	if weekday != time.Sunday || hour != 10 || minute != 0 {
		t.Fatalf("unexpected schedule: %v %d:%d", weekday, hour, minute)
	}
}

func TestReportScheduleRejectsBadTime(t *testing.T) {
	cases := []SchedulerConfig{
		{ReportWeekday: "sunday", ReportTime: "25:00"},
		{ReportWeekday: "sunday", ReportTime: "10:75"},
		{ReportWeekday: "sunday", ReportTime: "ten"},
		{ReportWeekday: "someday", ReportTime: "10:00"},
	}
	for _, sched := range cases {
		if _, _, _, err := sched.ReportSchedule(); err == nil {
			t.Fatalf("schedule %+v must be rejected", sched)
		}
	}
}
