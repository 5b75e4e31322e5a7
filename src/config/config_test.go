package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigs(t *testing.T, cfgJSON, dataJSON string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(cfgJSON), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "dataconfig.json"), []byte(dataJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadConfigs(t *testing.T) {
	cfgJSON := `{
		"data": {"file": "stats.csv", "watch": true, "check_interval": "30s"},
		"analysis": {"seed": 7, "test_ratio": 0.25, "k_min": 3, "k_max": 6, "samples_per_cluster": 4},
		"report": {"plot_file": "clusters.png"},
		"log_name": "run.log"
	}`
	dataJSON := `{
		"features": ["slg_percent", "spd"],
		"target": "war",
		"identity": ["first", "last"],
		"sample_cols": ["first", "last", "war"]
	}`
	dir := writeConfigs(t, cfgJSON, dataJSON)

	cfg, dcfg, err := loadConfigs(dir, "config.json", "dataconfig.json")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Data.File != "stats.csv" || !cfg.Data.Watch {
		t.Errorf("data section mismatch: %+v", cfg.Data)
	}
	if time.Duration(cfg.Data.CheckInterval) != 30*time.Second {
		t.Errorf("check_interval = %v", time.Duration(cfg.Data.CheckInterval))
	}
	if cfg.Analysis.Seed != 7 || cfg.Analysis.TestRatio != 0.25 {
		t.Errorf("analysis section mismatch: %+v", cfg.Analysis)
	}
	if cfg.Analysis.KMin != 3 || cfg.Analysis.KMax != 6 {
		t.Errorf("K range mismatch: %+v", cfg.Analysis)
	}
	if cfg.LogName != "run.log" {
		t.Errorf("log_name = %q", cfg.LogName)
	}

	if got := dcfg.GetTarget(); got != "war" {
		t.Errorf("target = %q", got)
	}
	if feats := dcfg.GetFeatures(); len(feats) != 2 || feats[0] != "slg_percent" {
		t.Errorf("features = %v", feats)
	}
}

func TestLoadConfigsDefaults(t *testing.T) {
	dir := writeConfigs(t, `{"data": {"file": "x.csv"}}`, `{"target": "war"}`)

	cfg, _, err := loadConfigs(dir, "config.json", "dataconfig.json")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Analysis.TestRatio != 0.2 {
		t.Errorf("default test_ratio = %v", cfg.Analysis.TestRatio)
	}
	if cfg.Analysis.KMin != 2 || cfg.Analysis.KMax != 9 {
		t.Errorf("default K range = [%d, %d]", cfg.Analysis.KMin, cfg.Analysis.KMax)
	}
	if cfg.Analysis.SamplesPerCluster != 5 {
		t.Errorf("default samples_per_cluster = %d", cfg.Analysis.SamplesPerCluster)
	}
	if cfg.LogName != "app.log" {
		t.Errorf("default log_name = %q", cfg.LogName)
	}
}

func TestLoadConfigsMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := loadConfigs(dir, "config.json", "dataconfig.json"); err == nil {
		t.Fatal("expected error for missing config files")
	}
}

func TestLoadConfigsBadJSON(t *testing.T) {
	dir := writeConfigs(t, `{not json`, `{"target": "war"}`)
	if _, _, err := loadConfigs(dir, "config.json", "dataconfig.json"); err == nil {
		t.Fatal("expected error for malformed config json")
	}
}

func TestDurationRoundTrip(t *testing.T) {
	d := Duration(90 * time.Second)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"1m30s"` {
		t.Errorf("marshal = %s", data)
	}

	var back Duration
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != d {
		t.Errorf("round trip: %v != %v", time.Duration(back), time.Duration(d))
	}
}

func TestSetTarget(t *testing.T) {
	dcfg := &DataConfig{Target: "war"}
	dcfg.SetTarget("wrcplus")
	if got := dcfg.GetTarget(); got != "wrcplus" {
		t.Errorf("target after SetTarget = %q", got)
	}
}
