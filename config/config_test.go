package config

import (
	"testing"
)

// TestScannerSymbolsEnvOverride tests that SCANNER_SYMBOLS replaces the
// configured symbol list, normalized to upper case
func TestScannerSymbolsEnvOverride(t *testing.T) {
	t.Setenv("SCANNER_SYMBOLS", "btcusdt, ethusdt ,SOLUSDT")

	cfg := &Config{}
	cfg.ScannerConfig.Symbols = []string{"DOGEUSDT"}
	applyEnvOverrides(cfg)

	want := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	if len(cfg.ScannerConfig.Symbols) != len(want) {
		t.Fatalf("Expected %d symbols, got %d: %v", len(want), len(cfg.ScannerConfig.Symbols), cfg.ScannerConfig.Symbols)
	}
	for i, s := range want {
		if cfg.ScannerConfig.Symbols[i] != s {
			t.Errorf("Symbol %d: expected %s, got %s", i, s, cfg.ScannerConfig.Symbols[i])
		}
	}
}

// TestScannerSymbolsDefault tests that an empty config still scans a
// non-empty default symbol list
func TestScannerSymbolsDefault(t *testing.T) {
	t.Setenv("SCANNER_SYMBOLS", "")

	cfg := &Config{}
	applyEnvOverrides(cfg)

	if len(cfg.ScannerConfig.Symbols) == 0 {
		t.Fatal("Empty config must fall back to the default symbol list")
	}
}

// TestScannerSymbolsFromFileKept tests that file-configured symbols survive
// when no env override is present
func TestScannerSymbolsFromFileKept(t *testing.T) {
	t.Setenv("SCANNER_SYMBOLS", "")

	cfg := &Config{}
	cfg.ScannerConfig.Symbols = []string{"ADAUSDT"}
	applyEnvOverrides(cfg)

	if len(cfg.ScannerConfig.Symbols) != 1 || cfg.ScannerConfig.Symbols[0] != "ADAUSDT" {
		t.Errorf("File-configured symbols must be kept, got %v", cfg.ScannerConfig.Symbols)
	}
}
