package xslt

import (
	"strings"
	"testing"
)

func TestDefaultConfigMatchesRuntimeDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if ValidationModeFromString(cfg.ValidationMode) != ValidationStrip {
		t.Fatalf("default validation mode %q should map to ValidationStrip", cfg.ValidationMode)
	}
	if ErrorModeFromString(cfg.ErrorMode) != ErrorModeStrict {
		t.Fatalf("default error mode %q should map to ErrorModeStrict", cfg.ErrorMode)
	}
	if cfg.OutputMethod != "xml" || cfg.OutputEncoding != "UTF-8" || cfg.OutputVersion != "1.0" {
		t.Fatalf("unexpected output defaults: %#v", cfg)
	}
}

func TestLoadConfigOverridesOnlyMentionedFields(t *testing.T) {
	doc := `
validationMode: strict
stripSpacePatterns: ["*"]
`
	cfg, err := LoadConfig(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ValidationMode != "strict" {
		t.Fatalf("ValidationMode = %q, want strict", cfg.ValidationMode)
	}
	if len(cfg.StripSpacePatterns) != 1 || cfg.StripSpacePatterns[0] != "*" {
		t.Fatalf("unexpected StripSpacePatterns: %#v", cfg.StripSpacePatterns)
	}
	if cfg.ErrorMode != "strict" {
		t.Fatalf("ErrorMode should keep its default, got %q", cfg.ErrorMode)
	}
	if cfg.OutputEncoding != "UTF-8" {
		t.Fatalf("OutputEncoding should keep its default, got %q", cfg.OutputEncoding)
	}
}

func TestLoadConfigEmptyDocumentYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := DefaultConfig()
	if cfg.ValidationMode != want.ValidationMode || cfg.ErrorMode != want.ErrorMode ||
		cfg.OutputMethod != want.OutputMethod || cfg.OutputEncoding != want.OutputEncoding ||
		cfg.OutputVersion != want.OutputVersion {
		t.Fatalf("empty document should yield DefaultConfig(), got %#v", cfg)
	}
}

func TestValidationModeFromStringMapsAllCases(t *testing.T) {
	cases := map[string]ValidationMode{
		"preserve":  ValidationPreserve,
		"lax":       ValidationLax,
		"strict":    ValidationStrict,
		"strip":     ValidationStrip,
		"unknown!!": ValidationStrip,
	}
	for in, want := range cases {
		if got := ValidationModeFromString(in); got != want {
			t.Errorf("ValidationModeFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestErrorModeFromStringMapsAllCases(t *testing.T) {
	if ErrorModeFromString("silent") != ErrorModeSilent {
		t.Fatalf("expected silent to map to ErrorModeSilent")
	}
	if ErrorModeFromString("strict") != ErrorModeStrict {
		t.Fatalf("expected strict to map to ErrorModeStrict")
	}
	if ErrorModeFromString("") != ErrorModeStrict {
		t.Fatalf("expected unrecognized value to default to ErrorModeStrict")
	}
}
