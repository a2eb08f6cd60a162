package xslt

import (
	"io"

	"gopkg.in/yaml.v3"
)

// Config collects the options spec §6 lists as recognized stylesheet/run
// configuration, decoded from a plain YAML document rather than flags:
// this runtime is a library, and spec.md puts CLI drivers out of scope.
type Config struct {
	ValidationMode string `yaml:"validationMode"`
	ErrorMode      string `yaml:"errorMode"`

	OutputMethod       string `yaml:"outputMethod"`
	OutputEncoding     string `yaml:"outputEncoding"`
	OutputIndent       bool   `yaml:"outputIndent"`
	OmitXMLDeclaration bool   `yaml:"omitXmlDeclaration"`
	OutputVersion      string `yaml:"outputVersion"`
	OutputStandalone   string `yaml:"outputStandalone"`

	InitialTemplate string `yaml:"initialTemplate"`

	StripSpacePatterns    []string `yaml:"stripSpacePatterns"`
	PreserveSpacePatterns []string `yaml:"preserveSpacePatterns"`

	// CharacterReplacements maps a literal character to its output-side
	// replacement, e.g. mapping a non-encodable character to a numeric
	// character reference in a custom encoding (spec §4.5).
	CharacterReplacements map[string]string `yaml:"characterReplacements"`
}

// DefaultConfig mirrors the defaults NewContext and the XML output
// handler already assume, so a zero-value Config and DefaultConfig()
// behave the same for every option this runtime checks.
func DefaultConfig() Config {
	return Config{
		ValidationMode: "strip",
		ErrorMode:      "strict",
		OutputMethod:   "xml",
		OutputEncoding: "UTF-8",
		OutputVersion:  "1.0",
	}
}

// LoadConfig decodes a YAML configuration document, filling in
// DefaultConfig's values for anything r doesn't mention.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, err
	}
	return cfg, nil
}

// ValidationModeFromString maps a config string to the runtime enum,
// defaulting to strip for an unrecognized value.
func ValidationModeFromString(s string) ValidationMode {
	switch s {
	case "preserve":
		return ValidationPreserve
	case "lax":
		return ValidationLax
	case "strict":
		return ValidationStrict
	default:
		return ValidationStrip
	}
}

// ErrorModeFromString maps a config string to the runtime enum,
// defaulting to strict for an unrecognized value.
func ErrorModeFromString(s string) ErrorMode {
	if s == "silent" {
		return ErrorModeSilent
	}
	return ErrorModeStrict
}
