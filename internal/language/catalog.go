package language

import (
	"sort"
	"strings"
)

// AutoCode is the auto-detect sentinel accepted as a source language.
// It is never valid as a target language.
const AutoCode = "auto"

// UnknownName labels languages the catalog cannot resolve.
const UnknownName = "Unknown"

// Info describes one language for display purposes.
type Info struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name,omitempty"`
	Known      bool   `json:"known"`
}

type catalogEntry struct {
	name   string
	native string
}

var catalogEntries = map[string]catalogEntry{
	"ar": {name: "Arabic", native: "العربية"},
	"de": {name: "German", native: "Deutsch"},
	"en": {name: "English", native: "English"},
	"es": {name: "Spanish", native: "Español"},
	"fr": {name: "French", native: "Français"},
	"id": {name: "Indonesian", native: "Bahasa Indonesia"},
	"it": {name: "Italian", native: "Italiano"},
	"ja": {name: "Japanese", native: "日本語"},
	"ko": {name: "Korean", native: "한국어"},
	"pl": {name: "Polish", native: "Polski"},
	"pt": {name: "Portuguese", native: "Português"},
	"ru": {name: "Russian", native: "Русский"},
	"th": {name: "Thai", native: "ไทย"},
	"tr": {name: "Turkish", native: "Türkçe"},
	"vi": {name: "Vietnamese", native: "Tiếng Việt"},
	"zh": {name: "Chinese", native: "中文"},
}

// IsAuto reports whether the code is the auto-detect sentinel.
func IsAuto(code string) bool {
	return NormalizeCode(code) == AutoCode
}

// Resolve maps a language code to display information. Codes missing from the
// catalog resolve to an unknown-language placeholder carrying the raw code
// rather than failing; an unresolvable language must not abort a translation.
func Resolve(code string) Info {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return Info{Code: "", Name: UnknownName}
	}
	if normalized == AutoCode {
		return Info{Code: AutoCode, Name: "Auto-detect", Known: true}
	}
	if entry, ok := catalogEntries[normalized]; ok {
		return Info{
			Code:       normalized,
			Name:       entry.name,
			NativeName: entry.native,
			Known:      true,
		}
	}
	return Info{
		Code: normalized,
		Name: UnknownName + " (" + strings.ToUpper(normalized) + ")",
	}
}

// SupportedCodes lists catalog language codes in sorted order.
func SupportedCodes() []string {
	codes := make([]string, 0, len(catalogEntries))
	for code := range catalogEntries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Options lists selectable languages for API consumers, auto-detect first.
func Options() []Info {
	options := make([]Info, 0, len(catalogEntries)+1)
	options = append(options, Resolve(AutoCode))
	for _, code := range SupportedCodes() {
		options = append(options, Resolve(code))
	}
	return options
}
