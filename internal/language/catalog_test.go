package language

import "testing"

func TestResolveKnownLanguage(t *testing.T) {
	t.Parallel()

	info := Resolve("EN-us")
	if info.Code != "en" || info.Name != "English" || !info.Known {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestResolveAutoSentinel(t *testing.T) {
	t.Parallel()

	info := Resolve("auto")
	if info.Code != AutoCode || !info.Known {
		t.Fatalf("unexpected info: %+v", info)
	}
	if !IsAuto(" AUTO ") {
		t.Fatalf("expected auto detection to normalize input")
	}
}

func TestResolveUnknownLanguagePlaceholder(t *testing.T) {
	t.Parallel()

	info := Resolve("tlh")
	if info.Known {
		t.Fatalf("expected unknown language: %+v", info)
	}
	if info.Code != "tlh" || info.Name != "Unknown (TLH)" {
		t.Fatalf("unexpected placeholder: %+v", info)
	}

	blank := Resolve("  ")
	if blank.Code != "" || blank.Name != UnknownName {
		t.Fatalf("unexpected blank resolution: %+v", blank)
	}
}

func TestOptionsListAutoFirst(t *testing.T) {
	t.Parallel()

	options := Options()
	if len(options) != len(SupportedCodes())+1 {
		t.Fatalf("expected every catalog language plus auto, got %d", len(options))
	}
	if options[0].Code != AutoCode {
		t.Fatalf("expected auto-detect first, got %+v", options[0])
	}
	for i := 2; i < len(options); i++ {
		if options[i-1].Code > options[i].Code {
			t.Fatalf("expected sorted codes, %q before %q", options[i-1].Code, options[i].Code)
		}
	}
}
