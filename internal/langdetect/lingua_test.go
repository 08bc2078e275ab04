package langdetect

import "testing"

func TestDetectISO6391RejectsShortSamples(t *testing.T) {
	t.Parallel()

	cases := []string{"", "   ", "ok", "12345", "a b c"}
	for _, sample := range cases {
		if got := DetectISO6391(sample); got != "" {
			t.Fatalf("expected no detection for %q, got %q", sample, got)
		}
	}
}

func TestDetectISO6391CommonLanguages(t *testing.T) {
	cases := map[string]string{
		"The weather is beautiful today and the birds are singing.": "en",
		"Das Wetter ist heute wunderschön und die Vögel singen.":    "de",
	}
	for sample, want := range cases {
		if got := DetectISO6391(sample); got != want {
			t.Fatalf("expected %q for %q, got %q", want, sample, got)
		}
	}
}
