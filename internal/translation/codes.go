package translation

import "fmt"

// successCodes are provider error codes that still mean success.
var successCodes = map[string]struct{}{
	"":      {},
	"0":     {},
	"52000": {},
}

// providerErrorMessages maps documented provider error codes to messages.
// Unmapped codes fall back to a generic message instead of failing.
var providerErrorMessages = map[string]string{
	"52001": "request timed out, try again later",
	"52002": "provider system error, try again later",
	"52003": "unauthorized: check the application ID",
	"54000": "a required request parameter is missing",
	"54001": "invalid signature: check the shared secret",
	"54003": "request rate limit reached",
	"54004": "account balance is insufficient",
	"54005": "long-query requests are sent too frequently",
	"58000": "client IP address is not allowed",
	"58001": "target language is not supported",
	"58002": "translation service is currently shut down",
	"90107": "certification is not approved or has expired",
}

func isSuccessCode(code string) bool {
	_, ok := successCodes[code]
	return ok
}

func providerErrorMessage(code string) string {
	if msg, ok := providerErrorMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("translation failed with code %s", code)
}
