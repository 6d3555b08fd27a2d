package chaos

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// candidateCodes returns the per-method table of status codes the
// random-error plugin may draw from (§4.4).
func candidateCodes(method string) []int {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return []int{429, 500, 502, 503, 504, 507}
	case http.MethodPatch:
		return []int{429, 500, 502, 503, 504}
	default: // GET and everything else falls back to the GET table
		return []int{429, 500, 502, 503, 504}
	}
}

// pascalStatusName returns the PascalCase reason name for a status code
// (e.g. 429 -> "TooManyRequests"), the form vendor error codes are minted
// from before spaces are reinserted.
func pascalStatusName(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "TooManyRequests"
	case http.StatusInternalServerError:
		return "InternalServerError"
	case http.StatusBadGateway:
		return "BadGateway"
	case http.StatusServiceUnavailable:
		return "ServiceUnavailable"
	case http.StatusGatewayTimeout:
		return "GatewayTimeout"
	case 507:
		return "InsufficientStorage"
	default:
		return strings.ReplaceAll(http.StatusText(status), " ", "")
	}
}

// insertSpaces inserts a space before every capital letter except one at
// the start, turning a PascalCase name into a space-separated one
// ("TooManyRequests" -> "Too Many Requests"), per §4.4's error body shape.
func insertSpaces(pascal string) string {
	var b strings.Builder
	for i, r := range pascal {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// errorBody synthesizes the vendor-conventional JSON error body for status:
// an "error" object with "code" (space-separated name), "message", and
// "innerError" carrying a request id and timestamp (§4.4).
func errorBody(status int, requestID string, now time.Time) []byte {
	return VendorErrorBody(status, "Simulated "+insertSpaces(pascalStatusName(status))+" response injected by the random-error plugin.", requestID, now)
}

// VendorErrorBody builds the same vendor-conventional JSON error body shape
// used by the random-error plugin, parameterized on message so other
// plugins that share this wire format (retry-after, §4.9) don't have to
// duplicate the code-name derivation.
func VendorErrorBody(status int, message, requestID string, now time.Time) []byte {
	code := insertSpaces(pascalStatusName(status))
	return []byte(fmt.Sprintf(
		`{"error":{"code":%q,"message":%q,"innerError":{"requestId":%q,"date":%q}}}`,
		code, message, requestID, now.UTC().Format(time.RFC3339),
	))
}
