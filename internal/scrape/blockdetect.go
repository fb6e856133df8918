package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes why a response cannot be parsed as a listing page.
type BlockType string

const (
	BlockNone        BlockType = ""
	BlockCloudflare  BlockType = "cloudflare"
	BlockCaptcha     BlockType = "captcha"
	BlockServerError BlockType = "aspnet_error"
)

// DetectBlock checks a response for anti-bot challenges and ASP.NET error pages, which the site
// sometimes serves with a 200 status.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("server") == "cloudflare" {
			return true, BlockCloudflare
		}
	}

	lower := strings.ToLower(string(body))

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") {
		return true, BlockCloudflare
	}

	if strings.Contains(lower, "recaptcha") || strings.Contains(lower, "hcaptcha") {
		return true, BlockCaptcha
	}

	if strings.Contains(lower, "server error in '/' application") ||
		strings.Contains(lower, "runtime error") && strings.Contains(lower, "customerrors") {
		return true, BlockServerError
	}

	return false, BlockNone
}
