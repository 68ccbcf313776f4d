package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
)

// maxDumpedBody caps how much of a body is written, the IATA reference alone is
// about a megabyte.
const maxDumpedBody = 64 * 1024

var redactedHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
	"Set-Cookie":    true,
}

// formatHeaders writes "Key: Value" lines ordered by key, credentials are redacted.
func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := []string{}
	for _, k := range keys {
		for _, v := range headers[k] {
			if redactedHeaders[http.CanonicalHeaderKey(k)] {
				v = "<redacted>"
			}
			lines = append(lines, fmt.Sprintf("%s: %s", k, v))
		}
	}
	return strings.Join(lines, "\n")
}

func truncateBody(body string) string {
	if len(body) <= maxDumpedBody {
		return body
	}
	return fmt.Sprintf("%s\n<truncated %d bytes>", body[:maxDumpedBody], len(body)-maxDumpedBody)
}

func requestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return "<no body>"
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("<get body: %s>", err)
	}
	contents, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("<read body: %s>", err)
	}
	return truncateBody(string(contents))
}

func writeSection(out *strings.Builder, title, startLine, headers, body string) {
	fmt.Fprintf(out, "==== %s ====\n%s\n", title, startLine)
	if headers != "" {
		out.WriteString(headers)
		out.WriteString("\n")
	}
	out.WriteString("\n")
	out.WriteString(body)
	out.WriteString("\n")
}

// formatHttpMessage renders a request and its response as plain text.
func formatHttpMessage(res *resty.Response) string {
	var requestHeaders string
	if res.Request.RawRequest != nil {
		requestHeaders = formatHeaders(res.Request.RawRequest.Header)
	}

	responseUrl := res.Request.URL
	if res.RawResponse != nil {
		redirected, err := res.RawResponse.Location()
		if err == nil {
			responseUrl = redirected.String()
		}
	}

	var out strings.Builder
	writeSection(
		&out, "request",
		fmt.Sprintf("%s %s", res.Request.Method, res.Request.URL),
		requestHeaders,
		requestBody(res.Request.RawRequest),
	)
	out.WriteString("\n")
	writeSection(
		&out, "response",
		fmt.Sprintf("%d %s (%s)", res.StatusCode(), responseUrl, res.Time()),
		formatHeaders(res.Header()),
		truncateBody(res.String()),
	)
	return out.String()
}
