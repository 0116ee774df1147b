package util

import (
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

// Responses from the cloud OCR endpoints are small JSON documents.
const MaxResponseBodyBytes = 16 << 20

/*
Read and decompress the body of resp.

The url is only used for log lines and error context.
Bodies larger than MaxResponseBodyBytes after decoding are rejected.
*/
func GetBody(resp *http.Response, urlStr string) (body []byte, e *xerr.Error) {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	tl.Log(tl.Verbose5, palette.BlueDim, "Reading body of '%s' (encoding '%s')", urlStr, encoding)

	var decoded io.Reader
	switch encoding {
	case "gzip", "x-gzip":
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return body, xerr.NewError(err, "Unable to open gzip body", urlStr)
		}
		defer gzipReader.Close()
		decoded = gzipReader
	case "deflate":
		flateReader := flate.NewReader(resp.Body)
		defer flateReader.Close()
		decoded = flateReader
	case "br":
		decoded = brotli.NewReader(resp.Body)
	case "", "identity", "none":
		decoded = resp.Body
	default:
		tl.Log(tl.Warning, palette.YellowDim, "Unknown Content-Encoding '%s' for '%s', reading as is", encoding, urlStr)
		decoded = resp.Body
	}

	body, err := io.ReadAll(io.LimitReader(decoded, MaxResponseBodyBytes+1))
	if err != nil {
		return nil, xerr.NewError(err, "Unable to read response body", urlStr)
	}
	if len(body) > MaxResponseBodyBytes {
		return nil, xerr.NewError(fmt.Errorf("body exceeds %d bytes", MaxResponseBodyBytes), "Response body too large", urlStr)
	}
	tl.Log(tl.Verbose6, palette.GreenDim, "Read %d body bytes from '%s'", len(body), urlStr)

	return body, nil
}
