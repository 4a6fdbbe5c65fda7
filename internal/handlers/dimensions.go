package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/serroba/url-redirector/internal/metrics"
)

// notAvailable is reported for client hints the request did not send.
const notAvailable = "N/A"

var errMissingAcceptLanguage = errors.New("missing accept-language header")

// RequestDimensions derives shortName, platform, browser and deviceLanguage
// from the request. Any parse failure fails the whole set.
func RequestDimensions(id string, meta RequestMeta) (map[string]string, error) {
	platform, err := clientHint(meta.Platform, meta.HasPlatform)
	if err != nil {
		return nil, fmt.Errorf("sec-ch-ua-platform: %w", err)
	}

	language, err := deviceLanguage(meta.AcceptLanguage, meta.HasAcceptLanguage)
	if err != nil {
		return nil, err
	}

	// sec-ch-ua lists brands as `"Brand";v="1", ...`; the first brand is reported.
	brand, _, _ := strings.Cut(meta.Browser, ";")

	browser, err := clientHint(brand, meta.HasBrowser)
	if err != nil {
		return nil, fmt.Errorf("sec-ch-ua: %w", err)
	}

	dims := map[string]string{
		metrics.DimShortName: id,
		metrics.DimPlatform:  platform,
		metrics.DimBrowser:   browser,
	}

	if language != "" {
		dims[metrics.DimDeviceLanguage] = language
	}

	return dims, nil
}

// TargetDimensions derives domain and redirectUrl from a stored target URL.
func TargetDimensions(target string) (map[string]string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q: missing scheme or host", target)
	}

	return map[string]string{
		metrics.DimDomain:      u.Hostname(),
		metrics.DimRedirectURL: target,
	}, nil
}

// clientHint decodes a structured-header string such as `"macOS"`.
// A header that was sent empty does not decode.
func clientHint(raw string, present bool) (string, error) {
	if !present {
		return notAvailable, nil
	}

	var value string
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &value); err != nil {
		return "", err
	}

	return value, nil
}

// deviceLanguage returns the last language range without a region subtag.
func deviceLanguage(header string, present bool) (string, error) {
	if !present {
		return "", errMissingAcceptLanguage
	}

	var language string

	for _, entry := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(entry, ";")
		tag = strings.TrimSpace(tag)

		if strings.Contains(tag, "-") {
			continue
		}

		language = tag
	}

	return language, nil
}
