// Package normalize canonicalises user-typed URLs and domain names before they are submitted
// Pipeline order
// 1 drop invalid UTF-8 and control characters
// 2 Unicode NFC normalization
// 3 strip format chars (zero-width joiners, BOM) picked up by copy-paste
// 4 trim surrounding whitespace
// 5 host goes through the IDNA lookup profile (lower-case, punycode)
package normalize

import (
	"net"
	"net/url"
	"strings"
	"sync"
	"unicode"

	perr "metaview/internal/platform/errors"

	"golang.org/x/net/idna"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxLabelLen  = 63
	maxDomainLen = 253
)

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFC,
			runes.Remove(runes.In(unicode.Cf)),
		)
	},
}

// Text applies the pipeline up to step 4; it never fails
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(out)
}

// URL returns the canonical absolute form of a page address typed by a user.
// A missing scheme defaults to https; only http and https are accepted; the fragment is dropped
func URL(raw string) (string, error) {
	s := Text(raw)
	if s == "" {
		return "", perr.WithField(perr.Validationf("url is required"), "url")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", perr.WithField(perr.Wrap(err, perr.ErrorCodeValidation, "url is not valid"), "url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", perr.WithField(perr.Validationf("url scheme %q is not supported", u.Scheme), "url")
	}
	host := u.Hostname()
	if host == "" {
		return "", perr.WithField(perr.Validationf("url has no host"), "url")
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", perr.WithField(perr.Wrap(err, perr.ErrorCodeValidation, "url host is not valid"), "url")
	}
	if port := u.Port(); port != "" {
		ascii = net.JoinHostPort(ascii, port)
	}
	u.Host = ascii
	u.User = nil
	u.Fragment, u.RawFragment = "", ""
	return u.String(), nil
}

// Domain reduces input such as "https://www.Example.com/path" to a registrable host name
// in ASCII form ("example.com")
func Domain(raw string) (string, error) {
	s := strings.ToLower(Text(raw))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		s = s[i+1:]
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		s = h
	}
	s = strings.TrimSuffix(s, ".")
	s = strings.TrimPrefix(s, "www.")
	if s == "" {
		return "", perr.WithField(perr.Validationf("domain is required"), "domain")
	}

	ascii, err := idna.Lookup.ToASCII(s)
	if err != nil {
		return "", perr.WithField(perr.Wrap(err, perr.ErrorCodeValidation, "domain is not valid"), "domain")
	}
	if len(ascii) > maxDomainLen {
		return "", perr.WithField(perr.Validationf("domain is longer than %d characters", maxDomainLen), "domain")
	}
	labels := strings.Split(ascii, ".")
	if len(labels) < 2 {
		return "", perr.WithField(perr.Validationf("domain %q needs a top-level domain", ascii), "domain")
	}
	for _, l := range labels {
		if l == "" || len(l) > maxLabelLen {
			return "", perr.WithField(perr.Validationf("domain %q has an invalid label", ascii), "domain")
		}
	}
	return ascii, nil
}
