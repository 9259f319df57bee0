package nesdc

import (
	"nesdc-backend/lib/htmlutil"
	"nesdc-backend/lib/textutil"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// attachmentSelectors are searched in order, a link may be visited more than once.
var attachmentSelectors = []cascadia.Selector{
	cascadia.MustCompile(`div[id^="realfile_"] a`),
	cascadia.MustCompile(".file a"),
	cascadia.MustCompile("a"),
}

// dataAttributes may carry the download url directly, in priority order.
var dataAttributes = []string{"data-url", "data-href", "data-download", "data-file"}

// attachmentMarkers identify a download-style reference, matched against the normalized raw reference.
var attachmentMarkers = []string{"filedown", "view("}

var (
	viewCallRegex     = regexp.MustCompile(`view\(([^)]*)\)`)
	callArgsRegex     = regexp.MustCompile(`\(([^)]*)\)`)
	quotedArgRegex    = regexp.MustCompile(`'([^']*)'|"([^"]*)"`)
	absoluteUrlRegex  = regexp.MustCompile(`(https?://[^\s'"]+)`)
	fileDownPathRegex = regexp.MustCompile(`(/[^\s]+fileDown[^\s]+)`)
)

type linkAttrs struct {
	href    string
	onclick string
	data    string
}

func readLinkAttrs(link *goquery.Selection) linkAttrs {
	attrs := linkAttrs{
		href:    strings.TrimSpace(link.AttrOr("href", "")),
		onclick: strings.TrimSpace(link.AttrOr("onclick", "")),
	}
	for _, name := range dataAttributes {
		if value, ok := link.Attr(name); ok && value != "" {
			attrs.data = strings.TrimSpace(value)
			break
		}
	}
	return attrs
}

// isInertHref reports whether an href does not navigate anywhere on its own.
func isInertHref(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	return lower == "" ||
		lower == "#" ||
		lower == "void(0)" ||
		strings.HasPrefix(lower, "javascript:")
}

// rawRefRules pick the reference a link points to, the first rule that returns
// a value wins.
var rawRefRules = []func(attrs linkAttrs) string{
	func(attrs linkAttrs) string {
		return attrs.data
	},
	func(attrs linkAttrs) string {
		if isInertHref(attrs.href) {
			return attrs.onclick
		}
		return ""
	},
	func(attrs linkAttrs) string {
		if !isInertHref(attrs.href) {
			return attrs.href
		}
		return ""
	},
	func(attrs linkAttrs) string {
		return attrs.onclick
	},
}

// RawReference returns the unresolved reference of a link, which may be a url,
// a path or an inline script call.
func RawReference(link *goquery.Selection) (string, bool) {
	attrs := readLinkAttrs(link)
	for _, rule := range rawRefRules {
		if raw := rule(attrs); raw != "" {
			return raw, true
		}
	}
	return "", false
}

func quotedArgs(text string) []string {
	var args []string
	for _, groups := range quotedArgRegex.FindAllStringSubmatch(text, -1) {
		value := groups[1]
		if value == "" {
			value = groups[2]
		}
		if value != "" {
			args = append(args, value)
		}
	}
	return args
}

// resolveRule returns decided=true when it has handled raw, link is empty if
// raw was found to be unresolvable.
type resolveRule func(base *url.URL, raw string) (link string, decided bool)

func resolvePath(base *url.URL, path string) (string, bool) {
	resolved, ok := htmlutil.Resolve(base, path)
	if !ok {
		return "", true
	}
	return resolved, true
}

func resolveViewCall(base *url.URL, raw string) (string, bool) {
	groups := viewCallRegex.FindStringSubmatch(raw)
	if groups == nil {
		return "", false
	}
	args := quotedArgs(groups[1])
	if len(args) < 4 {
		return "", false
	}

	endpoint := base.ResolveReference(&url.URL{Path: fileDownPath})
	endpoint.RawQuery = "atchFileId=" + url.QueryEscape(args[0]) +
		"&fileSn=" + url.QueryEscape(args[1]) +
		"&bbsId=" + url.QueryEscape(args[2]) +
		"&bbsKey=" + url.QueryEscape(args[3])
	return endpoint.String(), true
}

func resolveFileDownCall(base *url.URL, raw string) (string, bool) {
	if !strings.Contains(raw, "FileDown") && !strings.Contains(raw, "fileDown") {
		return "", false
	}

	if groups := absoluteUrlRegex.FindStringSubmatch(raw); groups != nil {
		return groups[1], true
	}
	if groups := callArgsRegex.FindStringSubmatch(raw); groups != nil {
		args := quotedArgs(groups[1])
		if len(args) > 0 {
			switch {
			case strings.HasPrefix(args[0], "/"):
				return resolvePath(base, args[0])
			case strings.HasPrefix(args[0], "http"):
				return args[0], true
			}
		}
	}
	if groups := fileDownPathRegex.FindStringSubmatch(raw); groups != nil {
		return resolvePath(base, groups[1])
	}
	return "", false
}

func rejectScript(_ *url.URL, raw string) (string, bool) {
	return "", strings.HasPrefix(raw, "javascript")
}

func resolveDirect(base *url.URL, raw string) (string, bool) {
	switch {
	case strings.HasPrefix(raw, "/"):
		return resolvePath(base, raw)
	case strings.HasPrefix(raw, "http"):
		return raw, true
	}
	return "", false
}

var resolveRules = []resolveRule{
	resolveViewCall,
	resolveFileDownCall,
	rejectScript,
	resolveDirect,
}

// ResolveAttachmentUrl turns a raw link reference into an absolute url.
func ResolveAttachmentUrl(base *url.URL, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, rule := range resolveRules {
		link, decided := rule(base, raw)
		if decided {
			return link, link != ""
		}
	}
	return "", false
}

// IsRootUrl reports whether link points at the root of the site, which is what
// a failed resolution usually produces.
func IsRootUrl(base *url.URL, link string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	return parsed.Host == base.Host && (parsed.Path == "" || parsed.Path == "/")
}

func isAttachmentRef(raw, resolved string) bool {
	return textutil.MatchName(raw, attachmentMarkers) ||
		strings.Contains(strings.ToLower(resolved), "filedown")
}

// FindResultFileUrl returns the url of the results document linked from a
// detail page. The first pdf link wins, otherwise the first download-style
// link is used.
func FindResultFileUrl(doc *goquery.Document, base *url.URL) (string, bool) {
	pdfUrl := ""
	fallback := ""
	for _, selector := range attachmentSelectors {
		doc.FindMatcher(selector).EachWithBreak(func(_ int, link *goquery.Selection) bool {
			raw, ok := RawReference(link)
			if !ok {
				return true
			}
			resolved, ok := ResolveAttachmentUrl(base, raw)
			if !ok || IsRootUrl(base, resolved) {
				return true
			}

			if strings.HasSuffix(strings.ToLower(resolved), ".pdf") {
				pdfUrl = resolved
				return false
			}
			if fallback == "" && isAttachmentRef(raw, resolved) {
				fallback = resolved
			}
			return true
		})
		if pdfUrl != "" {
			return pdfUrl, true
		}
	}
	return fallback, fallback != ""
}
