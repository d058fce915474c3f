package preloadlib

import (
	"regexp"
	"strings"
)

// Candidate URL patterns recognized inside slide text. Matching is tolerant:
// malformed markup simply produces fewer matches, never an error.
var (
	mdImageRe  = regexp.MustCompile(`!\[[^\]]*\]\(\s*(<[^>]+>|[^)\s]+)`)
	htmlSrcRe  = regexp.MustCompile(`<[a-zA-Z][^>]*\s(?::src|src)\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	cssURLRe   = regexp.MustCompile(`url\(\s*(?:"([^")]*)"|'([^')]*)'|([^'")\s][^)\s]*))\s*\)`)
	literalRe  = regexp.MustCompile(`^'([^']*)'$|^"([^"]*)"$`)
	imageExtRe = regexp.MustCompile(`(?i)\.(png|jpe?g|gif|webp|svg|avif|bmp|ico)(\?[^?]*)?$`)
)

// metaImageKeys is the allow-list of slide metadata fields that may carry an
// image reference.
var metaImageKeys = []string{"background", "backgroundImage", "image", "cover"}

const dataURIPrefix = "data:"

// ExtractURLs scans one slide's raw text and metadata for image URLs.
//
// It recognizes markdown image syntax, HTML src and bound :src attributes,
// CSS url(...) tokens and the allow-listed metadata keys, in that order, each
// contributing matches in textual appearance order. Inline data URIs are
// excluded. The result is deduplicated preserving first occurrence.
func ExtractURLs(raw string, meta map[string]string) []string {
	urls := make([]string, 0, 8)
	seen := make(map[string]struct{})

	add := func(u string) {
		u = strings.TrimSpace(u)
		u = strings.Trim(u, "<>")
		if u == "" || strings.HasPrefix(u, dataURIPrefix) {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	for _, m := range mdImageRe.FindAllStringSubmatch(raw, -1) {
		add(m[1])
	}
	for _, m := range htmlSrcRe.FindAllStringSubmatch(raw, -1) {
		v := m[1]
		if v == "" {
			v = m[2]
		}
		// A bound :src holds an expression; only a quoted string
		// literal is a usable candidate.
		if lit := literalRe.FindStringSubmatch(v); lit != nil {
			if lit[1] != "" {
				v = lit[1]
			} else {
				v = lit[2]
			}
		}
		if looksLikeImageRef(v) {
			add(v)
		}
	}
	for _, m := range cssURLRe.FindAllStringSubmatch(raw, -1) {
		v := m[1]
		if v == "" {
			v = m[2]
		}
		if v == "" {
			v = m[3]
		}
		// url() also appears for fonts and such; keep only known
		// image extensions.
		if imageExtRe.MatchString(v) {
			add(v)
		}
	}
	for _, key := range metaImageKeys {
		if v, ok := meta[key]; ok && looksLikeImageRef(v) {
			add(v)
		}
	}
	return urls
}

// looksLikeImageRef filters out metadata values that cannot be fetched, such
// as plain color names in a background field.
func looksLikeImageRef(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, dataURIPrefix) {
		return false
	}
	for _, p := range []string{"http://", "https://", "ftp://", "ftps://", "//", "/", "./", "../"} {
		if strings.HasPrefix(v, p) {
			return true
		}
	}
	return imageExtRe.MatchString(v)
}

// BuildIndex runs extraction over a whole deck: entry i is the deduplicated,
// order-preserving URL list for slide i.
func BuildIndex(slides []Slide) [][]string {
	index := make([][]string, len(slides))
	for i, s := range slides {
		index[i] = ExtractURLs(s.Raw, s.Meta)
	}
	return index
}
