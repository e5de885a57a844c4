package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.UGCPolicy()

// normalizeSpace collapses multiple spaces into one and trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanText normalizes whitespace and strips any markup a source left in a
// text field.
func cleanText(s string) string {
	if strings.ContainsAny(s, "<>") {
		s = HTMLToText(sanitizeHTML(s))
	}
	return normalizeSpace(s)
}

// sanitizeHTML uses bluemonday to strip unsafe tags and attributes from HTML.
func sanitizeHTML(s string) string {
	return textPolicy.Sanitize(s)
}

// HTMLToText converts HTML to plain text, collapsing whitespace.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return normalizeSpace(html)
	}
	return normalizeSpace(doc.Text())
}

// TruncateText cuts a string to max length, appending ellipsis if truncated.
func TruncateText(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	if maxLen > 3 {
		return string(r[:maxLen-3]) + "..."
	}
	return string(r[:maxLen])
}

// appendUnique appends a string to a slice if it doesn't already exist (case-insensitive).
func appendUnique(list []string, v string) []string {
	vClean := strings.TrimSpace(v)
	if vClean == "" {
		return list
	}
	for _, existing := range list {
		if strings.EqualFold(existing, vClean) {
			return list
		}
	}
	return append(list, vClean)
}

func mergeUniqueFold(dst []string, items []string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		k := strings.ToLower(strings.TrimSpace(v))
		if k != "" {
			seen[k] = struct{}{}
		}
	}

	for _, v := range items {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		dst = append(dst, v)
		seen[k] = struct{}{}
	}

	return dst
}

// stringValue coerces a decoded JSON scalar into text. Numbers keep their
// integral form; slices return their first usable element.
func stringValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10), true
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return strconv.FormatBool(val), true
	case []any:
		for _, item := range val {
			if s, ok := stringValue(item); ok && !isPlaceholder(s) {
				return s, true
			}
		}
		return "", false
	case []string:
		for _, s := range val {
			if !isPlaceholder(s) {
				return s, true
			}
		}
		return "", false
	}
	return fmt.Sprint(v), true
}

// stringSlice coerces a decoded JSON array (or a comma separated string)
// into a list of unique, cleaned strings.
func stringSlice(v any) []string {
	var out []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s, ok := stringValue(item); ok && !isPlaceholder(s) {
				out = appendUnique(out, cleanText(s))
			}
		}
	case []string:
		for _, s := range val {
			if !isPlaceholder(s) {
				out = appendUnique(out, cleanText(s))
			}
		}
	case string:
		if isPlaceholder(val) {
			return nil
		}
		out = mergeUniqueFold(nil, strings.Split(cleanText(val), ","))
	}
	return out
}

func boolValue(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(val))
		return b
	case float64:
		return val != 0
	}
	return false
}

// numberValue reads a decoded JSON number or numeric string.
func numberValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	}
	return 0, false
}

// hashString is the djb2 string hash (seed 5381, h*33+c) over the UTF-16
// code units of s. Only the shifted term wraps at 32 bits; the running sum
// does not, so long inputs grow past the int32 range.
func hashString(s string) int64 {
	var h int64 = 5381
	step := func(c int64) {
		h = int64(int32(h)<<5) + h + c
	}
	for _, r := range s {
		if r >= 0x10000 {
			r -= 0x10000
			step(int64(0xD800 + (r >> 10)))
			step(int64(0xDC00 + (r & 0x3FF)))
			continue
		}
		step(int64(r))
	}
	return h
}

func absHash(h int64) string {
	v := h
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 10)
}
