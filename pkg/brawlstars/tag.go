package brawlstars

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidTag is returned for tags that are not '#' followed by at least
// three letters or digits.
var ErrInvalidTag = errors.New("invalid player/club tag")

var tagPattern = regexp.MustCompile(`(?i)^#?([A-Z0-9]{3,})$`)

// NormalizeTag validates a player or club tag and returns it upper-cased
// with the leading '#' escaped for use in a URL path ("#abc" -> "%23ABC").
func NormalizeTag(tag string) (string, error) {
	m := tagPattern.FindStringSubmatch(strings.TrimSpace(tag))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	return "%23" + strings.ToUpper(m[1]), nil
}
