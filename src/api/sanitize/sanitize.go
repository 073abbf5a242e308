// Package sanitize strips markup from user-authored text before it is
// persisted or fanned out to other users.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

func Text(s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}
