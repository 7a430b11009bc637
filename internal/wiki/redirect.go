package wiki

import "strings"

// RedirectPrefix marks redirect pages. The check is a literal, case-sensitive
// prefix on the raw body with no whitespace stripping.
const RedirectPrefix = "#REDIRECT"

// IsRedirect reports whether body is a redirect page body.
func IsRedirect(body string) bool { return strings.HasPrefix(body, RedirectPrefix) }
