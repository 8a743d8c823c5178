package auth

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var expiryPattern = regexp.MustCompile(`^(\d+)([dw])$`)

var expiryDateLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseExpirationDuration converts a token expiry spec into an absolute
// expiration time. Accepted forms:
//   - "" or "never": no expiration (returns nil)
//   - any Go duration, e.g. "30m", "24h", "2h30m"
//   - "Nd" / "Nw": N days or N weeks from now
//   - "2026-12-31" or "2026-12-31 14:30": an absolute date, which must
//     be in the future
func ParseExpirationDuration(expiresIn string) (*time.Time, error) {
	if expiresIn == "" || expiresIn == "never" {
		return nil, nil
	}

	if dur, err := time.ParseDuration(expiresIn); err == nil {
		t := time.Now().Add(dur)
		return &t, nil
	}

	for _, layout := range expiryDateLayouts {
		t, err := time.Parse(layout, expiresIn)
		if err != nil {
			continue
		}
		if !t.After(time.Now()) {
			return nil, fmt.Errorf("expiration date must be in the future: %s", expiresIn)
		}
		return &t, nil
	}

	m := expiryPattern.FindStringSubmatch(expiresIn)
	if m == nil {
		return nil, fmt.Errorf("invalid expiration %q (use \"never\", a Go duration like \"24h\", \"30d\", \"4w\", or a date like \"2026-12-31\")", expiresIn)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("invalid number in expiration: %s", expiresIn)
	}

	day := 24 * time.Hour
	dur := time.Duration(n) * day
	if m[2] == "w" {
		dur = time.Duration(n) * 7 * day
	}
	t := time.Now().Add(dur)
	return &t, nil
}
