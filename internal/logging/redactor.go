package logging

import "regexp"

// Redactor applies a set of regular expressions to log text, replacing
// every capture group with a fixed substitute string. Patterns come
// from LoggingConfig.RedactedPatterns (SPEC_FULL.md AMBIENT STACK);
// invalid patterns are skipped rather than failing logger construction,
// since a bad redaction regex must never take down the process that's
// trying to log the reason why.
type Redactor struct {
	patterns    []*regexp.Regexp
	replacement string
}

// NewRedactor compiles patterns, silently dropping any that fail to
// compile.
func NewRedactor(patterns []string, replacement string) *Redactor {
	r := &Redactor{replacement: replacement}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, re)
	}
	return r
}

// Redact rewrites every capture group match in s with the configured
// substitute. A pattern with no capture groups redacts its whole match.
func (r *Redactor) Redact(s string) string {
	for _, re := range r.patterns {
		s = redactPattern(re, s, r.replacement)
	}
	return s
}

func redactPattern(re *regexp.Regexp, s, replacement string) string {
	if re.NumSubexp() == 0 {
		return re.ReplaceAllString(s, replacement)
	}
	return string(re.ReplaceAllFunc([]byte(s), func(match []byte) []byte {
		loc := re.FindSubmatchIndex(match)
		if loc == nil {
			return match
		}
		out := append([]byte(nil), match...)
		// Replace each capture group, last to first, so earlier offsets
		// stay valid as later ones are rewritten.
		for g := re.NumSubexp(); g >= 1; g-- {
			start, end := loc[2*g], loc[2*g+1]
			if start < 0 {
				continue
			}
			rebuilt := make([]byte, 0, len(out)-(end-start)+len(replacement))
			rebuilt = append(rebuilt, out[:start]...)
			rebuilt = append(rebuilt, replacement...)
			rebuilt = append(rebuilt, out[end:]...)
			out = rebuilt
		}
		return out
	}))
}
