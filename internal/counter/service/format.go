package service

import (
	"fmt"
	"strings"
	"time"
)

// Template tokens substituted by Format.
const (
	tokenSeq   = "<seq>"
	tokenYear  = "<yyyy>"
	tokenMonth = "<mm>"
)

// Format renders a counter snapshot into its human-facing code. Every <seq>
// occurrence becomes seq+1 left-zero-padded to pad digits; the counter stores
// the last issued ordinal, the code shows the next. <yyyy> and <mm> come from
// the reference time. Unknown tokens are left untouched. Pure function, no I/O.
func Format(template string, seq int64, ref time.Time, pad int) string {
	result := template

	if strings.Contains(result, tokenSeq) {
		next := fmt.Sprintf("%d", seq+1)
		if len(next) < pad {
			next = strings.Repeat("0", pad-len(next)) + next
		}
		result = strings.ReplaceAll(result, tokenSeq, next)
	}

	if strings.Contains(result, tokenYear) {
		result = strings.ReplaceAll(result, tokenYear, fmt.Sprintf("%04d", ref.Year()))
	}

	if strings.Contains(result, tokenMonth) {
		result = strings.ReplaceAll(result, tokenMonth, fmt.Sprintf("%02d", int(ref.Month())))
	}

	return result
}
