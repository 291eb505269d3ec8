package policy

import "regexp"

// accountShapedDigits matches 10 to 12 digit runs split as 6 leading digits
// plus 4 to 6 trailing digits. Shorter runs, dashed runs, and 13+ digit runs
// are deliberately left alone; widening this boundary is a policy decision,
// not a code fix.
var accountShapedDigits = regexp.MustCompile(`\b\d{6}(\d{4,6})\b`)

// MaskSensitiveInfo masks account-number-shaped digit runs, keeping the
// trailing digits for reference. Example: 1234567890 -> XXXXXX7890.
//
// Applied to every message that leaves the server for the model, and to
// sanitized history turns. Independent of the output guardrail.
func MaskSensitiveInfo(text string) string {
	return accountShapedDigits.ReplaceAllString(text, "XXXXXX$1")
}
