package insight

import "unicode/utf16"

// SelectDeterministic picks a candidate by summing the UTF-16 code units of
// key modulo len(candidates). The same key always gets the same phrase, and
// different keys spread across the list. Empty candidates yield "".
func SelectDeterministic(key string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	return candidates[keyHash(key)%len(candidates)]
}

func keyHash(key string) int {
	sum := 0
	for _, u := range utf16.Encode([]rune(key)) {
		sum += int(u)
	}
	return sum
}
