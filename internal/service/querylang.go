package service

import "unicode"

// simplifiedChinese is reported for CJK queries written in Han characters only.
const simplifiedChinese = "zh-cn"

// queryLanguage corrects CJK detections: a zh, ja or ko guess over text that contains Han
// characters and no kana or hangul is reported as simplified Chinese.
func queryLanguage(detected, text string) string {
	switch detected {
	case "zh", "ja", "ko", "cmn":
	default:
		return detected
	}
	han := false
	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Hangul):
			return detected
		case unicode.Is(unicode.Han, r):
			han = true
		}
	}
	if han {
		return simplifiedChinese
	}
	return detected
}
