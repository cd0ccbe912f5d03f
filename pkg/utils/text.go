package utils

import "strings"

var confusableReplacer = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4", "۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4", "٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	"ي", "ی", // Arabic Yeh to Farsi Yeh
	"ك", "ک", // Arabic Kaf to Farsi Kaf
	"ة", "ه", // Teh Marbuta to Heh
)

// FoldConfusables maps Persian/Arabic digits to ASCII and Arabic letter
// variants to their Farsi forms, so names that render identically compare equal.
func FoldConfusables(input string) string {
	return confusableReplacer.Replace(input)
}
