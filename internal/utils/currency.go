package utils

import "fmt"

// FormatINR renders an amount of paise using Indian digit grouping,
// e.g. 123456789 paise -> "₹12,34,567.89". The last three integer
// digits form one group; every group above that has two digits.
func FormatINR(paise int64) string {
	neg := paise < 0
	if neg {
		paise = -paise
	}
	rupees := paise / 100
	frac := paise % 100

	digits := fmt.Sprintf("%d", rupees)
	grouped := digits
	if len(digits) > 3 {
		head := digits[:len(digits)-3]
		tail := digits[len(digits)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		parts = append([]string{head}, parts...)
		grouped = ""
		for _, p := range parts {
			grouped += p + ","
		}
		grouped += tail
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s₹%s.%02d", sign, grouped, frac)
}
