package seats

// RowLabel maps a 1-based row index to its label in spreadsheet-column
// order: 1 -> "A", 26 -> "Z", 27 -> "AA", 28 -> "AB", 53 -> "BA".
func RowLabel(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
