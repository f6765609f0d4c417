package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n < 0 {
		return "-" + utoa64(uint64(-n))
	}
	return utoa64(uint64(n))
}

// utoa converts an unsigned 32-bit integer to a string
func utoa(n uint32) string {
	return utoa64(uint64(n))
}

// utoa64 converts an unsigned integer to a string
func utoa64(n uint64) string {
	if n == 0 {
		return "0"
	}

	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// FormatInstant renders a clock value in ticks
func FormatInstant(i Instant) string {
	return utoa64(uint64(i))
}
