package slice

// ConvertToInt returns the first limit bytes as ints, for logging raw
// messages. A limit of zero or less converts everything.
func ConvertToInt(ss []byte, limit int) []int {
	if limit > 0 && len(ss) > limit {
		ss = ss[:limit]
	}

	r := make([]int, len(ss))
	for i, s := range ss {
		r[i] = int(s)
	}

	return r
}
