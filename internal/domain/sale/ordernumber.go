package sale

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	orderSeqDigits = 3
	maxOrderSeq    = 999
)

// MonthPrefix returns the YYYYMM order number prefix for the given time.
func MonthPrefix(t time.Time) string {
	return t.Format("200601")
}

// NextOrderNumber computes the successor of the month's highest order number.
// An empty last number starts the sequence at 001. The sequence fails closed
// at 999 rather than widening the format.
func NextOrderNumber(prefix, last string) (string, error) {
	if last == "" {
		return fmt.Sprintf("%s%0*d", prefix, orderSeqDigits, 1), nil
	}
	if len(last) != len(prefix)+orderSeqDigits || !strings.HasPrefix(last, prefix) {
		return "", fmt.Errorf("malformed order number %q for month %s", last, prefix)
	}

	seq, err := strconv.Atoi(last[len(prefix):])
	if err != nil {
		return "", fmt.Errorf("malformed order number %q: %w", last, err)
	}
	if seq+1 > maxOrderSeq {
		return "", ErrSequenceExhausted
	}
	return fmt.Sprintf("%s%0*d", prefix, orderSeqDigits, seq+1), nil
}
