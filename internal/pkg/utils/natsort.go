package utils

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// NaturalLess orders names by their non-digit text first and then by the
// numbers embedded in them, so "Line 2" sorts before "Line 10".
func NaturalLess(a, b string) bool {
	textA, numsA := splitNatural(a)
	textB, numsB := splitNatural(b)
	if textA != textB {
		return textA < textB
	}
	for i := 0; i < len(numsA) && i < len(numsB); i++ {
		if numsA[i] != numsB[i] {
			return numsA[i] < numsB[i]
		}
	}
	return len(numsA) < len(numsB)
}

// SortNatural sorts in place using NaturalLess on the key of each element.
func SortNatural[T any](items []T, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return NaturalLess(key(items[i]), key(items[j]))
	})
}

func splitNatural(s string) (string, []int) {
	var text strings.Builder
	var nums []int
	digits := ""

	flush := func() {
		if digits == "" {
			return
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			n = 0
		}
		nums = append(nums, n)
		digits = ""
	}

	for _, r := range s {
		if unicode.IsDigit(r) {
			digits += string(r)
			continue
		}
		flush()
		text.WriteRune(r)
	}
	flush()

	if len(nums) == 0 {
		nums = []int{0}
	}
	return text.String(), nums
}
