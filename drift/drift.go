// Package drift detects structural differences between two renders of a page.
//
// The booking page is loaded twice per search (cash, then points). Both renders
// share one layout, so a large fingerprint distance between them means the
// markup changed under us and the extraction selectors may be stale.
package drift

import (
	"hash/fnv"
	"math/bits"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// shingleSize is the number of consecutive element tokens hashed together.
const shingleSize = 3

// Fingerprint computes a 64-bit SimHash of rawHTML's element structure.
// Text and attribute values other than class are ignored, so the cash and
// points renders of one layout fingerprint identically.
func Fingerprint(rawHTML string) uint64 {
	tokens := elementTokens(rawHTML)
	if len(tokens) == 0 {
		return 0
	}
	features := shingles(tokens, shingleSize)
	if features == nil {
		features = tokens
	}
	return simhash(features)
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Report is the outcome of comparing two renders.
type Report struct {
	Distance int
	Drifted  bool
}

// Detector flags render pairs whose fingerprint distance exceeds Threshold.
type Detector struct {
	Threshold int
}

// Compare fingerprints both documents and reports their distance.
func (d Detector) Compare(a, b string) Report {
	dist := Distance(Fingerprint(a), Fingerprint(b))
	return Report{Distance: dist, Drifted: dist > d.Threshold}
}

// elementTokens lists start tags in document order as "tag.classA.classB",
// with class names sorted.
func elementTokens(rawHTML string) []string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	var tokens []string

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return tokens
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := tokenizer.TagName()
			token := string(name)
			var classes []string
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = tokenizer.TagAttr()
				if string(key) == "class" {
					classes = append(classes, strings.Fields(string(val))...)
				}
			}
			if len(classes) > 0 {
				sort.Strings(classes)
				token += "." + strings.Join(classes, ".")
			}
			tokens = append(tokens, token)
		}
	}
}

// shingles joins each run of n consecutive tokens; nil if there are fewer than n.
func shingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], " "))
	}
	return out
}

// simhash accumulates the FNV-64a hash bits of every feature.
func simhash(features []string) uint64 {
	var vector [64]int
	for _, f := range features {
		h := fnv.New64a()
		h.Write([]byte(f))
		sum := h.Sum64()
		for i := 0; i < 64; i++ {
			if sum&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}
