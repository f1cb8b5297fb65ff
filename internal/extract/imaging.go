package extract

import (
	"path"
	"strings"

	"github.com/ISA-tools/mzml2isa/internal/meta"
)

// ImageIdentityThreshold is the share of the document stem an image name
// must contain to be linked to the document.
const ImageIdentityThreshold = 0.4

// linkImagingFiles records the binary data file of an imzML document and
// the optical images found next to it.
func (x *document) linkImagingFiles(d *meta.Dictionary, siblings []string) {
	ibd := meta.String(stem(x.name) + ".ibd")
	d.Set("Raw Spectral Data File", meta.EntryList{{Value: &ibd}})
	d.Set("High-res image", meta.Scalar{Value: meta.String(MatchImage(stem(x.name), siblings, "ndpi"))})
	d.Set("Low-res image", meta.Scalar{Value: meta.String(MatchImage(stem(x.name), siblings, "jpg", "tif"))})
}

// MatchImage returns the base name of the candidate with one of the given
// extensions whose stem shares the longest common substring with name,
// provided it covers more than ImageIdentityThreshold of name. It returns
// "" when no candidate qualifies.
func MatchImage(name string, candidates []string, exts ...string) string {
	if name == "" {
		return ""
	}
	best, bestScore := "", 0.0
	for _, c := range candidates {
		base := baseName(c)
		ext := strings.TrimPrefix(path.Ext(base), ".")
		if !hasExt(ext, exts) {
			continue
		}
		score := float64(longestCommonSubstring(strings.TrimSuffix(base, path.Ext(base)), name)) /
			float64(len(name))
		if score > bestScore {
			best, bestScore = base, score
		}
	}
	if bestScore > ImageIdentityThreshold {
		return best
	}
	return ""
}

func hasExt(ext string, exts []string) bool {
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// longestCommonSubstring returns the length in bytes of the longest
// common substring of a and b.
func longestCommonSubstring(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	longest := 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				longest = max(longest, cur[j])
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return longest
}
