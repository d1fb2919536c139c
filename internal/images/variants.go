package images

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Variant is a single size rendition of a product photo.
type Variant struct {
	// URL is the absolute location of this rendition on the CDN.
	URL string
	// Label distinguishes the rendition in local filenames
	// ("original", "800x800", "400x400").
	Label string
	// Ext is the filename extension including the leading dot.
	Ext string
}

// sizeSuffixes lists the crop suffixes the CDN publishes alongside the
// original upload, largest first.
var sizeSuffixes = []string{"-800x800", "-400x400"}

// imageName splits a CDN filename into base, optional size suffix, and
// extension, e.g. "aianna-chair-800x800.jpg".
var imageName = regexp.MustCompile(`^(.+?)(-\d+x\d+)?(\.[A-Za-z0-9]+)$`)

// Variants derives the candidate renditions for a product image URL.
// The original (unsuffixed) name comes first, followed by the known
// size crops. URLs whose filename does not parse yield a single
// "original" variant pointing at the input URL unchanged.
func Variants(rawURL string) []Variant {
	u, err := url.Parse(rawURL)
	if err != nil {
		return []Variant{{URL: rawURL, Label: "original", Ext: ".jpg"}}
	}
	dir, file := path.Split(u.Path)

	m := imageName.FindStringSubmatch(file)
	if m == nil {
		return []Variant{{URL: rawURL, Label: "original", Ext: extOrDefault(file)}}
	}
	base, ext := m[1], m[3]

	build := func(name, label string) Variant {
		v := *u
		v.Path = dir + name
		return Variant{URL: v.String(), Label: label, Ext: ext}
	}

	variants := []Variant{build(base+ext, "original")}
	for _, suffix := range sizeSuffixes {
		variants = append(variants, build(base+suffix+ext, strings.TrimPrefix(suffix, "-")))
	}
	return variants
}

// FileName returns the local filename for the n-th image of a product
// in the given variant, e.g. "2_800x800.jpg". Numbering starts at 1.
func FileName(n int, v Variant) string {
	return fmt.Sprintf("%d_%s%s", n, v.Label, v.Ext)
}

func extOrDefault(file string) string {
	if ext := path.Ext(file); ext != "" {
		return ext
	}
	return ".jpg"
}
