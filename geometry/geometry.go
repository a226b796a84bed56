// Package geometry is a named catalog of whole-image sizes for mkfs's
// --geometry flag, in the shape of the teacher's disks.DiskGeometry CSV
// catalog (disks/disks.go), repurposed from historical floppy-disk
// dimensions (bits per word, sectors per track, heads) to this engine's own
// two format-time parameters: total block count and total inode count
// (spec.md §4.2 format).
package geometry

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"golang.org/x/exp/slices"
)

// Geometry is one named image size a volume can be formatted with.
type Geometry struct {
	Name        string `csv:"name"`
	Slug        string `csv:"slug"`
	TotalBlocks uint32 `csv:"total_blocks"`
	TotalInodes uint32 `csv:"total_inodes"`
	Notes       string `csv:"notes"`
}

// SizeBytes reports the whole-image size in bytes this geometry implies,
// useful for pre-sizing a fresh backing file before formatting it.
func (g Geometry) SizeBytes() int64 {
	return int64(g.TotalBlocks) * 4096
}

//go:embed sizes.csv
var rawCSV string

var catalog map[string]Geometry

func init() {
	catalog = make(map[string]Geometry)
	reader := strings.NewReader(rawCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row Geometry) error {
		if _, exists := catalog[row.Slug]; exists {
			return fmt.Errorf("duplicate geometry slug %q", row.Slug)
		}
		catalog[row.Slug] = row
		return nil
	})
	if err != nil && err != io.EOF {
		panic(err)
	}
}

// Lookup returns the named geometry, or an error if slug isn't cataloged.
func Lookup(slug string) (Geometry, error) {
	g, ok := catalog[slug]
	if !ok {
		return Geometry{}, fmt.Errorf("no predefined geometry named %q", slug)
	}
	return g, nil
}

// Names lists every cataloged slug in sorted order, for the CLI's help text.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for slug := range catalog {
		names = append(names, slug)
	}
	slices.Sort(names)
	return names
}
