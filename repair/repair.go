// Package repair implements the mount-time "trust the bitmap, recompute the
// counts" consistency pass spec §4.8's state-machine section calls for:
// there is no journaled recovery, so a crash in the dirty state may leave
// the superblock's free counters skewed from the bitmap bits. This is this
// engine's fsck.
package repair

import (
	"fmt"

	"github.com/dskfs/dskfs/volume"
	multierror "github.com/hashicorp/go-multierror"
)

// Report describes one mismatch found between a recorded free counter and
// the bitmap's actual popcount.
type Report struct {
	Field    string
	Recorded uint32
	Actual   uint32
}

func (r Report) String() string {
	return fmt.Sprintf("%s: superblock says %d, bitmap says %d", r.Field, r.Recorded, r.Actual)
}

// Check recomputes free_inodes and free_blocks from the resident bitmaps and
// compares them against the superblock's recorded values. It never mutates
// anything; Repair does that. Every mismatch found is collected into a
// single multierror rather than stopping at the first (spec's intent that a
// mount-time report describe everything that's wrong, not just one thing).
func Check(v *volume.Volume) ([]Report, error) {
	var reports []Report
	var errs *multierror.Error

	sb := v.Superblock()

	inodePop := sb.TotalInodes - v.InodeBitmap().PopCount()
	if inodePop != sb.FreeInodes {
		reports = append(reports, Report{Field: "free_inodes", Recorded: sb.FreeInodes, Actual: inodePop})
		errs = multierror.Append(errs, fmt.Errorf("free_inodes mismatch: recorded %d, bitmap implies %d", sb.FreeInodes, inodePop))
	}

	blockPop := sb.TotalBlocks - v.BlockBitmap().PopCount()
	if blockPop != sb.FreeBlocks {
		reports = append(reports, Report{Field: "free_blocks", Recorded: sb.FreeBlocks, Actual: blockPop})
		errs = multierror.Append(errs, fmt.Errorf("free_blocks mismatch: recorded %d, bitmap implies %d", sb.FreeBlocks, blockPop))
	}

	return reports, errs.ErrorOrNil()
}

// Repair recomputes free_inodes and free_blocks from the bitmaps and
// overwrites the superblock's recorded counters to match — "trust the
// bitmap" (spec §4.8). Callers should follow with a metadata sync to
// persist the corrected superblock.
func Repair(v *volume.Volume) []Report {
	reports, err := Check(v)
	if err == nil {
		return nil
	}

	sb := v.Superblock()
	sb.FreeInodes = sb.TotalInodes - v.InodeBitmap().PopCount()
	sb.FreeBlocks = sb.TotalBlocks - v.BlockBitmap().PopCount()
	v.InodeBitmap().SetFree(sb.FreeInodes)
	v.BlockBitmap().SetFree(sb.FreeBlocks)
	v.Dirty()

	return reports
}
