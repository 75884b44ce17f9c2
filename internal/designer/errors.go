package designer

import (
	"errors"
	"fmt"

	"github.com/cmmoran/designersync/internal/dom"
)

var (
	// ErrMethodNotFound means the source has no initialize method to sync.
	ErrMethodNotFound = errors.New("initialize method not found")
	// ErrRegionInvalid means a resolved text region is unusable.
	ErrRegionInvalid = errors.New("invalid region")
	// ErrNonEditablePart marks an edit skipped because the member is declared
	// in a part the designer may not touch.
	ErrNonEditablePart = errors.New("member declared in non-editable part")
	// ErrSaveFailed means the designer file could not be written back.
	ErrSaveFailed = errors.New("save failed")
	// ErrRenameFailed means the class could not be renamed.
	ErrRenameFailed = errors.New("rename failed")
	// ErrNotAttached means no designer view is attached.
	ErrNotAttached = errors.New("designer view not attached")
)

// RegionError reports a region with a non-positive column.
type RegionError struct {
	Method string
	Region dom.Region
}

func (e *RegionError) Error() string {
	return fmt.Sprintf("region %s of %s: column must be > 0", e.Region, e.Method)
}

func (e *RegionError) Is(target error) bool {
	return target == ErrRegionInvalid
}

// SaveError wraps the I/O failure of writing an off-buffer document.
type SaveError struct {
	File string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s: %v", e.File, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

func (e *SaveError) Is(target error) bool {
	return target == ErrSaveFailed
}

// Skip records an edit that was not applied.
type Skip struct {
	Field string
	Op    Op
	Err   error
}

func (s Skip) String() string {
	return fmt.Sprintf("%s %s: %v", s.Op, s.Field, s.Err)
}
