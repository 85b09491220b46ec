package staking

import (
	"errors"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
)

// Default pagination values
const (
	DefaultPage    = 1   // Default to first page
	DefaultPerPage = 50  // Default pagination size
	MaxPerPage     = 100 // Maximum items per page

	// MaxItemsToSkip keeps the offset within a signed 64-bit OFFSET
	MaxItemsToSkip = math.MaxInt64
)

// Pagination validation errors
var (
	ErrInvalidPerPage  = errors.New("invalid per_page")
	ErrPerPageTooLarge = errors.New("per_page exceeds maximum limit")
	ErrInvalidPage     = errors.New("invalid page")
)

// Page represents a 1-based page number
type Page uint64

// PerPage represents items per page
type PerPage uint64

// ParsePage creates a Page, treating zero as the first page
func ParsePage(page uint64) Page {
	if page == 0 {
		return Page(DefaultPage)
	}
	return Page(page)
}

// ParsePerPage creates a PerPage, treating zero as the default size
func ParsePerPage(perPage uint64) (PerPage, error) {
	if perPage == 0 {
		return PerPage(DefaultPerPage), nil
	}
	if perPage > MaxPerPage {
		return 0, fmt.Errorf("%w: must be between 1 and %d", ErrPerPageTooLarge, MaxPerPage)
	}
	return PerPage(perPage), nil
}

// Uint64 returns the underlying uint64 value
func (p Page) Uint64() uint64 {
	return uint64(p)
}

// Uint64 returns the underlying uint64 value
func (pp PerPage) Uint64() uint64 {
	return uint64(pp)
}

// StakersCriteria selects a page of active stakers
type StakersCriteria struct {
	Page Page
	Size PerPage
}

// NewStakersCriteria validates raw pagination input
func NewStakersCriteria(page, perPage uint64) (StakersCriteria, error) {
	pp, err := ParsePerPage(perPage)
	if err != nil {
		return StakersCriteria{}, fmt.Errorf("%w: %w", ErrInvalidPerPage, err)
	}

	p := ParsePage(page)
	if p.Uint64()-1 > MaxItemsToSkip/pp.Uint64() {
		return StakersCriteria{}, fmt.Errorf("%w: page %d is out of range", ErrInvalidPage, page)
	}
	return StakersCriteria{
		Page: p,
		Size: pp,
	}, nil
}

// ItemsPerPage returns the number of items requested per page
func (c StakersCriteria) ItemsPerPage() uint64 {
	return c.Size.Uint64()
}

// ItemsToSkip returns the number of items to skip for pagination
func (c StakersCriteria) ItemsToSkip() uint64 {
	return (c.Page.Uint64() - 1) * c.Size.Uint64()
}

// StakerSummary is one row of the stakers listing
type StakerSummary struct {
	Address common.Address
	Info    StakeInfo
}

// StakersPage is a page of stakers with navigation metadata
type StakersPage struct {
	Stakers []StakerSummary
	HasMore bool
	Number  Page
	Size    PerPage
}

func (p *StakersPage) HasNext() bool     { return p.HasMore }
func (p *StakersPage) HasPrevious() bool { return p.Number > 1 }
