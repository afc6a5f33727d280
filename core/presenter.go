package core

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	NoUpcomingEvents = "No Upcoming Events!"
	LineSeparator    = " — "
)

type SortOrder string

const (
	OrderUnsorted  SortOrder = "unsorted"
	OrderByAddress SortOrder = "address"
)

// Render turns events into display lines, one per event, in sequence order.
func Render(events []Event) []string {
	if len(events) == 0 {
		return []string{NoUpcomingEvents}
	}

	lines := make([]string, 0, len(events))
	for _, e := range events {
		lines = append(lines, strings.Join([]string{e.Name, e.Type, e.Date, e.Time, e.Address}, LineSeparator))
	}

	return lines
}

// SortByAddress returns a copy of events ordered by address using the
// collator. Events sharing an address keep their relative order.
func SortByAddress(events []Event, collator *collate.Collator) []Event {
	sorted := slices.Clone(events)
	if sorted == nil {
		sorted = []Event{}
	}

	slices.SortStableFunc(sorted, func(a, b Event) int {
		return collator.CompareString(a.Address, b.Address)
	})

	return sorted
}

// Presenter holds one page's already-filtered events. It is not safe for
// concurrent use; the collator keeps internal buffers.
type Presenter struct {
	source   []Event
	view     []Event
	order    SortOrder
	collator *collate.Collator
}

func NewPresenter(events []Event, locale language.Tag) *Presenter {
	source := slices.Clone(events)

	return &Presenter{
		source:   source,
		view:     source,
		order:    OrderUnsorted,
		collator: collate.New(locale),
	}
}

func (p *Presenter) Order() SortOrder {
	return p.order
}

func (p *Presenter) Events() []Event {
	if len(p.view) == 0 {
		return []Event{}
	}

	return slices.Clone(p.view)
}

func (p *Presenter) Lines() []string {
	return Render(p.view)
}

// OnSortChange re-sorts the filtered source by address and re-renders.
func (p *Presenter) OnSortChange() []string {
	p.view = SortByAddress(p.source, p.collator)
	p.order = OrderByAddress

	return p.Lines()
}
