package present

// Accordion tracks which of a list of cards is expanded. At most one card is open.
type Accordion struct {
	n    int
	open int
}

// NewAccordion returns the state for n cards with the first one open.
func NewAccordion(n int) *Accordion {
	a := &Accordion{n: n, open: -1}
	if n > 0 {
		a.open = 0
	}
	return a
}

// Toggle opens card i, closing any other, or closes it if it is already open.
// Out of range indexes are ignored.
func (a *Accordion) Toggle(i int) {
	if i < 0 || i >= a.n {
		return
	}
	if a.open == i {
		a.open = -1
		return
	}
	a.open = i
}

func (a *Accordion) IsOpen(i int) bool { return a.open == i }

// Open returns the index of the open card, or -1.
func (a *Accordion) Open() int { return a.open }

func (a *Accordion) Len() int { return a.n }
