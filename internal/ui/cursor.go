package ui

// TabsElement is the selection cursor of one list-backed tab. Position may
// equal Size, which selects nothing; it never exceeds Size.
type TabsElement struct {
	Name     string
	Position int
	Size     int
}

// Up moves the cursor one row towards the top.
func (t *TabsElement) Up() {
	if t.Position > 0 {
		t.Position--
	}
	t.clamp()
}

// Down moves the cursor one row towards the bottom.
func (t *TabsElement) Down() {
	if t.Position < t.Size {
		t.Position++
	}
	t.clamp()
}

// PageUp moves the cursor n rows up, stopping at the top.
func (t *TabsElement) PageUp(n int) {
	t.Position = max(0, t.Position-n)
	t.clamp()
}

// PageDown moves the cursor n rows down, stopping at Size.
func (t *TabsElement) PageDown(n int) {
	t.Position = min(t.Size, t.Position+n)
	t.clamp()
}

// SetSize records a new list length and pulls the cursor back if the list
// shrank below it.
func (t *TabsElement) SetSize(size int) {
	t.Size = max(0, size)
	t.clamp()
}

// Selected returns the index under the cursor and whether it points at a row.
func (t TabsElement) Selected() (int, bool) {
	return t.Position, t.Position < t.Size
}

func (t *TabsElement) clamp() {
	t.Position = max(0, min(t.Position, t.Size))
}
