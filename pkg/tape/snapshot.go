package tape

import "gopkg.in/yaml.v3"

// Snapshot is a point-in-time view of a tape, for debugging and dumps.
type Snapshot struct {
	Size     int            `yaml:"size"`
	Max      uint32         `yaml:"max"`
	Cursor   int            `yaml:"cursor"`
	InBounds bool           `yaml:"in_bounds"`
	Cell     uint32         `yaml:"cell"`
	Cells    map[int]uint32 `yaml:"cells,omitempty"`
}

// Snapshot captures the cursor, the current cell and every nonzero cell.
func (t *Tape) Snapshot() Snapshot {
	s := Snapshot{
		Size:     len(t.cells),
		Max:      t.max,
		Cursor:   t.cursor,
		InBounds: t.inBounds(),
		Cell:     t.ReadCell(),
	}
	for addr, v := range t.cells {
		if v == 0 {
			continue
		}
		if s.Cells == nil {
			s.Cells = make(map[int]uint32)
		}
		s.Cells[addr] = v
	}
	return s
}

// YAML renders the snapshot as a YAML document.
func (s Snapshot) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}
