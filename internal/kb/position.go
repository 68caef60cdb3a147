package kb

import "strconv"

// Position classes. All but CytobandPosition are basic positions carrying a
// single coordinate.
const (
	ClassGenomicPosition  = "GenomicPosition"
	ClassCdsPosition      = "CdsPosition"
	ClassProteinPosition  = "ProteinPosition"
	ClassExonicPosition   = "ExonicPosition"
	ClassIntronicPosition = "IntronicPosition"
	ClassRnaPosition      = "RnaPosition"
	ClassCytobandPosition = "CytobandPosition"
)

// Position is a single breakpoint position. For basic positions a nil Pos
// means unspecified/any. Cytoband positions use the band fields instead.
type Position struct {
	Class     string `json:"@class"`
	Pos       *int   `json:"pos,omitempty"`
	Arm       string `json:"arm,omitempty"`
	MajorBand *int   `json:"majorBand,omitempty"`
	MinorBand *int   `json:"minorBand,omitempty"`
}

// IsCytoband reports whether the position uses cytoband coordinates.
func (p *Position) IsCytoband() bool {
	return p != nil && p.Class == ClassCytobandPosition
}

// String renders the position for notation building. Unspecified coordinates
// render as "?".
func (p *Position) String() string {
	if p == nil {
		return "?"
	}
	if p.IsCytoband() {
		s := p.Arm
		if p.MajorBand != nil {
			s += strconv.Itoa(*p.MajorBand)
			if p.MinorBand != nil {
				s += "." + strconv.Itoa(*p.MinorBand)
			}
		}
		return s
	}
	if p.Pos == nil {
		return "?"
	}
	return strconv.Itoa(*p.Pos)
}

// prefixByClass maps position classes to their HGVS-like coordinate prefix.
var prefixByClass = map[string]string{
	ClassGenomicPosition:  "g",
	ClassCdsPosition:      "c",
	ClassProteinPosition:  "p",
	ClassExonicPosition:   "e",
	ClassIntronicPosition: "i",
	ClassRnaPosition:      "r",
	ClassCytobandPosition: "y",
}

// PrefixForClass returns the coordinate prefix (g, c, p, e, i, r, y) for a
// position class, or "" for an unknown class.
func PrefixForClass(class string) string {
	return prefixByClass[class]
}

// BasicPosition builds a basic position of the given class.
func BasicPosition(class string, pos int) *Position {
	return &Position{Class: class, Pos: &pos}
}

// UnspecifiedPosition builds a basic position with no coordinate.
func UnspecifiedPosition(class string) *Position {
	return &Position{Class: class}
}
