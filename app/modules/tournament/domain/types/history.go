package tabtypes

import "fmt"

// Slot is a team's place in a debate.
type Slot struct {
	Side int
	Seq  int
}

// SlotIndex orders slots the way the draw engine enumerates them:
// opening government, opening opposition, closing government, closing
// opposition. For one team per side only the first two exist.
func SlotIndex(s Slot) int { return s.Seq*2 + s.Side }

// SlotAt inverts SlotIndex.
func SlotAt(i int) Slot { return Slot{Side: i % 2, Seq: i / 2} }

// OneOnOne counts proposition and opposition appearances.
type OneOnOne struct {
	Aff int
	Neg int
}

// BP counts appearances in each British Parliamentary position.
type BP struct {
	OG int
	OO int
	CG int
	CO int
}

// PositionHistory is how often a team has held each slot. Exactly one of
// the variants is set, matching the tournament's teams per side.
type PositionHistory struct {
	OneOnOne *OneOnOne
	BP       *BP
}

// NewPositionHistory returns an empty history for the given format.
func NewPositionHistory(teamsPerSide int) (PositionHistory, error) {
	switch teamsPerSide {
	case 1:
		return PositionHistory{OneOnOne: &OneOnOne{}}, nil
	case 2:
		return PositionHistory{BP: &BP{}}, nil
	default:
		return PositionHistory{}, fmt.Errorf("unsupported teams per side %d", teamsPerSide)
	}
}

// Record adds one appearance in slot s.
func (h PositionHistory) Record(s Slot) {
	switch {
	case h.OneOnOne != nil:
		if s.Side == SideProposition {
			h.OneOnOne.Aff++
		} else {
			h.OneOnOne.Neg++
		}
	case h.BP != nil:
		switch SlotIndex(s) {
		case 0:
			h.BP.OG++
		case 1:
			h.BP.OO++
		case 2:
			h.BP.CG++
		case 3:
			h.BP.CO++
		}
	}
}

// Counts returns the history in slot index order.
func (h PositionHistory) Counts() []int {
	switch {
	case h.OneOnOne != nil:
		return []int{h.OneOnOne.Aff, h.OneOnOne.Neg}
	case h.BP != nil:
		return []int{h.BP.OG, h.BP.OO, h.BP.CG, h.BP.CO}
	default:
		return nil
	}
}
