package media

// The three fixed photo positions an analysis requires. Slots are never
// reordered; removal leaves the others in place.
const (
	SlotFront = iota
	SlotRightProfile
	SlotLeftProfile
	SlotCount
)

type SlotSet [SlotCount]NormalizedImage

func (s SlotSet) Filled() int {
	count := 0
	for _, img := range s {
		if !img.Empty() {
			count++
		}
	}
	return count
}

// Complete reports whether all three slots hold an image; a downstream
// analysis request is permitted only then.
func (s SlotSet) Complete() bool {
	return s.Filled() == SlotCount
}

// AssignToSlots fills a slot set with newly normalized images. With a target
// index the first image replaces exactly that slot regardless of prior
// occupancy (the "replace this exact slot" picker). Without one, images fill
// the lowest-indexed empty slots left to right; filled slots are untouched
// and excess images are dropped (the bulk picker). target must be a valid
// slot index when non-nil.
func AssignToSlots(existing SlotSet, images []NormalizedImage, target *int) SlotSet {
	result := existing
	if len(images) == 0 {
		return result
	}

	if target != nil {
		result[*target] = images[0]
		return result
	}

	cursor := 0
	for i := 0; i < SlotCount && cursor < len(images); i++ {
		if result[i].Empty() {
			result[i] = images[cursor]
			cursor++
		}
	}
	return result
}

// MergeSlots fills base's empty slots from extra, position by position. Base's
// own assignments always win; extra's leftovers are discarded. Used when an
// anonymous intake is adopted onto an account at sign-in.
func MergeSlots(base, extra SlotSet) SlotSet {
	result := base
	for i := range result {
		if result[i].Empty() {
			result[i] = extra[i]
		}
	}
	return result
}

// RemoveSlot empties one slot without shifting the others.
func RemoveSlot(slots SlotSet, index int) SlotSet {
	result := slots
	result[index] = ""
	return result
}
