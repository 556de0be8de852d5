package model

import "ai-reel-studio/internal/domain"

// SceneSlot identifies one of the four fixed positions in a vertical ad.
type SceneSlot string

const (
	SlotHeroReveal   SceneSlot = "scene1" // hero reveal
	SlotSideGeometry SceneSlot = "scene2" // side geometry
	SlotOrbit        SceneSlot = "scene3" // 3D orbit / depth
	SlotDetail       SceneSlot = "scene4" // detail close-up
)

// SceneSlots is the fixed generation order. Slots are always processed
// strictly one after another, never in parallel.
var SceneSlots = []SceneSlot{SlotHeroReveal, SlotSideGeometry, SlotOrbit, SlotDetail}

func ParseSceneSlot(s string) (SceneSlot, error) {
	for _, slot := range SceneSlots {
		if string(slot) == s {
			return slot, nil
		}
	}
	return "", domain.ErrInvalidArgument
}

// SceneJob is one image+prompt generation request. Immutable once submitted;
// OutputPath is written only when the vendor reports success.
type SceneJob struct {
	Slot       SceneSlot
	Prompt     string
	ImagePath  string
	OutputPath string
}

type SceneStatus string

const (
	SceneStatusPending   SceneStatus = "pending"
	SceneStatusSuccess   SceneStatus = "success"
	SceneStatusExhausted SceneStatus = "exhausted"
	SceneStatusSkipped   SceneStatus = "skipped"
)

// SceneOutcome is the final verdict for one slot. A slot never transitions
// back to pending once decided.
type SceneOutcome struct {
	Slot       SceneSlot   `json:"scene"`
	Status     SceneStatus `json:"status"`
	OutputPath string      `json:"output_file,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func (o SceneOutcome) Succeeded() bool { return o.Status == SceneStatusSuccess }

// SuccessfulOutcomes filters outcomes down to the slots the merge step may
// consume, preserving slot order.
func SuccessfulOutcomes(outcomes []SceneOutcome) []SceneOutcome {
	ok := make([]SceneOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Succeeded() {
			ok = append(ok, o)
		}
	}
	return ok
}
