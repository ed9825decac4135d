package flexus

import "fmt"

// Stage identifies when a callback fires relative to the codec work of one
// field or schema.
type Stage uint8

const (
	StagePreEncode Stage = iota
	StagePostEncode
	StagePreDecode
	StagePostDecode

	stageCount
)

func (s Stage) String() string {
	switch s {
	case StagePreEncode:
		return "pre_encode"
	case StagePostEncode:
		return "post_encode"
	case StagePreDecode:
		return "pre_decode"
	case StagePostDecode:
		return "post_decode"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// HookMode controls what happens to a callback's return value.
type HookMode uint8

const (
	// PassThrough runs the callback for its side effects and keeps the
	// original payload. The callback's value result is discarded; its error
	// still aborts the pass.
	PassThrough HookMode = iota
	// Replace substitutes the callback's result as the stage payload.
	Replace
)

// HookFunc is a stage callback. The payload is the stage value: the value
// about to be encoded on StagePreEncode, the produced bytes on
// StagePostEncode, the raw window on StagePreDecode, the decoded value on
// StagePostDecode. Cross-field effects happen by closing over the owning
// *Schema and touching siblings through it.
type HookFunc func(v any) (any, error)

type hook struct {
	fn   HookFunc
	mode HookMode
}

type hookSet [stageCount]hook

func (h *hookSet) set(stage Stage, fn HookFunc, mode HookMode) error {
	if stage >= stageCount {
		return fmt.Errorf("unknown hook stage %d", uint8(stage))
	}
	h[stage] = hook{fn: fn, mode: mode}
	return nil
}

func (h *hookSet) active(stage Stage) bool {
	return stage < stageCount && h[stage].fn != nil
}

// fire runs the callback at stage, if any. It returns the payload to carry
// forward and whether it was replaced.
func (h *hookSet) fire(stage Stage, v any) (any, bool, error) {
	hk := h[stage]
	if hk.fn == nil {
		return v, false, nil
	}
	out, err := hk.fn(v)
	if err != nil {
		return nil, false, err
	}
	if hk.mode == Replace {
		return out, true, nil
	}
	return v, false, nil
}
