// Package wizard holds the client-side state machine behind the four-step
// record creation flow: data type, input method, data entry, verification.
package wizard

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"

	"github.com/and161185/family-office/internal/model"
)

// Step is a wizard phase. Steps are ordered; only selections move forward.
type Step int

const (
	StepSelectDataType Step = iota
	StepSelectInputMethod
	StepEnterData
	StepVerify
)

// Valid reports whether s is one of the four known steps.
func (s Step) Valid() bool { return s >= StepSelectDataType && s <= StepVerify }

func (s Step) String() string {
	switch s {
	case StepSelectDataType:
		return "select-data-type"
	case StepSelectInputMethod:
		return "select-input-method"
	case StepEnterData:
		return "enter-data"
	case StepVerify:
		return "verify"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// InputMethod is how the user supplies record data.
type InputMethod string

const (
	InputManual InputMethod = "manual"
	InputUpload InputMethod = "upload"
	InputAI     InputMethod = "ai"
)

// Valid reports whether m is a known input method.
func (m InputMethod) Valid() bool {
	switch m {
	case InputManual, InputUpload, InputAI:
		return true
	}
	return false
}

// State is the full wizard state. Empty DataType/InputMethod mean unset.
type State struct {
	CurrentStep         Step
	SelectedDataType    model.ResourceType
	SelectedInputMethod InputMethod
	FormData            map[string]any
	IsDirty             bool
}

// Initial returns the state a fresh or reset wizard starts in.
func Initial() State {
	return State{CurrentStep: StepSelectDataType, FormData: map[string]any{}}
}

func (s State) clone() State {
	s.FormData = maps.Clone(s.FormData)
	if s.FormData == nil {
		s.FormData = map[string]any{}
	}
	return s
}

// wireState is the persisted JSON shape; unset selections are null.
type wireState struct {
	CurrentStep         int            `json:"currentStep"`
	SelectedDataType    *string        `json:"selectedDataType"`
	SelectedInputMethod *string        `json:"selectedInputMethod"`
	FormData            map[string]any `json:"formData"`
	IsDirty             bool           `json:"isDirty"`
}

func encodeState(s State) ([]byte, error) {
	w := wireState{CurrentStep: int(s.CurrentStep), FormData: s.FormData, IsDirty: s.IsDirty}
	if w.FormData == nil {
		w.FormData = map[string]any{}
	}
	if s.SelectedDataType != "" {
		v := string(s.SelectedDataType)
		w.SelectedDataType = &v
	}
	if s.SelectedInputMethod != "" {
		v := string(s.SelectedInputMethod)
		w.SelectedInputMethod = &v
	}
	return json.Marshal(w)
}

// decodeState never fails: the blob carries no schema version, so every field
// is read on its own and anything unrecognised falls back to its initial value.
func decodeState(blob []byte) State {
	st := Initial()
	var raw map[string]any
	if len(blob) == 0 || json.Unmarshal(blob, &raw) != nil || raw == nil {
		return st
	}
	if n, ok := raw["currentStep"].(float64); ok && n == math.Trunc(n) && Step(n).Valid() {
		st.CurrentStep = Step(n)
	}
	if v, ok := raw["selectedDataType"].(string); ok && model.ResourceType(v).Valid() {
		st.SelectedDataType = model.ResourceType(v)
	}
	if v, ok := raw["selectedInputMethod"].(string); ok && InputMethod(v).Valid() {
		st.SelectedInputMethod = InputMethod(v)
	}
	if v, ok := raw["formData"].(map[string]any); ok {
		st.FormData = v
	}
	if v, ok := raw["isDirty"].(bool); ok {
		st.IsDirty = v
	}
	return st
}
