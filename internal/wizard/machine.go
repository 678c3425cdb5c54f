package wizard

import (
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/and161185/family-office/internal/errs"
	"github.com/and161185/family-office/internal/model"
)

// StorageKey names the persisted wizard blob.
const StorageKey = "wizard-storage"

// Persistence is a key-value blob store. Load returns (nil, nil) for a missing key.
type Persistence interface {
	Load(key string) ([]byte, error)
	Save(key string, blob []byte) error
}

// Machine owns the wizard state and writes every mutation through Persistence.
// It is not safe for concurrent use; the wizard is driven from a single UI loop.
type Machine struct {
	state State
	store Persistence
	log   *zap.Logger
}

// New constructs a machine in the initial state. Call Mount to hydrate it.
func New(store Persistence, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{state: Initial(), store: store, log: log}
}

// State returns a copy of the current state.
func (m *Machine) State() State { return m.state.clone() }

// Mount loads the persisted state and applies the consistency rule: a step past
// the first without a selected data type is reset to the first step.
func (m *Machine) Mount() State {
	if m.store != nil {
		blob, err := m.store.Load(StorageKey)
		if err != nil {
			m.log.Warn("wizard state unreadable, starting fresh", zap.Error(err))
		}
		m.state = decodeState(blob)
	}
	if m.state.SelectedDataType == "" && m.state.CurrentStep > StepSelectDataType {
		m.log.Info("wizard step without data type, restarting", zap.Stringer("step", m.state.CurrentStep))
		m.state.CurrentStep = StepSelectDataType
		m.persist()
	}
	return m.State()
}

// SetDataType selects the record type and advances to input method selection.
func (m *Machine) SetDataType(t model.ResourceType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown data type %q", errs.ErrValidation, t)
	}
	if m.state.CurrentStep != StepSelectDataType {
		return fmt.Errorf("%w: data type is chosen at step %s, wizard is at %s", errs.ErrValidation, StepSelectDataType, m.state.CurrentStep)
	}
	m.state.SelectedDataType = t
	m.state.CurrentStep = StepSelectInputMethod
	m.persist()
	return nil
}

// SetInputMethod selects the input method and advances to data entry.
func (m *Machine) SetInputMethod(im InputMethod) error {
	if !im.Valid() {
		return fmt.Errorf("%w: unknown input method %q", errs.ErrValidation, im)
	}
	if m.state.CurrentStep != StepSelectInputMethod {
		return fmt.Errorf("%w: input method is chosen at step %s, wizard is at %s", errs.ErrValidation, StepSelectInputMethod, m.state.CurrentStep)
	}
	m.state.SelectedInputMethod = im
	m.state.CurrentStep = StepEnterData
	m.persist()
	return nil
}

// UpdateFormData merges partial into the accumulated form data and marks the state dirty.
func (m *Machine) UpdateFormData(partial map[string]any) {
	if m.state.FormData == nil {
		m.state.FormData = map[string]any{}
	}
	maps.Copy(m.state.FormData, partial)
	m.state.IsDirty = true
	m.persist()
}

// SetStep jumps to any step. Used by back navigation and Mount.
func (m *Machine) SetStep(s Step) error {
	if !s.Valid() {
		return fmt.Errorf("%w: step %d out of range", errs.ErrValidation, int(s))
	}
	m.state.CurrentStep = s
	m.persist()
	return nil
}

// Reset returns the machine to the initial state.
func (m *Machine) Reset() {
	m.state = Initial()
	m.persist()
}

// ReadyToSubmit reports whether the wizard holds a complete, verified record.
func (m *Machine) ReadyToSubmit() error {
	switch {
	case m.state.CurrentStep != StepVerify:
		return fmt.Errorf("%w: wizard is at %s, not %s", errs.ErrValidation, m.state.CurrentStep, StepVerify)
	case m.state.SelectedDataType == "":
		return fmt.Errorf("%w: no data type selected", errs.ErrValidation)
	case m.state.SelectedInputMethod == "":
		return fmt.Errorf("%w: no input method selected", errs.ErrValidation)
	case len(m.state.FormData) == 0:
		return fmt.Errorf("%w: no form data", errs.ErrValidation)
	}
	return nil
}

// persist is fire-and-forget: a lost write costs at most one mutation.
func (m *Machine) persist() {
	if m.store == nil {
		return
	}
	blob, err := encodeState(m.state)
	if err != nil {
		m.log.Warn("wizard state encode", zap.Error(err))
		return
	}
	if err := m.store.Save(StorageKey, blob); err != nil {
		m.log.Warn("wizard state save", zap.Error(err))
	}
}
