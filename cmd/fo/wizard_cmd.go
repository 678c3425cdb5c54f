package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/and161185/family-office/internal/model"
	"github.com/and161185/family-office/internal/service"
	"github.com/and161185/family-office/internal/wizard"
)

type wizardView struct {
	Step        string         `json:"step"`
	StepIndex   int            `json:"stepIndex"`
	DataType    string         `json:"dataType,omitempty"`
	InputMethod string         `json:"inputMethod,omitempty"`
	FormData    map[string]any `json:"formData"`
	Dirty       bool           `json:"dirty"`
}

func viewOf(s wizard.State) wizardView {
	return wizardView{
		Step:        s.CurrentStep.String(),
		StepIndex:   int(s.CurrentStep),
		DataType:    string(s.SelectedDataType),
		InputMethod: string(s.SelectedInputMethod),
		FormData:    s.FormData,
		Dirty:       s.IsDirty,
	}
}

// wizard mounts the persisted machine, applies one transition and prints the result.
func (a *app) wizard(ctx context.Context, args []string) error {
	m := wizard.New(wizard.FileStore{Dir: a.dir}, a.log)
	st := m.Mount()
	if len(args) == 0 {
		args = []string{"show"}
	}

	need := func(n int) error {
		if len(args)-1 < n {
			return fmt.Errorf("wizard %s needs %d argument(s)", args[0], n)
		}
		return nil
	}

	var err error
	switch args[0] {
	case "show":
	case "type":
		if err = need(1); err == nil {
			err = m.SetDataType(model.ResourceType(args[1]))
		}
	case "method":
		if err = need(1); err == nil {
			err = m.SetInputMethod(wizard.InputMethod(args[1]))
		}
	case "set":
		if err = need(1); err != nil {
			break
		}
		if st.CurrentStep != wizard.StepEnterData {
			err = fmt.Errorf("form data is entered at step %s, wizard is at %s", wizard.StepEnterData, st.CurrentStep)
			break
		}
		var partial map[string]any
		if partial, err = parsePairs(args[1:]); err == nil {
			m.UpdateFormData(partial)
		}
	case "back":
		if st.CurrentStep == wizard.StepSelectDataType {
			err = errors.New("already at the first step")
			break
		}
		err = m.SetStep(st.CurrentStep - 1)
	case "review":
		switch {
		case st.CurrentStep != wizard.StepEnterData:
			err = fmt.Errorf("review follows step %s, wizard is at %s", wizard.StepEnterData, st.CurrentStep)
		case len(st.FormData) == 0:
			err = errors.New("no form data yet (wizard set k=v)")
		default:
			err = m.SetStep(wizard.StepVerify)
		}
	case "reset":
		m.Reset()
	case "submit":
		if err = m.ReadyToSubmit(); err != nil {
			break
		}
		var created any
		if created, err = a.submit(ctx, m.State()); err == nil {
			m.Reset()
			a.printJSON(map[string]any{"created": created})
			return nil
		}
	default:
		return fmt.Errorf("unknown wizard command %q", args[0])
	}
	if err != nil {
		return err
	}
	a.printJSON(viewOf(m.State()))
	return nil
}

func parsePairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("want key=value, got %q", p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

// formFields flattens wizard form data into the string form the API accepts.
func formFields(data map[string]any) service.Fields {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(service.Fields, len(data))
	for _, k := range keys {
		switch v := data[k].(type) {
		case nil:
		case string:
			out[k] = v
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

func (a *app) submit(ctx context.Context, s wizard.State) (any, error) {
	team, err := a.teamID(ctx)
	if err != nil {
		return nil, err
	}
	var created map[string]any
	path := "/api/teams/" + team + "/" + string(s.SelectedDataType)
	if err := a.client.do(ctx, "POST", path, formFields(s.FormData), &created); err != nil {
		return nil, err
	}
	return created, nil
}
