package input

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is wrapped by every validation failure of an input document.
var ErrInvalidDocument = errors.New("input: invalid document")

const (
	KindButton = "button"
	KindAxis   = "axis"
)

// Document is the persisted form of a set of input bindings.
type Document struct {
	Actions []ActionDocument `yaml:"actions"`
}

// ActionDocument describes one named action. Button actions list their buttons; axis actions in
// BUTTONS mode list four buttons and in AXES mode two axes.
type ActionDocument struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Type    string   `yaml:"type"`
	Buttons []Button `yaml:"buttons,omitempty"`
	Axes    []Axis   `yaml:"axes,omitempty"`
}

// ReadDocument decodes the input document stored at path.
//
// Parameters:
//   - path: file system path of the YAML document
//
// Returns:
//   - *Document: the decoded document
//   - error: an open or decode error
func ReadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("input: open %s: %w", path, err)
	}
	defer f.Close()

	var doc Document
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("input: decode %s: %w", path, err)
	}
	return &doc, nil
}

// WriteDocument encodes doc to path, creating parent directories as needed.
//
// Parameters:
//   - path: destination file
//   - doc: the document to write
//
// Returns:
//   - error: a create, encode or close error
func WriteDocument(path string, doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("input: create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("input: create %s: %w", path, err)
	}

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		f.Close()
		return fmt.Errorf("input: encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Build constructs the action the document describes.
//
// Returns:
//   - Action: the new action with no callbacks bound
//   - error: an error wrapping ErrInvalidDocument
func (d ActionDocument) Build() (Action, error) {
	switch d.Kind {
	case KindButton:
		var mode ButtonMode
		if err := mode.UnmarshalText([]byte(d.Type)); err != nil {
			return nil, fmt.Errorf("%w: action %q: %v", ErrInvalidDocument, d.Name, err)
		}
		if len(d.Axes) > 0 {
			return nil, fmt.Errorf("%w: button action %q lists axes", ErrInvalidDocument, d.Name)
		}
		return NewButtonAction(mode, d.Buttons...), nil
	case KindAxis:
		var mode AxisMode
		if err := mode.UnmarshalText([]byte(d.Type)); err != nil {
			return nil, fmt.Errorf("%w: action %q: %v", ErrInvalidDocument, d.Name, err)
		}
		switch mode {
		case Buttons:
			if len(d.Buttons) != 4 || len(d.Axes) > 0 {
				return nil, fmt.Errorf("%w: axis action %q in BUTTONS mode needs exactly 4 buttons", ErrInvalidDocument, d.Name)
			}
			return NewButtonsAxisAction(d.Buttons[0], d.Buttons[1], d.Buttons[2], d.Buttons[3]), nil
		default:
			if len(d.Axes) != 2 || len(d.Buttons) > 0 {
				return nil, fmt.Errorf("%w: axis action %q in AXES mode needs exactly 2 axes", ErrInvalidDocument, d.Name)
			}
			return NewAxesAction(d.Axes[0], d.Axes[1]), nil
		}
	default:
		return nil, fmt.Errorf("%w: action %q has unknown kind %q", ErrInvalidDocument, d.Name, d.Kind)
	}
}

func describe(name string, action Action) (ActionDocument, bool) {
	switch a := action.(type) {
	case *ButtonAction:
		return ActionDocument{Name: name, Kind: KindButton, Type: a.mode.String(), Buttons: a.Buttons()}, true
	case *AxisAction:
		d := ActionDocument{Name: name, Kind: KindAxis, Type: a.mode.String()}
		if a.mode == Buttons {
			b := a.Buttons()
			d.Buttons = b[:]
		} else {
			x := a.Axes()
			d.Axes = x[:]
		}
		return d, true
	default:
		return ActionDocument{}, false
	}
}

// inherit moves the callbacks of prev onto next when both are the same kind.
func inherit(next, prev Action) {
	switch n := next.(type) {
	case *ButtonAction:
		if p, ok := prev.(*ButtonAction); ok {
			n.callbacks = append(n.callbacks, p.callbacks...)
		}
	case *AxisAction:
		if p, ok := prev.(*AxisAction); ok {
			n.callbacks = append(n.callbacks, p.callbacks...)
		}
	}
}

func (m *managerImpl) Load() error {
	doc, err := ReadDocument(m.path)
	if err != nil {
		return err
	}
	return m.Apply(doc)
}

func (m *managerImpl) Apply(doc *Document) error {
	built := make(map[string]Action, len(doc.Actions))
	for _, ad := range doc.Actions {
		if ad.Name == "" {
			return fmt.Errorf("%w: action without a name", ErrInvalidDocument)
		}
		if _, dup := built[ad.Name]; dup {
			return fmt.Errorf("%w: action %q defined twice", ErrInvalidDocument, ad.Name)
		}
		action, err := ad.Build()
		if err != nil {
			return err
		}
		built[ad.Name] = action
	}

	prev := m.actions
	m.actions = make(map[string]Action, len(built))
	m.names = nil
	for _, ad := range doc.Actions {
		action := built[ad.Name]
		if old, ok := prev[ad.Name]; ok {
			inherit(action, old)
		}
		m.AddInput(ad.Name, action)
	}
	m.logger.Info("input bindings loaded", zap.Int("actions", len(m.actions)))
	return nil
}

func (m *managerImpl) Document() *Document {
	doc := &Document{}
	for _, name := range m.names {
		ad, ok := describe(name, m.actions[name])
		if !ok {
			m.logger.Warn("skipping input of unknown type", zap.String("name", name), zap.String("type", fmt.Sprintf("%T", m.actions[name])))
			continue
		}
		doc.Actions = append(doc.Actions, ad)
	}
	return doc
}

func (m *managerImpl) Save() error {
	return m.SaveAs(m.path)
}

func (m *managerImpl) SaveAs(path string) error {
	doc := m.Document()
	if err := WriteDocument(path, doc); err != nil {
		return err
	}
	m.path = path
	m.logger.Info("input bindings saved", zap.String("path", path), zap.Int("actions", len(doc.Actions)))
	return nil
}
