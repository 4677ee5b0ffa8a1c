package scene

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/matt-g-everett/ledahead/util"
)

// Value is a number in a scene document. It is either a plain scalar or a
// {from, to, ease} mapping animated across the frame window.
type Value struct {
	From float64 `yaml:"from"`
	To   float64 `yaml:"to"`
	Ease string  `yaml:"ease"`

	set bool
}

// Const returns a Value that does not change over time.
func Const(v float64) Value {
	return Value{From: v, To: v, set: true}
}

// Animate returns a Value moving from one number to another across the
// scene, shaped by the named easing.
func Animate(from, to float64, ease string) Value {
	return Value{From: from, To: to, Ease: ease, set: true}
}

// IsSet reports whether the value was given at all. A zero Value is unset.
func (v Value) IsSet() bool {
	return v.set || v.From != 0 || v.To != 0 || v.Ease != ""
}

// IsAnimated reports whether the value changes over the scene.
func (v Value) IsAnimated() bool {
	return v.IsSet() && (v.From != v.To || v.Ease != "")
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var f float64
		if err := node.Decode(&f); err != nil {
			return err
		}
		*v = Const(f)
		return nil
	case yaml.MappingNode:
		type plain Value
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		if _, err := util.Ease(p.Ease); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*v = Value(p)
		v.set = true
		return nil
	default:
		return fmt.Errorf("line %d: value must be a number or a from/to mapping", node.Line)
	}
}

// animated is a compiled Value.
type animated struct {
	from, to float64
	ease     util.EaseFunc
}

// valueCompiler compiles Values, keeping the first error.
type valueCompiler struct {
	err error
}

func (c *valueCompiler) compile(name string, v Value, def float64) animated {
	if !v.IsSet() {
		return animated{from: def, to: def}
	}
	fn, err := util.Ease(v.Ease)
	if err != nil {
		if c.err == nil {
			c.err = fmt.Errorf("%s: %w", name, err)
		}
		return animated{from: v.From, to: v.From}
	}
	return animated{from: v.From, to: v.To, ease: fn}
}

// at returns the value at progress p in [0, 1].
func (a animated) at(p float64) float64 {
	if a.from == a.to || a.ease == nil {
		return a.from
	}
	return a.from + (a.to-a.from)*a.ease(p)
}
