package types

import "github.com/google/uuid"

// VariableBinding is a named configuration value injected into a deployed
// target at push time. A template's working set is an ordered sequence of
// bindings, unique by key.
type VariableBinding struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// UpsertBinding replaces the value of an existing key or appends a new binding,
// preserving the order of the set.
func UpsertBinding(set []VariableBinding, key, value string) []VariableBinding {
	for i := range set {
		if set[i].Key == key {
			set[i].Value = value
			return set
		}
	}
	return append(set, VariableBinding{Key: key, Value: value})
}

// FindBinding returns the binding for the given key, or nil if absent.
func FindBinding(set []VariableBinding, key string) *VariableBinding {
	for i := range set {
		if set[i].Key == key {
			return &set[i]
		}
	}
	return nil
}

// DefaultBindings builds the initial working set for a template: the secret
// variable is seeded with a fresh random identifier, every other recognized
// variable defaults to empty.
func DefaultBindings(tmpl *ProjectTemplate) []VariableBinding {
	set := make([]VariableBinding, 0, len(tmpl.DefaultVars))
	for _, key := range tmpl.DefaultVars {
		value := ""
		if key == tmpl.SecretVar {
			value = uuid.NewString()
		}
		set = append(set, VariableBinding{Key: key, Value: value})
	}
	return set
}
