package scene

// ActorsByType returns every actor of s whose dynamic type is T, in ascending ID order.
//
// Parameters:
//   - s: the scene to search
//
// Returns:
//   - []T: the matching actors
func ActorsByType[T Actor](s Scene) []T {
	var out []T
	for _, a := range s.Actors() {
		if t, ok := a.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// ComponentsByType returns every live component of s whose dynamic type is T, in registration order.
//
// Parameters:
//   - s: the scene to search
//
// Returns:
//   - []T: the matching components
func ComponentsByType[T Component](s Scene) []T {
	var out []T
	for _, c := range s.Components() {
		if t, ok := c.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

// ComponentByType returns the first component attached to a whose dynamic type is T.
//
// Parameters:
//   - a: the actor to search
//
// Returns:
//   - T: the component, or the zero value
//   - bool: true if a component was found
func ComponentByType[T Component](a Actor) (T, bool) {
	for _, c := range a.base().components {
		if t, ok := c.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}
