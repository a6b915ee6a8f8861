package location

import "fmt"

// walk follows path from root, one array index per step. When a step cannot be
// taken (the container is not an array, or is too short) the returned error names
// the index chain up to and including the failing step, and carries a rendering
// of the container that was encountered there.
func walk(root Value, path Path) (Value, *MalformedError) {
	current := root
	for depth, index := range path {
		next, ok := current.Index(index)
		if !ok {
			step := path[:depth+1]
			return Value{}, malformed(step, fmt.Sprintf("missing %s", step), current.Render())
		}
		current = next
	}
	return current, nil
}
