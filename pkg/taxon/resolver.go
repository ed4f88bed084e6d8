// Package taxon resolves organism names to NCBI taxonomy IDs.
package taxon

// Resolver maps an organism name to a taxonomy ID. Unknown names are not
// errors: Resolve reports ok=false.
type Resolver interface {
	Resolve(name string) (id int, ok bool)
}

// None resolves nothing.
type None struct{}

// Resolve never finds a name.
func (None) Resolve(string) (int, bool) { return 0, false }

// Static resolves names from a fixed table.
type Static map[string]int

// Resolve looks the name up in the map.
func (s Static) Resolve(name string) (int, bool) {
	id, ok := s[name]
	return id, ok
}

// Func adapts a function to the Resolver interface.
type Func func(name string) (int, bool)

// Resolve calls f(name).
func (f Func) Resolve(name string) (int, bool) { return f(name) }
