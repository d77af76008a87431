/*
Package registry holds per-type tables the engines consult by name.

Field Registry:
Maps sortable field names of a model type to typed comparators. Sort
clauses name fields; the query engine resolves them here instead of
reflecting over the model:

	registry.RegisterFields(registry.FieldSet[User]{
	    "Name": func(a, b User) int { return strings.Compare(a.Name, b.Name) },
	    "Age":  func(a, b User) int { return cmp.Compare(a.Age, b.Age) },
	})

Filter Registry:
Maps filter names to predicates, so that criteria (and the continuation
tokens derived from them) can be expressed without closures:

	registry.RegisterFilter("active", func(u User) bool { return u.Active })
	registry.RegisterFilterFactory("country", func(arg string) (func(User) bool, error) {
	    return func(u User) bool { return u.Country == arg }, nil
	})

	pred, err := registry.GetFilter[User]("country:NL")

The registry is thread-safe and should be populated during initialization,
typically in init() functions.
*/
package registry
