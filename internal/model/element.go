package model

// ElementKind classifies the addressable nodes of a source tree. The
// vocabulary is language-neutral; a language backend maps its declarations
// onto it and may leave some kinds unused.
type ElementKind string

const (
	// KindFile addresses a whole source file.
	KindFile ElementKind = "file"
	// KindClass represents a concrete type declaration (a struct in Go).
	KindClass ElementKind = "class"
	// KindInterface represents an interface declaration.
	KindInterface ElementKind = "interface"
	// KindObject represents a singleton object declaration.
	KindObject ElementKind = "object"
	// KindFunction represents a function, method, or member signature.
	KindFunction ElementKind = "function"
	// KindProperty represents a variable, field, or property.
	KindProperty ElementKind = "property"
	// KindConstant represents a constant declaration.
	KindConstant ElementKind = "constant"
	// KindConstructor represents an explicit constructor declaration.
	KindConstructor ElementKind = "constructor"

	// KindInit is the bare keyword for anonymous initializer blocks
	// (init functions in Go).
	KindInit ElementKind = "init"
	// KindCompanion is the bare keyword for anonymous companion containers.
	KindCompanion ElementKind = "companion"
)

// bareKeywords is the closed set of segments that serialize without a name.
var bareKeywords = map[ElementKind]struct{}{
	KindInit:      {},
	KindCompanion: {},
}

// bracketedKinds is the closed set of kinds that serialize as `kind[name]`.
var bracketedKinds = map[ElementKind]struct{}{
	KindClass:       {},
	KindInterface:   {},
	KindObject:      {},
	KindFunction:    {},
	KindProperty:    {},
	KindConstant:    {},
	KindConstructor: {},
}

// BareKeyword reports whether the kind belongs to the closed set of bare
// keyword segments.
func (k ElementKind) BareKeyword() bool {
	_, ok := bareKeywords[k]
	return ok
}

// Known reports whether the kind belongs to the canonical vocabulary.
func (k ElementKind) Known() bool {
	if _, ok := bracketedKinds[k]; ok {
		return true
	}

	return k.BareKeyword()
}

// Parameter is one declared parameter of a function-like element.
type Parameter struct {
	Name string
	Type string
}

// CodeElement is an immutable semantic snapshot of a resolved node plus
// derived metadata, used for display and context. It is produced by the
// language backend's mapper and is never re-derived automatically after a
// mutation; callers must re-snapshot when they need fresh metadata.
type CodeElement struct {
	Path       Path
	Kind       ElementKind
	Name       string
	Modifiers  []string
	Supertypes []string
	Parameters []Parameter
	ReturnType string
	Text       string
	StartLine  int
	EndLine    int
}
