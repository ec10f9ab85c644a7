package vm

import (
	"log/slog"

	"github.com/zurustar/scmvm/pkg/logger"
	"github.com/zurustar/scmvm/pkg/opcode"
)

// Condition is the optional boolean a handler produces.
type Condition uint8

const (
	// Unconditional handlers produce no result.
	Unconditional Condition = iota
	// ConditionFalse is a false result.
	ConditionFalse
	// ConditionTrue is a true result.
	ConditionTrue
)

// Result converts a bool into a Condition.
func Result(b bool) Condition {
	if b {
		return ConditionTrue
	}
	return ConditionFalse
}

// HandlerFunc is the signature for opcode handlers.
// Handlers receive the execution context and the decoded operands. A
// condition-producing handler returns ConditionTrue or ConditionFalse; the
// machine applies negation and if-block folding.
type HandlerFunc func(ctx *Context, args Arguments) (Condition, error)

// Entry is one registered opcode.
type Entry struct {
	ID      opcode.ID
	Handler HandlerFunc
	Shape   opcode.Shape
	Name    string
	Module  string
}

// Module is a named set of opcode bindings installed together.
type Module struct {
	name    string
	entries []Entry
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{name: name}
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.name
}

// Bind registers fn for id. Non-negative arity is a fixed operand count;
// negative arity means -arity operands followed by a list closed by the
// end-of-arguments tag.
func (m *Module) Bind(id opcode.ID, fn HandlerFunc, arity int, name string) {
	m.BindShape(id, fn, opcode.ShapeFromArity(arity), name)
}

// BindShape registers fn for id with an explicit parameter shape.
func (m *Module) BindShape(id opcode.ID, fn HandlerFunc, shape opcode.Shape, name string) {
	m.entries = append(m.entries, Entry{
		ID:      id,
		Handler: fn,
		Shape:   shape,
		Name:    name,
		Module:  m.name,
	})
}

// Entries returns the bindings in registration order.
func (m *Module) Entries() []Entry {
	return m.entries
}

// Registry maps opcode IDs to handlers. Later bindings for an ID replace
// earlier ones, both within a module and across modules.
type Registry struct {
	entries map[opcode.ID]*Entry
	modules []string
	log     *slog.Logger
}

// NewRegistry creates a registry and installs modules in order.
func NewRegistry(modules ...*Module) *Registry {
	r := &Registry{
		entries: make(map[opcode.ID]*Entry),
		log:     logger.GetLogger(),
	}
	for _, m := range modules {
		r.Install(m)
	}
	return r
}

// Install adds every binding of m, overriding existing IDs.
func (r *Registry) Install(m *Module) {
	for i := range m.entries {
		e := m.entries[i]
		if prev, ok := r.entries[e.ID]; ok && prev.Module != e.Module {
			r.log.Debug("Opcode overridden", "id", e.ID.String(), "module", e.Module, "previous", prev.Module)
		}
		r.entries[e.ID] = &e
	}
	r.modules = append(r.modules, m.name)
}

// Lookup returns the entry bound to id.
func (r *Registry) Lookup(id opcode.ID) (*Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// Len returns the number of bound IDs.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Modules returns the installed module names in installation order.
func (r *Registry) Modules() []string {
	return r.modules
}

// Context is what a handler sees of the machine while it runs.
type Context struct {
	Machine  *Machine
	Thread   *Thread
	ThreadID ThreadID
	Opcode   opcode.ID
	Offset   uint32 // offset of the instruction being executed
}

// Logger returns the machine's logger.
func (c *Context) Logger() *slog.Logger {
	return c.Machine.log
}

// Environment returns the machine's external collaborator.
func (c *Context) Environment() Environment {
	return c.Machine.env
}
