package vm

// CoreModuleName is the name of the module holding the machine's own opcodes.
const CoreModuleName = "VM"

// CoreModule returns the built-in opcodes: control flow, threads, missions,
// variable arithmetic, comparisons and random numbers. Gameplay modules are
// installed after it and may override any of its IDs.
func CoreModule() *Module {
	m := NewModule(CoreModuleName)
	registerControlOpcodes(m)
	registerThreadOpcodes(m)
	registerMathOpcodes(m)
	registerCompareOpcodes(m)
	registerRandomOpcodes(m)
	return m
}
