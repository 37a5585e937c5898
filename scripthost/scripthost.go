// Package scripthost declares the Lua execution collaborator contract.
// Bytecode decompilation and execution are out of scope for this library
// (the Playdate runtime owns both); Host exists only so the archive's
// import-hook bookkeeping has something concrete to accept and pass
// through.
package scripthost

// Host executes decoded Lua bytecode and exposes named callables to it.
// The archive calls Execute at most once per bytecode entry per load.
type Host interface {
	Execute(bytecode []byte, args ...interface{}) error
	SetGlobal(name string, callable interface{})
}
