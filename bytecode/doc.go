// Package bytecode implements the bytecode protection pipeline: selected
// chunks of bundled output are compiled into engine-specific precompiled
// bytecode, loaded at runtime through a small loader shim instead of being
// shipped as readable source.
//
// The pipeline is a bundle.Plugin. Per build it runs five ordered phases:
//
//   - Selection: chunks matching the configured alias set (or every chunk,
//     when the set is empty) are marked for compilation. Selection is sticky
//     for the life of the build.
//
//   - Transformation: arrow functions in selected chunks are rewritten to
//     ordinary function expressions before compilation. Some engine builds
//     mishandle cached bytecode for certain arrow forms; normalizing avoids
//     invalid-cache rejection at load time.
//
//   - Compilation: each selected chunk is compiled by a companion process
//     of the exact target engine build, one subprocess per chunk, source on
//     stdin and raw bytecode on stdout. Compilations for different chunks
//     run concurrently.
//
//   - Rewriting: literal references to compiled chunk file names in every
//     chunk are renamed to the bytecode artifact names (original name plus
//     a trailing "c"), and entries that transitively depend on a compiled
//     chunk get the loader required ahead of anything else.
//
//   - Emission: the bytecode artifacts, entry stubs, and the loader shim
//     are written to the output directory; originals are removed or kept as
//     renamed backups per configuration.
//
// Bytecode is not portable across engine builds. The loader shim patches
// the flag-hash header of each artifact with bytes taken from a one-time
// reference compilation in the running engine, which is what makes
// out-of-process compilation viable. A cache rejection at load time is
// unrecoverable and surfaces as a module load failure.
package bytecode
