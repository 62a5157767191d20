package bytecode

import (
	"fmt"
	"path"
	"strings"
)

// LoaderFileName is the runtime shim emitted once per build that contains
// at least one compiled chunk.
const LoaderFileName = "bytecode-loader.js"

// ArtifactName returns the bytecode artifact name for a compiled chunk
// file name: the original name with a trailing "c".
func ArtifactName(fileName string) string {
	return fileName + "c"
}

// BackupName returns the name under which an original bundle file is kept
// when removal is not configured: the base name prefixed with "_".
func BackupName(fileName string) string {
	dir, base := path.Split(fileName)
	return dir + "_" + base
}

// EntryStub is the replacement source for a chunk that is both an entry
// point and compiled: it loads the shim, then the bytecode artifact. The
// require paths resolve relative to the stub's own directory; the shim
// lives at the output root, so nested entries climb back up to it.
func EntryStub(fileName string) string {
	dir, base := path.Split(fileName)
	loaderPath := "./" + LoaderFileName
	if dir != "" {
		loaderPath = strings.Repeat("../", strings.Count(dir, "/")) + LoaderFileName
	}
	return fmt.Sprintf("\"use strict\";\nrequire(\"%s\");\nrequire(\"./%s\");\n", loaderPath, ArtifactName(base))
}

// loaderRequire is the statement injected into entries that depend on a
// compiled chunk without being compiled themselves.
const loaderRequire = `require("./` + LoaderFileName + `");`

// InjectLoader replaces the chunk's strict-mode prologue with one that
// additionally requires the loader shim before anything else executes.
// The bool reports whether a prologue was found and replaced.
func InjectLoader(code string) (string, bool) {
	const prologue = `"use strict";`
	idx := strings.Index(code, prologue)
	if idx < 0 {
		return code, false
	}
	return code[:idx] + prologue + "\n" + loaderRequire + code[idx+len(prologue):], true
}

// LoaderCode is the runtime shim. It registers a module-extension handler
// for bytecode artifacts which patches the flag-hash header with bytes
// from a one-time reference compilation, rebuilds a placeholder source of
// the length recorded in the source-hash header, and executes the cached
// script with the conventional module arguments. A rejected cache is a
// fatal load error: the module cannot run and the failure propagates to
// the caller of the module system.
const LoaderCode = `"use strict";
const fs = require("fs");
const path = require("path");
const vm = require("vm");
const v8 = require("v8");
const Module = require("module");
v8.setFlagsFromString("--no-lazy");
v8.setFlagsFromString("--no-flush-bytecode");
const FLAG_HASH_OFFSET = 12;
const SOURCE_HASH_OFFSET = 8;
let referenceBytecode;
function setFlagHashHeader(bytecodeBuffer) {
  if (!referenceBytecode) {
    const script = new vm.Script("", { produceCachedData: true });
    referenceBytecode = script.createCachedData
      ? script.createCachedData()
      : script.cachedData;
  }
  referenceBytecode.slice(FLAG_HASH_OFFSET, FLAG_HASH_OFFSET + 4).copy(bytecodeBuffer, FLAG_HASH_OFFSET);
}
function getSourceHashHeader(bytecodeBuffer) {
  return bytecodeBuffer.slice(SOURCE_HASH_OFFSET, SOURCE_HASH_OFFSET + 4);
}
function buffer2Number(buffer) {
  let ret = 0;
  ret |= buffer[3] << 24;
  ret |= buffer[2] << 16;
  ret |= buffer[1] << 8;
  ret |= buffer[0];
  return ret;
}
Module._extensions[".jsc"] = function (module, filename) {
  const bytecodeBuffer = fs.readFileSync(filename);
  if (!Buffer.isBuffer(bytecodeBuffer)) {
    throw new Error("bytecode artifact is not a buffer: " + filename);
  }
  setFlagHashHeader(bytecodeBuffer);
  const length = buffer2Number(getSourceHashHeader(bytecodeBuffer));
  let placeholder = "";
  if (length > 1) {
    placeholder = "​".repeat(length - 2);
    placeholder = '"' + placeholder + '"';
  }
  const script = new vm.Script(placeholder, {
    filename: filename,
    lineOffset: 0,
    displayErrors: true,
    cachedData: bytecodeBuffer
  });
  if (script.cachedDataRejected) {
    throw new Error("invalid or incompatible bytecode (cachedDataRejected): " + filename);
  }
  const compiledWrapper = script.runInThisContext({
    filename: filename,
    lineOffset: 0,
    columnOffset: 0,
    displayErrors: true
  });
  const dirname = path.dirname(filename);
  const require = function (id) {
    return module.require(id);
  };
  require.resolve = function (request, options) {
    return Module._resolveFilename(request, module, false, options);
  };
  if (process.mainModule) {
    require.main = process.mainModule;
  }
  require.extensions = Module._extensions;
  require.cache = Module._cache;
  compiledWrapper.apply(module.exports, [
    module.exports,
    require,
    module,
    filename,
    dirname,
    process,
    global
  ]);
};
`
