package bytecode

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("volt.bytecode")

// CompilePort turns script source into engine bytecode. The subprocess
// client is the production implementation; cache wrappers and in-process
// compilers can substitute without touching callers.
type CompilePort interface {
	Compile(ctx context.Context, source string) ([]byte, error)
}

// hostScript runs inside the engine binary as a headless Node host. It
// reads the whole of stdin as source, compiles it with cached-data
// production enabled, and writes the raw cache buffer to stdout.
const hostScript = `const vm = require("vm");
const v8 = require("v8");
v8.setFlagsFromString("--no-lazy");
v8.setFlagsFromString("--no-flush-bytecode");
let source = "";
process.stdin.setEncoding("utf-8");
process.stdin.on("data", (data) => { source += data; });
process.stdin.on("end", () => {
  const script = new vm.Script(source, { produceCachedData: true });
  const buffer = typeof script.createCachedData === "function"
    ? script.createCachedData()
    : script.cachedData;
  process.stdout.write(buffer);
});
`

// Compiler compiles scripts by spawning the target engine binary, one
// process per call. Source goes to stdin, bytecode comes back on stdout,
// and stderr lines are logged as diagnostics. Any exit status resolves
// with whatever stdout carried; only a failure to spawn is an error. No
// timeout is applied here; callers wanting one pass a context with a
// deadline.
type Compiler struct {
	// ElectronPath is the engine binary of the exact build that will load
	// the bytecode.
	ElectronPath string

	// Env entries appended to the subprocess environment.
	Env []string
}

// Compile implements CompilePort.
func (c *Compiler) Compile(ctx context.Context, source string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.ElectronPath, "-e", hostScript)
	cmd.Env = append(os.Environ(), "ELECTRON_RUN_AS_NODE=1")
	cmd.Env = append(cmd.Env, c.Env...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("bytecode: compiler stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("bytecode: compiler stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("bytecode: compiler stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("bytecode: spawning %s: %w", c.ElectronPath, err)
	}

	go func() {
		io.WriteString(stdin, source)
		stdin.Close()
	}()
	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Infof("compiler: %s", scanner.Text())
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, stdout); err != nil {
		log.Warningf("compiler output truncated: %v", err)
	}

	// Both pipes must be fully drained before Wait closes them, or
	// trailing diagnostic lines get dropped.
	<-stderrDone

	// Nonzero exit still resolves: partial output is usable and the
	// diagnostics already went to the log.
	if err := cmd.Wait(); err != nil {
		log.Warningf("compiler exited abnormally: %v", err)
	}
	return buf.Bytes(), nil
}
