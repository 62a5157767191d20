package bytecache

import (
	"context"

	"github.com/tliron/commonlog"

	"github.com/voltbuild/volt/bytecode"
)

var log = commonlog.GetLogger("volt.bytecache")

// CachingPort wraps a compile port with the cache. Hits skip the
// subprocess entirely; misses compile through the inner port and populate
// the cache. The inner port's contract is unchanged.
type CachingPort struct {
	Port   bytecode.CompilePort
	Cache  *Cache
	Engine string
}

// Compile implements bytecode.CompilePort.
func (p *CachingPort) Compile(ctx context.Context, source string) ([]byte, error) {
	key := Key(source, p.Engine)

	if buf, ok, err := p.Cache.Get(key); err != nil {
		log.Warningf("cache read failed, compiling: %v", err)
	} else if ok {
		log.Debugf("cache hit for %s", key[:12])
		return buf, nil
	}

	buf, err := p.Port.Compile(ctx, source)
	if err != nil {
		return nil, err
	}
	if len(buf) > 0 {
		if err := p.Cache.Put(key, p.Engine, buf); err != nil {
			// A failed cache write never fails the build.
			log.Warningf("cache write failed: %v", err)
		}
	}
	return buf, nil
}
