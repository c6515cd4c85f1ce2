package executors

import (
	"reflect"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/kestrel-ml/kestrel/dtypes"
	"github.com/kestrel-ml/kestrel/shapes"
)

// Context is the shared execution environment passed to every factory
// invocation: scratch-memory pools, a parallelism budget and opaque engine
// handles contributed by backends.
//
// A Context outlives individual selections and is safe for concurrent use. The
// selector never mutates it; mutation of its contents is the responsibility of
// the executor instances it helps construct.
type Context struct {
	id string

	// bufferPools holds one *sync.Pool per (dtype, length) pair.
	bufferPools sync.Map

	maxParallelism int

	mu      sync.RWMutex
	engines map[string]any
}

// NewContext returns a Context with the default parallelism (runtime.NumCPU).
func NewContext() *Context {
	return &Context{
		id:             uuid.NewString(),
		maxParallelism: runtime.NumCPU(),
		engines:        make(map[string]any),
	}
}

// ID returns a unique identity for this context, for diagnostics.
func (ctx *Context) ID() string { return ctx.id }

// MaxParallelism is the soft parallelism budget executors should respect when
// splitting their own work.
func (ctx *Context) MaxParallelism() int { return ctx.maxParallelism }

// SetMaxParallelism sets the parallelism budget. Only change it before any
// executors start running.
func (ctx *Context) SetMaxParallelism(n int) { ctx.maxParallelism = n }

// RegisterEngine stores an opaque backend engine handle (e.g. a device or
// library context) under name, shared by all executors built from this Context.
func (ctx *Context) RegisterEngine(name string, engine any) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.engines[name] = engine
}

// Engine returns the engine handle registered under name.
func (ctx *Context) Engine(name string) (any, bool) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	engine, found := ctx.engines[name]
	return engine, found
}

type bufferPoolKey struct {
	dtype  dtypes.DType
	length int
}

// getBufferPool for the given dtype/length.
func (ctx *Context) getBufferPool(dtype dtypes.DType, length int) *sync.Pool {
	key := bufferPoolKey{dtype: dtype, length: length}
	poolInterface, ok := ctx.bufferPools.Load(key)
	if !ok {
		poolInterface, _ = ctx.bufferPools.LoadOrStore(key, &sync.Pool{
			New: func() any {
				return &Buffer{
					Flat:  reflect.MakeSlice(reflect.SliceOf(dtype.GoType()), length, length).Interface(),
					Shape: shapes.Make(dtype, length),
				}
			},
		})
	}
	return poolInterface.(*sync.Pool)
}

// GetScratch takes a flat scratch buffer of the given dtype/length from the
// context pool. Contents are unspecified; the caller must initialize what it reads.
func (ctx *Context) GetScratch(dtype dtypes.DType, length int) *Buffer {
	pool := ctx.getBufferPool(dtype, length)
	return pool.Get().(*Buffer)
}

// PutScratch returns a scratch buffer to the pool. Drop all references to it
// after this call.
func (ctx *Context) PutScratch(buffer *Buffer) {
	if buffer == nil || !buffer.Shape.Ok() {
		return
	}
	pool := ctx.getBufferPool(buffer.Shape.DType, buffer.Shape.Size())
	pool.Put(buffer)
}
