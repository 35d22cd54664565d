package postgres

import "github.com/humb1t/wtx/buffer"

// ExecutorBuffer groups the five buffers one Executor owns: nb for network
// I/O, rb/vb for per-row and per-value offset bookkeeping,
// stmts for the prepared-statement cache, and paramsBuffer as parameter
// scratch space. rb and paramsBuffer are reset with the others but no
// current call path fills them. All but stmts are cleared between
// top-level calls (nb only once its following zone holds no read-ahead
// bytes); stmts persists across calls.
type ExecutorBuffer struct {
	nb           *buffer.Partitioned
	rb           []int
	vb           []valueRange
	stmts        *Statements
	paramsBuffer [][]byte
}

// NewExecutorBuffer returns a buffer set with an empty network arena and a
// statement cache bounded at stmtCacheCapacity.
func NewExecutorBuffer(stmtCacheCapacity int) *ExecutorBuffer {
	return &ExecutorBuffer{
		nb:    buffer.New(),
		stmts: NewStatements(stmtCacheCapacity),
	}
}

// clearCmdBuffers resets the per-call buffers without disturbing the
// statement cache. The network arena is reclaimed only when its following
// zone is empty, so read-ahead bytes survive.
func (eb *ExecutorBuffer) clearCmdBuffers() {
	eb.nb.ClearIfFollowingIsEmpty()
	eb.rb = eb.rb[:0]
	eb.vb = eb.vb[:0]
	eb.paramsBuffer = eb.paramsBuffer[:0]
}

// Clear resets every buffer including the statement cache; used before a
// fresh Connect.
func (eb *ExecutorBuffer) Clear() {
	eb.nb = buffer.New()
	eb.clearCmdBuffers()
	eb.stmts.Clear()
}
