package postgres

import (
	"context"

	"github.com/humb1t/wtx/postgres/internal/protocol"
)

// bindAndExecute writes Bind(portal="", stmt, params) + Execute(portal="",
// 0) + Sync, the shared tail of all three fetch flavors.
func (ex *Executor) bindAndExecute(ctx context.Context, stmt Statement, params [][]byte) error {
	enc := &protocol.Encoder{}
	enc.Bind("", stmt.Name(), params)
	enc.Execute("", 0)
	enc.Sync()
	if err := ex.stream.WriteAll(ctx, enc.Bytes()); err != nil {
		ex.isClosed = true
		return err
	}
	return nil
}

// ExecuteWithStmt prepares (or reuses) sql, binds params, and returns the
// number of affected rows, discarding any returned rows.
func (ex *Executor) ExecuteWithStmt(ctx context.Context, sql string, paramTypeOIDs []uint32, params [][]byte) (uint64, error) {
	if err := ex.checkOpen(); err != nil {
		return 0, err
	}
	ex.eb.clearCmdBuffers()
	stmt, err := ex.writeSendAwaitStmtProt(ctx, sql, paramTypeOIDs)
	if err != nil {
		return 0, err
	}
	if err := ex.bindAndExecute(ctx, stmt, params); err != nil {
		return 0, err
	}
	var rows uint64
	for {
		msg, err := fetchMsgFromStream(ctx, ex, ex.eb.nb, ex.stream)
		if err != nil {
			return 0, err
		}
		switch msg.Kind {
		case protocol.KindBindComplete:
		case protocol.KindCommandComplete:
			rows = msg.Rows
		case protocol.KindReadyForQuery:
			return rows, nil
		case protocol.KindDataRow, protocol.KindEmptyQueryResponse:
		case protocol.KindErrorResponse:
			return 0, ex.drainToReadyAndReturn(ctx, msg)
		default:
			return 0, ex.unexpected(msg)
		}
	}
}

// FetchWithStmt prepares (or reuses) sql, binds params, and returns
// exactly one Record. Zero rows is NoRecord; more than one row silently
// keeps the last.
func (ex *Executor) FetchWithStmt(ctx context.Context, sql string, paramTypeOIDs []uint32, params [][]byte) (Record, error) {
	if err := ex.checkOpen(); err != nil {
		return Record{}, err
	}
	ex.eb.clearCmdBuffers()
	stmt, err := ex.writeSendAwaitStmtProt(ctx, sql, paramTypeOIDs)
	if err != nil {
		return Record{}, err
	}
	if err := ex.bindAndExecute(ctx, stmt, params); err != nil {
		return Record{}, err
	}
	var found bool
	var rec Record
	for {
		msg, err := fetchMsgFromStream(ctx, ex, ex.eb.nb, ex.stream)
		if err != nil {
			return Record{}, err
		}
		switch msg.Kind {
		case protocol.KindBindComplete, protocol.KindCommandComplete, protocol.KindEmptyQueryResponse:
		case protocol.KindDataRow:
			ex.eb.vb = ex.eb.vb[:0]
			rec, err = ParseRecord(ex.eb.nb.Buffer(), ex.lastPayloadOffset(), stmt, &ex.eb.vb)
			if err != nil {
				ex.isClosed = true
				return Record{}, err
			}
			found = true
		case protocol.KindReadyForQuery:
			if !found {
				return Record{}, ErrNoRecord
			}
			return rec, nil
		case protocol.KindErrorResponse:
			return Record{}, ex.drainToReadyAndReturn(ctx, msg)
		default:
			return Record{}, ex.unexpected(msg)
		}
	}
}

// FetchManyWithStmt prepares (or reuses) sql, binds params, invokes cb for
// every returned row as it arrives, and returns a Records batch view over
// all of them.
func (ex *Executor) FetchManyWithStmt(ctx context.Context, sql string, paramTypeOIDs []uint32, params [][]byte, cb func(Record) error) (Records, error) {
	if err := ex.checkOpen(); err != nil {
		return Records{}, err
	}
	ex.eb.clearCmdBuffers()
	stmt, err := ex.writeSendAwaitStmtProt(ctx, sql, paramTypeOIDs)
	if err != nil {
		return Records{}, err
	}
	if err := ex.bindAndExecute(ctx, stmt, params); err != nil {
		return Records{}, err
	}
	var rowValueEnds []int
	for {
		msg, err := fetchMsgFromStream(ctx, ex, ex.eb.nb, ex.stream)
		if err != nil {
			return Records{}, err
		}
		switch msg.Kind {
		case protocol.KindBindComplete, protocol.KindCommandComplete, protocol.KindEmptyQueryResponse:
		case protocol.KindDataRow:
			rec, err := ParseRecord(ex.eb.nb.Buffer(), ex.lastPayloadOffset(), stmt, &ex.eb.vb)
			if err != nil {
				ex.isClosed = true
				return Records{}, err
			}
			if cb != nil {
				if err := cb(rec); err != nil {
					return Records{}, err
				}
			}
			rowValueEnds = append(rowValueEnds, len(ex.eb.vb))
		case protocol.KindReadyForQuery:
			return Records{
				stmt:         stmt,
				bytes:        ex.eb.nb.Buffer(),
				rowValueEnds: rowValueEnds,
				values:       ex.eb.vb,
			}, nil
		case protocol.KindErrorResponse:
			return Records{}, ex.drainToReadyAndReturn(ctx, msg)
		default:
			return Records{}, ex.unexpected(msg)
		}
	}
}
