package postgres

import (
	"context"

	"github.com/humb1t/wtx/postgres/internal/protocol"
)

// simpleQueryExecute issues cmd as a simple-query message (no parse/bind
// step), invoking cb with each CommandComplete row count observed — a
// simple-query string may contain several ';'-separated statements, each
// producing its own CommandComplete.
func (ex *Executor) simpleQueryExecute(ctx context.Context, cmd string, cb func(uint64)) error {
	if err := ex.checkOpen(); err != nil {
		return err
	}
	ex.eb.clearCmdBuffers()
	enc := &protocol.Encoder{}
	enc.Query(cmd)
	if err := ex.stream.WriteAll(ctx, enc.Bytes()); err != nil {
		ex.isClosed = true
		return err
	}
	for {
		msg, err := fetchMsgFromStream(ctx, ex, ex.eb.nb, ex.stream)
		if err != nil {
			return err
		}
		switch msg.Kind {
		case protocol.KindCommandComplete:
			if cb != nil {
				cb(msg.Rows)
			}
		case protocol.KindRowDescription, protocol.KindDataRow, protocol.KindEmptyQueryResponse:
		case protocol.KindReadyForQuery:
			return nil
		case protocol.KindErrorResponse:
			// a non-fatal ErrorResponse is returned, but only after the
			// connection is drained to ReadyForQuery first
			return ex.drainToReadyAndReturn(ctx, msg)
		default:
			return ex.unexpected(msg)
		}
	}
}

func (ex *Executor) drainToReadyAndReturn(ctx context.Context, errMsg protocol.Message) error {
	for {
		msg, err := fetchMsgFromStream(ctx, ex, ex.eb.nb, ex.stream)
		if err != nil {
			return err
		}
		if msg.Kind == protocol.KindReadyForQuery {
			return &queryError{details: errMsg.Details}
		}
	}
}

type queryError struct{ details string }

func (e *queryError) Error() string { return "postgres: " + e.details }

// Execute issues cmd as a simple query, invoking cb with each
// CommandComplete row count.
func (ex *Executor) Execute(ctx context.Context, cmd string, cb func(uint64)) error {
	return ex.simpleQueryExecute(ctx, cmd, cb)
}
