package postgres

import (
	"context"

	"github.com/humb1t/wtx/postgres/internal/protocol"
)

// Prepare hashes sql with fnv1a64 and either reuses a cached Statement or
// issues Parse+Describe+Sync and caches the result. Second calls for the
// same SQL text never emit Parse on the wire.
func (ex *Executor) Prepare(ctx context.Context, sql string, paramTypeOIDs []uint32) (Statement, error) {
	if err := ex.checkOpen(); err != nil {
		return Statement{}, err
	}
	ex.eb.clearCmdBuffers()
	return ex.writeSendAwaitStmtProt(ctx, sql, paramTypeOIDs)
}

func (ex *Executor) writeSendAwaitStmtProt(ctx context.Context, sql string, paramTypeOIDs []uint32) (Statement, error) {
	hash := HashSQL(sql)
	if stmt, ok := ex.eb.stmts.Get(hash); ok {
		return stmt, nil
	}

	id := hash
	name := stmtName(id)
	enc := &protocol.Encoder{}
	enc.Parse(name, sql, paramTypeOIDs)
	enc.Describe(protocol.DescribeStatementTarget, name)
	enc.Sync()
	if err := ex.stream.WriteAll(ctx, enc.Bytes()); err != nil {
		ex.isClosed = true
		return Statement{}, err
	}

	var columns []Column
	var paramTypes []uint32
	for {
		msg, err := fetchMsgFromStream(ctx, ex, ex.eb.nb, ex.stream)
		if err != nil {
			return Statement{}, err
		}
		switch msg.Kind {
		case protocol.KindParseComplete:
		case protocol.KindParameterDescription:
			oids, err := protocol.ParseParameterDescription(ex.lastBody())
			if err != nil {
				ex.isClosed = true
				return Statement{}, err
			}
			paramTypes = oids
		case protocol.KindRowDescription:
			cols, err := protocol.ParseRowDescription(ex.lastBody())
			if err != nil {
				ex.isClosed = true
				return Statement{}, err
			}
			columns = make([]Column, len(cols))
			for i, c := range cols {
				columns[i] = Column{Name: c.Name, TypeOID: c.TypeOID}
			}
		case protocol.KindNoData:
		case protocol.KindReadyForQuery:
			stmt := Statement{id: id, Columns: columns, ParamTypes: paramTypes}
			ex.eb.stmts.Insert(hash, stmt, ex.evictStatement(ctx))
			return stmt, nil
		default:
			return Statement{}, ex.unexpected(msg)
		}
	}
}

// lastBody returns the payload of the message most recently committed
// into nb's current zone by fetchMsgFromStream.
func (ex *Executor) lastBody() []byte {
	return ex.eb.nb.Current()[headerSize:]
}

// lastPayloadOffset returns the absolute offset (into nb.Buffer()) of the
// payload of the message most recently committed into nb's current zone.
func (ex *Executor) lastPayloadOffset() int {
	return ex.eb.nb.AntecedentEnd() + headerSize
}

// evictStatement returns a callback that sends Close+Sync for a statement
// being evicted from the MRU cache, draining to ReadyForQuery. Errors are
// absorbed into isClosed since Insert's eviction path has no error return.
func (ex *Executor) evictStatement(ctx context.Context) func(Statement) {
	return func(stmt Statement) {
		enc := &protocol.Encoder{}
		enc.Close(protocol.DescribeStatementTarget, stmt.Name())
		enc.Sync()
		if err := ex.stream.WriteAll(ctx, enc.Bytes()); err != nil {
			ex.isClosed = true
			return
		}
		for {
			msg, err := fetchMsgFromStream(ctx, ex, ex.eb.nb, ex.stream)
			if err != nil {
				return
			}
			if msg.Kind == protocol.KindReadyForQuery {
				return
			}
		}
	}
}
