package postgres

import "encoding/binary"

// valueRange is a (isNull, byteRange) pair pointing into the executor's
// shared network buffer by absolute offset (not relative to any one
// DataRow body), so a batch of rows spanning several messages can share
// one bytes slice instead of each row copying its values out.
type valueRange struct {
	isNull bool
	start  int
	end    int
}

// Record is a zero-copy view over one DataRow message's column values,
// borrowing from the executor's network buffer. The borrow is valid only
// until the next Executor call that reuses the buffer.
type Record struct {
	stmt   Statement
	bytes  []byte
	values []valueRange
}

// ParseRecord decodes a DataRow payload into column value ranges, recorded
// as absolute offsets into buf so they remain meaningful when later
// aggregated into a Records batch spanning multiple messages. payload is
// the DataRow's body (buf[payloadOffset:]); payloadOffset is payload's
// start index within buf.
func ParseRecord(buf []byte, payloadOffset int, stmt Statement, vb *[]valueRange) (Record, error) {
	payload := buf[payloadOffset:]
	if len(payload) < 2 {
		return Record{}, ErrUnexpectedBufferState
	}
	columns := int(binary.BigEndian.Uint16(payload[:2]))
	offset := payloadOffset + 2
	begin := len(*vb)
	for i := 0; i < columns; i++ {
		if offset+4 > len(buf) {
			return Record{}, ErrUnexpectedBufferState
		}
		n := int32(binary.BigEndian.Uint32(buf[offset : offset+4]))
		offset += 4
		if n < 0 {
			*vb = append(*vb, valueRange{isNull: true})
			continue
		}
		if offset+int(n) > len(buf) {
			return Record{}, ErrUnexpectedBufferState
		}
		*vb = append(*vb, valueRange{start: offset, end: offset + int(n)})
		offset += int(n)
	}
	return Record{stmt: stmt, bytes: buf, values: (*vb)[begin:len(*vb)]}, nil
}

// Len returns the record's column count.
func (r Record) Len() int { return len(r.values) }

// IsNull reports whether column idx is SQL NULL.
func (r Record) IsNull(idx int) bool { return r.values[idx].isNull }

// Value returns column idx's raw wire-format bytes, or nil if NULL.
func (r Record) Value(idx int) []byte {
	v := r.values[idx]
	if v.isNull {
		return nil
	}
	return r.bytes[v.start:v.end]
}

// ColumnName returns the name the originating Statement's RowDescription
// reported for idx.
func (r Record) ColumnName(idx int) string {
	if idx < len(r.stmt.Columns) {
		return r.stmt.Columns[idx].Name
	}
	return ""
}

// Records is a batch view aggregating every row fetched by
// FetchManyWithStmt, each row's value ranges recorded in a flat offsets
// vector shared across rows.
type Records struct {
	stmt         Statement
	bytes        []byte
	rowValueEnds []int // vb index marking the end of each row's values
	values       []valueRange
}

// Len returns the number of rows.
func (rs Records) Len() int { return len(rs.rowValueEnds) }

// Row returns a Record view over row i.
func (rs Records) Row(i int) Record {
	start := 0
	if i > 0 {
		start = rs.rowValueEnds[i-1]
	}
	end := rs.rowValueEnds[i]
	return Record{stmt: rs.stmt, bytes: rs.bytes, values: rs.values[start:end]}
}
