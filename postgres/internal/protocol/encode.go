package protocol

import "encoding/binary"

// Encoder builds frontend wire messages into a reusable scratch buffer,
// an accumulate-then-flush shape since every frontend message here is sent
// as a single WriteAll.
type Encoder struct {
	buf []byte
}

// Bytes returns the bytes accumulated since the last Reset.
func (e *Encoder) Bytes() []byte { return e.buf }

// Reset empties the encoder for reuse.
func (e *Encoder) Reset() { e.buf = e.buf[:0] }

func (e *Encoder) writeByte(b byte) { e.buf = append(e.buf, b) }

func (e *Encoder) writeBytes(p []byte) { e.buf = append(e.buf, p...) }

func (e *Encoder) writeCString(s string) {
	e.buf = append(e.buf, s...)
	e.buf = append(e.buf, 0)
}

func (e *Encoder) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.writeBytes(b[:])
}

func (e *Encoder) writeUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	e.writeBytes(b[:])
}

// withLengthPrefixed backpatches a u32 big-endian length (measured from
// the length field itself, PostgreSQL's convention) over the bytes written
// by fn, after a leading tag byte already written by the caller.
func (e *Encoder) withLengthPrefixed(fn func()) {
	lenAt := len(e.buf)
	e.writeUint32(0)
	fn()
	binary.BigEndian.PutUint32(e.buf[lenAt:lenAt+4], uint32(len(e.buf)-lenAt))
}

// SSLRequest encodes the 8-byte SSL negotiation request sent before
// StartupMessage when encryption is requested.
func (e *Encoder) SSLRequest() {
	e.withLengthPrefixed(func() {
		e.writeUint32(80877103)
	})
}

// StartupMessage encodes protocol version 3.0 plus a flat list of
// "key\x00value\x00" parameter pairs, terminated by a final NUL.
func (e *Encoder) StartupMessage(params map[string]string) {
	e.withLengthPrefixed(func() {
		e.writeUint32(196608) // 3.0
		for k, v := range params {
			e.writeCString(k)
			e.writeCString(v)
		}
		e.writeByte(0)
	})
}

// PasswordMessage encodes a cleartext or MD5-hashed password response.
func (e *Encoder) PasswordMessage(password string) {
	e.writeByte(TagPassword)
	e.withLengthPrefixed(func() { e.writeCString(password) })
}

// SASLInitialResponse encodes the client's chosen mechanism plus its
// client-first message.
func (e *Encoder) SASLInitialResponse(mechanism string, clientFirst []byte) {
	e.writeByte(TagPassword)
	e.withLengthPrefixed(func() {
		e.writeCString(mechanism)
		e.writeUint32(uint32(len(clientFirst)))
		e.writeBytes(clientFirst)
	})
}

// SASLResponse encodes the client-final SCRAM message.
func (e *Encoder) SASLResponse(clientFinal []byte) {
	e.writeByte(TagPassword)
	e.withLengthPrefixed(func() { e.writeBytes(clientFinal) })
}

// Parse encodes extended-query Parse: a statement name, the SQL text, and
// its parameter type OIDs (0 means "infer").
func (e *Encoder) Parse(stmtName, sql string, paramTypeOIDs []uint32) {
	e.writeByte(TagParse)
	e.withLengthPrefixed(func() {
		e.writeCString(stmtName)
		e.writeCString(sql)
		e.writeUint16(uint16(len(paramTypeOIDs)))
		for _, oid := range paramTypeOIDs {
			e.writeUint32(oid)
		}
	})
}

// Bind encodes extended-query Bind against an unnamed portal, with every
// parameter format and every result-column format fixed to binary (1).
func (e *Encoder) Bind(portal, stmtName string, params [][]byte) {
	e.writeByte(TagBind)
	e.withLengthPrefixed(func() {
		e.writeCString(portal)
		e.writeCString(stmtName)
		e.writeUint16(1)
		e.writeUint16(1) // all params binary
		e.writeUint16(uint16(len(params)))
		for _, p := range params {
			if p == nil {
				e.writeUint32(0xFFFFFFFF) // -1: NULL
				continue
			}
			e.writeUint32(uint32(len(p)))
			e.writeBytes(p)
		}
		e.writeUint16(1)
		e.writeUint16(1) // all results binary
	})
}

// DescribeStatementTarget and DescribePortalTarget select Describe's
// target kind.
const (
	DescribeStatementTarget = 'S'
	DescribePortalTarget    = 'P'
)

// Describe encodes extended-query Describe for a statement or portal name.
func (e *Encoder) Describe(target byte, name string) {
	e.writeByte(TagDescribe)
	e.withLengthPrefixed(func() {
		e.writeByte(target)
		e.writeCString(name)
	})
}

// Execute encodes extended-query Execute against a portal, with maxRows 0
// meaning "no limit".
func (e *Encoder) Execute(portal string, maxRows uint32) {
	e.writeByte(TagExecute)
	e.withLengthPrefixed(func() {
		e.writeCString(portal)
		e.writeUint32(maxRows)
	})
}

// Sync encodes the extended-query Sync message, which flushes the
// executor's pipeline and ends with a ReadyForQuery.
func (e *Encoder) Sync() {
	e.writeByte(TagSync)
	e.withLengthPrefixed(func() {})
}

// Close encodes Close for a prepared statement or a portal.
func (e *Encoder) Close(target byte, name string) {
	e.writeByte(TagClose)
	e.withLengthPrefixed(func() {
		e.writeByte(target)
		e.writeCString(name)
	})
}

// Query encodes a simple-query message, the route execute() uses.
func (e *Encoder) Query(sql string) {
	e.writeByte(TagQuery)
	e.withLengthPrefixed(func() { e.writeCString(sql) })
}

// Terminate encodes the graceful connection-close message.
func (e *Encoder) Terminate() {
	e.writeByte(TagTerminate)
	e.withLengthPrefixed(func() {})
}
