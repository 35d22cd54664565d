package postgres

import (
	"context"
	"encoding/binary"

	"github.com/humb1t/wtx/buffer"
	"github.com/humb1t/wtx/postgres/internal/protocol"
	"github.com/humb1t/wtx/stream"
)

const headerSize = 5 // 1 tag byte + 4-byte big-endian length

// readChunkSize is how far ensureFollowing grows the following zone before
// issuing a stream.Read, so one physical read can capture more than the
// immediate deficit. Bytes beyond what the current message needs stay
// buffered in the following zone and satisfy later fetches with no further
// reads — this is what lets two messages delivered in a single underlying
// read be processed without a second stream.Read call.
const readChunkSize = 4096

// fetchMsgFromStream reads one representative message (NoticeResponse is
// skipped) into nb's current zone, parses it, and folds BackendKeyData,
// ParameterStatus, and ReadyForQuery's transaction status into ex so every
// call site observes them for free instead of having to recognize and
// retain them itself.
func fetchMsgFromStream(ctx context.Context, ex *Executor, nb *buffer.Partitioned, s stream.Stream) (protocol.Message, error) {
	tag, err := fetchRepresentativeMsgFromStream(ctx, nb, s)
	if err != nil {
		ex.isClosed = true
		return protocol.Message{}, err
	}
	msg, err := protocol.Parse(tag, nb.Current()[headerSize:])
	if err != nil {
		ex.isClosed = true
		return protocol.Message{}, err
	}
	if msg.Kind == protocol.KindErrorResponse && msg.Fatal {
		ex.isClosed = true
	}
	ex.observe(msg)
	return msg, nil
}

func fetchRepresentativeMsgFromStream(ctx context.Context, nb *buffer.Partitioned, s stream.Stream) (byte, error) {
	tag, err := fetchOneMsgFromStream(ctx, nb, s)
	if err != nil {
		return 0, err
	}
	for tag == protocol.TagNoticeResponse {
		tag, err = fetchOneMsgFromStream(ctx, nb, s)
		if err != nil {
			return 0, err
		}
	}
	return tag, nil
}

// fetchOneMsgFromStream reads exactly 5 bytes (tag + length), grows the
// following zone to fit the payload and reads it, then commits indices so
// current becomes exactly this message. Bytes already sitting in the
// following zone from a prior overshoot read are reused before any new
// stream.Read is issued — this is what lets a buffer already holding two
// concatenated messages satisfy both fetches without additional reads.
func fetchOneMsgFromStream(ctx context.Context, nb *buffer.Partitioned, s stream.Stream) (byte, error) {
	if err := ensureFollowing(ctx, nb, headerSize, s); err != nil {
		return 0, err
	}
	header := nb.FollowingTrailMut()[:headerSize]
	tag := header[0]
	length := int(binary.BigEndian.Uint32(header[1:headerSize]))
	total := 1 + length // tag byte + length field (which counts itself)

	if err := ensureFollowing(ctx, nb, total, s); err != nil {
		return 0, err
	}

	have := nb.FollowingEnd() - nb.CurrentEnd()
	currentEnd := nb.CurrentEnd()
	if err := nb.SetIndices(currentEnd, total, have-total); err != nil {
		return 0, err
	}
	return tag, nil
}

// ensureFollowing grows the following zone (if needed) so it holds at
// least n bytes measured from currentEnd, then reads from s to fill any
// newly-exposed region that isn't already buffered. When a read is
// actually needed, the following zone is grown past n up to readChunkSize
// and the read targets that whole grown region, not just the deficit, so
// a stream that hands back more than n-have bytes in one call has
// somewhere to put them. Afterwards the following zone is cut back to the
// bytes actually read.
func ensureFollowing(ctx context.Context, nb *buffer.Partitioned, n int, s stream.Stream) error {
	have := nb.FollowingEnd() - nb.CurrentEnd()
	if n <= have {
		return nil
	}
	target := n
	if target < have+readChunkSize {
		target = have + readChunkSize
	}
	if err := nb.ExpandFollowing(target - have); err != nil {
		return err
	}
	for have < n {
		trail := nb.FollowingTrailMut()
		r, err := s.Read(ctx, trail[have:])
		if err != nil {
			return err
		}
		if r == 0 {
			return ErrUnexpectedBufferState
		}
		have += r
	}
	return nb.SetIndices(nb.AntecedentEnd(), nb.CurrentEnd()-nb.AntecedentEnd(), have)
}
