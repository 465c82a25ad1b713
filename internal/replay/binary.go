package replay

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/oimasterkafuu/checkmate/internal/protocol"
)

// Magic opens every RPB1 patch stream.
var Magic = [4]byte{'R', 'P', 'B', '1'}

var (
	ErrBadMagic    = errors.New("replay binary: bad magic")
	ErrFormatLimit = errors.New("replay binary: value exceeds format limit")
	ErrCorrupt     = errors.New("replay binary: corrupt data")
	ErrTruncated   = errors.New("replay binary: truncated")
)

const (
	classCodeNone = 0
	classCodeDead = 1
	classCodeAFK  = 2
)

func classToCode(class string) uint8 {
	switch class {
	case protocol.ClassDead:
		return classCodeDead
	case protocol.ClassAFK:
		return classCodeAFK
	default:
		return classCodeNone
	}
}

func codeToClass(code uint8) string {
	switch code {
	case classCodeDead:
		return protocol.ClassDead
	case classCodeAFK:
		return protocol.ClassAFK
	default:
		return protocol.ClassNone
	}
}

// normalizeU32 clamps v into the u32 range.
func normalizeU32(v int) uint32 {
	if v <= 0 {
		return 0
	}
	if int64(v) >= math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

type byteWriter struct {
	buf bytes.Buffer
	tmp [4]byte
}

func (w *byteWriter) u8(v uint32) { w.buf.WriteByte(byte(v)) }

func (w *byteWriter) u16(v uint32) {
	binary.LittleEndian.PutUint16(w.tmp[:2], uint16(v))
	w.buf.Write(w.tmp[:2])
}

func (w *byteWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.tmp[:4], v)
	w.buf.Write(w.tmp[:4])
}

func (w *byteWriter) str(s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("%w: string of %d bytes", ErrFormatLimit, len(s))
	}
	w.u16(uint32(len(s)))
	w.buf.WriteString(s)
	return nil
}

func (w *byteWriter) leaderboard(entries []protocol.LeaderboardEntry) error {
	w.u16(uint32(len(entries)))
	for _, e := range entries {
		w.u8(normalizeU32(e.Team))
		if err := w.str(e.UID); err != nil {
			return err
		}
		w.u32(normalizeU32(e.Army))
		w.u32(normalizeU32(e.Land))
		w.u8(uint32(classToCode(e.Class)))
		w.u16(normalizeU32(e.Dead))
		w.u8(normalizeU32(e.ID))
	}
	return nil
}

func (w *byteWriter) progress(progress map[int]float64) {
	ids := make([]int, 0, len(progress))
	for id := range progress {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	w.u16(uint32(len(ids)))
	for _, id := range ids {
		ratio := progress[id]
		if math.IsNaN(ratio) || ratio < 0 {
			ratio = 0
		} else if ratio > 1 {
			ratio = 1
		}
		w.u8(normalizeU32(id))
		w.u8(uint32(math.Round(ratio * 255)))
	}
}

func (w *byteWriter) diff(pairs []int, wide bool) error {
	if len(pairs)%2 != 0 {
		return fmt.Errorf("%w: odd diff length %d", ErrCorrupt, len(pairs))
	}
	w.u32(uint32(len(pairs) / 2))
	for i := 0; i < len(pairs); i += 2 {
		idx := normalizeU32(pairs[i])
		if idx > math.MaxUint16 {
			return fmt.Errorf("%w: map index %d", ErrFormatLimit, idx)
		}
		w.u16(idx)
		if wide {
			w.u32(normalizeU32(pairs[i+1]))
		} else {
			w.u8(normalizeU32(pairs[i+1]))
		}
	}
	return nil
}

func (w *byteWriter) header(turn int, gameEnd bool, lb []protocol.LeaderboardEntry, progress map[int]float64) error {
	w.u32(normalizeU32(turn))
	if gameEnd {
		w.u8(1)
	} else {
		w.u8(0)
	}
	if err := w.leaderboard(lb); err != nil {
		return err
	}
	w.progress(progress)
	return nil
}

func (w *byteWriter) patchPayload(p protocol.PatchPayload) error {
	if err := w.header(p.Turn, p.GameEnd, p.Leaderboard, p.SurrenderProgress); err != nil {
		return err
	}
	if err := w.diff(p.GridType, false); err != nil {
		return fmt.Errorf("grid diff: %w", err)
	}
	if err := w.diff(p.ArmyCnt, true); err != nil {
		return fmt.Errorf("army diff: %w", err)
	}
	return nil
}

// Encode writes data in the RPB1 little-endian patch format.
func Encode(data *protocol.ReplayData) ([]byte, error) {
	if data.N > math.MaxUint16 || data.M > math.MaxUint16 {
		return nil, fmt.Errorf("%w: map size %dx%d", ErrFormatLimit, data.N, data.M)
	}
	w := &byteWriter{}
	w.buf.Write(Magic[:])
	w.u16(uint32(data.N))
	w.u16(uint32(data.M))
	w.u32(uint32(len(data.Patches)))

	first := &data.Initial
	if err := w.header(first.Turn, first.GameEnd, first.Leaderboard, first.SurrenderProgress); err != nil {
		return nil, err
	}
	w.u32(uint32(len(first.GridType)))
	for _, v := range first.GridType {
		w.u8(normalizeU32(v))
	}
	w.u32(uint32(len(first.ArmyCnt)))
	for _, v := range first.ArmyCnt {
		w.u32(normalizeU32(v))
	}

	for i, p := range data.Patches {
		if err := w.patchPayload(p.Forward); err != nil {
			return nil, fmt.Errorf("patch %d forward: %w", i, err)
		}
		if err := w.patchPayload(p.Backward); err != nil {
			return nil, fmt.Errorf("patch %d backward: %w", i, err)
		}
	}
	return w.buf.Bytes(), nil
}

type byteReader struct {
	data []byte
	off  int
	err  error
}

func (r *byteReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data)-r.off < n {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d", ErrTruncated, n, r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *byteReader) u8() int {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return int(b[0])
}

func (r *byteReader) u16() int {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return int(binary.LittleEndian.Uint16(b))
}

func (r *byteReader) u32() int {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return int(binary.LittleEndian.Uint32(b))
}

func (r *byteReader) str() string {
	n := r.u16()
	return string(r.take(n))
}

// count reads a u32 element count and rejects counts the remaining input
// cannot hold.
func (r *byteReader) count(elemSize int) int {
	n := r.u32()
	if r.err == nil && n*elemSize > len(r.data)-r.off {
		r.err = fmt.Errorf("%w: %d elements at offset %d", ErrTruncated, n, r.off)
		return 0
	}
	return n
}

func (r *byteReader) leaderboard() []protocol.LeaderboardEntry {
	n := r.u16()
	out := make([]protocol.LeaderboardEntry, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		var e protocol.LeaderboardEntry
		e.Team = r.u8()
		e.UID = r.str()
		e.Army = r.u32()
		e.Land = r.u32()
		e.Class = codeToClass(uint8(r.u8()))
		e.Dead = r.u16()
		e.ID = r.u8()
		out = append(out, e)
	}
	return out
}

func (r *byteReader) progress() map[int]float64 {
	n := r.u16()
	out := make(map[int]float64, n)
	for i := 0; i < n && r.err == nil; i++ {
		id := r.u8()
		out[id] = float64(r.u8()) / 255
	}
	return out
}

func (r *byteReader) diff(wide bool) []int {
	size := 3
	if wide {
		size = 6
	}
	n := r.count(size)
	out := make([]int, 0, 2*n)
	for i := 0; i < n && r.err == nil; i++ {
		idx := r.u16()
		var v int
		if wide {
			v = r.u32()
		} else {
			v = r.u8()
		}
		out = append(out, idx, v)
	}
	return out
}

func (r *byteReader) patchPayload() protocol.PatchPayload {
	p := protocol.PatchPayload{
		LstMove: protocol.NoMovePayload,
		Kills:   map[string]string{},
	}
	p.Turn = r.u32()
	p.GameEnd = r.u8() == 1
	p.Leaderboard = r.leaderboard()
	p.SurrenderProgress = r.progress()
	p.GridType = r.diff(false)
	p.ArmyCnt = r.diff(true)
	return p
}

// Decode parses an RPB1 stream. Kills and last moves are not part of the
// format and come back empty.
func Decode(raw []byte) (*protocol.ReplayData, error) {
	r := &byteReader{data: raw}
	magic := r.take(len(Magic))
	if r.err != nil {
		return nil, r.err
	}
	if !bytes.Equal(magic, Magic[:]) {
		return nil, ErrBadMagic
	}

	data := &protocol.ReplayData{}
	data.N = r.u16()
	data.M = r.u16()
	patches := r.u32()

	first := protocol.UpdatePayload{
		LstMove: protocol.NoMovePayload,
		Kills:   map[string]string{},
	}
	first.Turn = r.u32()
	first.GameEnd = r.u8() == 1
	first.Leaderboard = r.leaderboard()
	first.SurrenderProgress = r.progress()
	n := r.count(1)
	first.GridType = make([]int, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		first.GridType = append(first.GridType, r.u8())
	}
	n = r.count(4)
	first.ArmyCnt = make([]int, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		first.ArmyCnt = append(first.ArmyCnt, r.u32())
	}
	if r.err != nil {
		return nil, r.err
	}
	if len(first.GridType) != data.N*data.M || len(first.ArmyCnt) != data.N*data.M {
		return nil, fmt.Errorf("%w: initial frame does not match %dx%d", ErrCorrupt, data.N, data.M)
	}
	data.Initial = first

	data.Patches = make([]protocol.Patch, 0)
	for i := 0; i < patches; i++ {
		var p protocol.Patch
		p.Forward = r.patchPayload()
		p.Backward = r.patchPayload()
		if r.err != nil {
			return nil, fmt.Errorf("patch %d: %w", i, r.err)
		}
		data.Patches = append(data.Patches, p)
	}
	if r.off != len(raw) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(raw)-r.off)
	}
	return data, nil
}
