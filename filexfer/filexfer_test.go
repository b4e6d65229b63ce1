package filexfer

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/amxpanel/icspcore/clog"
	"github.com/amxpanel/icspcore/mc"
	"github.com/amxpanel/icspcore/wire"
)

type sentFrame struct {
	devDst, portDst uint16
	code            mc.Code
	payload         []byte
}

type fakeSender struct {
	frames []sentFrame
}

func (f *fakeSender) SendRaw(devDst, portDst uint16, code mc.Code, payload []byte) {
	f.frames = append(f.frames, sentFrame{devDst, portDst, code, payload})
}

func (f *fakeSender) funcsOf(ftype FType) []Function {
	var out []Function
	for _, fr := range f.frames {
		cur := wire.NewCursor(fr.payload)
		ft, _ := cur.DecodeU16()
		fn, _ := cur.DecodeU16()
		if FType(ft) == ftype {
			out = append(out, Function(fn))
		}
	}
	return out
}

type memFile struct {
	*bytes.Buffer
}

func (memFile) Close() error { return nil }

type fakeStorage struct {
	finalized map[string][]byte
	pending   map[string]*bytes.Buffer
	files     map[string][]byte
	dir       []DirEntry
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		finalized: map[string][]byte{},
		pending:   map[string]*bytes.Buffer{},
		files:     map[string][]byte{},
	}
}

func (s *fakeStorage) CreateTemp(name string) (io.WriteCloser, error) {
	buf := &bytes.Buffer{}
	s.pending[name] = buf
	return memFile{buf}, nil
}

func (s *fakeStorage) Finalize(tempName string) error {
	buf, ok := s.pending[tempName]
	if !ok {
		return nil
	}
	s.finalized[tempName] = buf.Bytes()
	delete(s.pending, tempName)
	return nil
}

func (s *fakeStorage) Delete(name string) error {
	delete(s.finalized, name)
	return nil
}

func (s *fakeStorage) Exists(name string) bool {
	_, ok := s.finalized[name]
	return ok
}

func (s *fakeStorage) Open(name string) (io.ReadCloser, int64, error) {
	data := s.files[name]
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (s *fakeStorage) ReadDir() ([]DirEntry, error) { return s.dir, nil }

type fakeProgress struct {
	starts   []string
	percents []int
	ends     []error
}

func (p *fakeProgress) TransferStart(int)      {}
func (p *fakeProgress) FileStart(name string, size int64) { p.starts = append(p.starts, name) }
func (p *fakeProgress) ChunkProgress(name string, pct int) {
	p.percents = append(p.percents, pct)
}
func (p *fakeProgress) FileEnd(name string, err error) { p.ends = append(p.ends, err) }

func framePayload(ftype FType, fn Function, data []byte) []byte {
	var payload []byte
	payload = wire.AppendU16(payload, uint16(ftype))
	payload = wire.AppendU16(payload, uint16(fn))
	payload = wire.AppendU16(payload, 0)
	payload = wire.AppendU16(payload, 0)
	for i := 0; i < 4; i++ {
		payload = wire.AppendU32(payload, 0)
	}
	return append(payload, data...)
}

// announcePayload builds a 0x0102 file-announce frame: size lands in
// the first reserved word (words[0]), the tagged name in the variable
// trailer, matching how handleFileOp/beginIncoming split the payload.
func announcePayload(name string, size uint32) []byte {
	var payload []byte
	payload = wire.AppendU16(payload, uint16(FTypeFile))
	payload = wire.AppendU16(payload, uint16(FuncFileAnnounce))
	payload = wire.AppendU16(payload, 0)
	payload = wire.AppendU16(payload, 0)
	payload = wire.AppendU32(payload, size)
	for i := 0; i < 3; i++ {
		payload = wire.AppendU32(payload, 0)
	}
	return append(payload, wire.AppendString8(nil, []byte(name))...)
}

func newFrame(payload []byte) wire.Message {
	return wire.Message{DevSrc: 1, PortSrc: 1, DevDst: 0, PortDst: 1, MC: uint16(mc.FileTransfer), Payload: payload}
}

// TestUploadScenarioDrivesAckSequenceAndProgress exercises spec.md §8
// scenario 6: a 5000-byte file arrives as ten 500-byte chunks, and the
// engine replies with the announce ack (0x0103), a per-chunk ack
// (0x0002), and the end-of-file ack (0x0005), while progress ticks in
// whole-percent steps from 10 to 100.
func TestUploadScenarioDrivesAckSequenceAndProgress(t *testing.T) {
	sender := &fakeSender{}
	storage := newFakeStorage()
	progress := &fakeProgress{}
	e := New(sender, storage, progress, wire.OriginG5, clog.NewLogger("test"))

	e.HandleFrame(newFrame(announcePayload("remote.txt", 5000)))

	full := make([]byte, 5000)
	for i := range full {
		full[i] = byte(i % 251)
	}
	for i := 0; i < 10; i++ {
		chunk := full[i*500 : (i+1)*500]
		e.HandleFrame(newFrame(framePayload(FTypeFile, FuncFileChunk, chunk)))
	}
	e.HandleFrame(newFrame(framePayload(FTypeFile, FuncEndOfFile, nil)))

	fns := sender.funcsOf(FTypeFile)
	require.GreaterOrEqual(t, len(fns), 12)
	assert.Equal(t, FuncFileChunk, fns[0], "first reply must be the 0x0103 announce ack")
	for i := 1; i <= 10; i++ {
		assert.Equal(t, FuncRequestNextChunk, fns[i], "chunk %d ack must be 0x0002", i)
	}
	assert.Equal(t, FuncEndOfFileAck, fns[len(fns)-1], "final reply must be the 0x0005 end ack")

	want := []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	assert.Equal(t, want, progress.percents)

	require.Contains(t, storage.finalized, "remote.txt")
	assert.Equal(t, full, storage.finalized["remote.txt"])
}

// TestReceivedGzipPayloadIsTransparentlyDecompressed exercises P11: a
// file whose bytes begin with the gzip magic is inflated before being
// handed to storage, rather than written verbatim.
func TestReceivedGzipPayloadIsTransparentlyDecompressed(t *testing.T) {
	sender := &fakeSender{}
	storage := newFakeStorage()
	e := New(sender, storage, nil, wire.OriginG5, clog.NewLogger("test"))

	plain := []byte("the quick brown fox jumps over the lazy dog, repeated for bulk")
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err := w.Write(plain)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	e.HandleFrame(newFrame(announcePayload("archive.bin", uint32(gz.Len()))))
	e.HandleFrame(newFrame(framePayload(FTypeFile, FuncFileChunk, gz.Bytes())))
	e.HandleFrame(newFrame(framePayload(FTypeFile, FuncEndOfFile, nil)))

	require.Contains(t, storage.finalized, "archive.bin")
	assert.Equal(t, plain, storage.finalized["archive.bin"])
}

// TestDownloadRoundTripsThroughAnnounceAndChunks exercises P10: a panel
// upload of a file stored on "disk" reaches the controller as an
// announce frame followed by one-or-more file-data chunks that
// reassemble to the original bytes.
func TestDownloadRoundTripsThroughAnnounceAndChunks(t *testing.T) {
	sender := &fakeSender{}
	storage := newFakeStorage()
	storage.files["local.txt"] = bytes.Repeat([]byte("x"), 2500)
	e := New(sender, storage, nil, wire.OriginG5, clog.NewLogger("test"))

	req := framePayload(FTypeFile, FuncFileRequestFromPanel, []byte("local.txt"))
	e.HandleFrame(newFrame(req))

	require.NotEmpty(t, sender.frames)
	first := sender.frames[0]
	cur := wire.NewCursor(first.payload)
	ft, _ := cur.DecodeU16()
	fn, _ := cur.DecodeU16()
	require.Equal(t, FTypeFile, FType(ft))
	require.Equal(t, FuncFileAnnounce, Function(fn))

	const fixedPrefix = 2 + 2 + 2 + 2 + 4*4 // ftype, fn, info1, info2, four reserved words

	var reassembled []byte
	for _, fr := range sender.frames[1:] {
		cur := wire.NewCursor(fr.payload)
		ft, _ := cur.DecodeU16()
		fn, _ := cur.DecodeU16()
		if FType(ft) != FTypeFile || Function(fn) != FuncFileChunk {
			continue
		}
		reassembled = append(reassembled, fr.payload[fixedPrefix:]...)
	}
	assert.Equal(t, storage.files["local.txt"], reassembled)
}

// TestUploadRoundTripsForArbitraryChunking exercises P10: regardless
// of how a non-gzip file is split into inbound chunks, the stored
// bytes equal the concatenation of the chunks received in order.
func TestUploadRoundTripsForArbitraryChunking(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		content := rapid.SliceOfN(rapid.Byte(), 1, 4000).Draw(t, "content")
		if len(content) >= 2 && content[0] == 0x1f && content[1] == 0x8b {
			content[0] = 0 // keep this test's domain to the non-gzip branch
		}
		chunkSizes := rapid.SliceOfN(rapid.IntRange(1, 997), 1, 50).Draw(t, "chunkSizes")

		sender := &fakeSender{}
		storage := newFakeStorage()
		e := New(sender, storage, nil, wire.OriginG5, clog.NewLogger("test"))

		e.HandleFrame(newFrame(announcePayload("f.bin", uint32(len(content)))))
		pos := 0
		for _, size := range chunkSizes {
			if pos >= len(content) {
				break
			}
			end := pos + size
			if end > len(content) {
				end = len(content)
			}
			e.HandleFrame(newFrame(framePayload(FTypeFile, FuncFileChunk, content[pos:end])))
			pos = end
		}
		if pos < len(content) {
			e.HandleFrame(newFrame(framePayload(FTypeFile, FuncFileChunk, content[pos:])))
		}
		e.HandleFrame(newFrame(framePayload(FTypeFile, FuncEndOfFile, nil)))

		require.Contains(t, storage.finalized, "f.bin")
		assert.Equal(t, content, storage.finalized["f.bin"])
	})
}
