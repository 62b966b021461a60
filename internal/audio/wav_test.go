package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePCM(n int) []byte {
	pcm := make([]byte, n)
	for i := range pcm {
		pcm[i] = byte(i * 7 % 251)
	}
	return pcm
}

func TestPCMToWAV_HeaderLayout(t *testing.T) {
	pcm := samplePCM(480)

	wav, err := PCMToWAV(base64.StdEncoding.EncodeToString(pcm), ProviderSampleRate)
	require.NoError(t, err)

	data := wav.Data
	le := binary.LittleEndian

	assert.Equal(t, MIMETypeWAV, wav.MIMEType)
	assert.Len(t, data, WAVHeaderSize+len(pcm))
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, uint32(36+len(pcm)), le.Uint32(data[4:8]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, uint32(16), le.Uint32(data[16:20]))
	assert.Equal(t, uint16(1), le.Uint16(data[20:22]))
	assert.Equal(t, uint16(1), le.Uint16(data[22:24]))
	assert.Equal(t, uint32(24000), le.Uint32(data[24:28]))
	assert.Equal(t, uint32(48000), le.Uint32(data[28:32]))
	assert.Equal(t, uint16(2), le.Uint16(data[32:34]))
	assert.Equal(t, uint16(16), le.Uint16(data[34:36]))
	assert.Equal(t, "data", string(data[36:40]))
	assert.Equal(t, uint32(len(pcm)), le.Uint32(data[40:44]))
}

func TestPCMToWAV_SizesForManyLengths(t *testing.T) {
	rates := []int{8000, 16000, 22050, 24000, 44100, 48000}
	for _, n := range []int{0, 1, 2, 3, 100, 4097} {
		for _, rate := range rates {
			pcm := samplePCM(n)
			wav, err := PCMToWAV(EncodeBase64(pcm), rate)
			require.NoError(t, err)

			hdr, err := DecodeWAVHeader(wav.Data)
			require.NoError(t, err)
			assert.Equal(t, WAVHeaderSize+n, len(wav.Data))
			assert.Equal(t, uint32(36+n), hdr.RIFFSize)
			assert.Equal(t, uint32(n), hdr.DataSize)
			assert.Equal(t, uint32(rate), hdr.SampleRate)
			assert.Equal(t, uint32(rate*2), hdr.ByteRate)
		}
	}
}

func TestPCMToWAV_Deterministic(t *testing.T) {
	in := EncodeBase64(samplePCM(1000))

	a, err := PCMToWAV(in, 24000)
	require.NoError(t, err)
	b, err := PCMToWAV(in, 24000)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(a.Data, b.Data))
}

func TestPCMToWAV_RoundTrip(t *testing.T) {
	pcm := samplePCM(2048)

	wav, err := PCMToWAV(EncodeBase64(pcm), 24000)
	require.NoError(t, err)

	assert.Equal(t, pcm, wav.Data[WAVHeaderSize:])
	assert.Equal(t, pcm, wav.PCM())
}

func TestPCMToWAV_MalformedBase64(t *testing.T) {
	_, err := PCMToWAV("not*base64!", 24000)
	require.Error(t, err)

	var corrupt base64.CorruptInputError
	assert.ErrorAs(t, err, &corrupt)
}

func TestPCMToWAV_BadSampleRate(t *testing.T) {
	_, err := PCMToWAV(EncodeBase64(samplePCM(4)), 0)
	assert.ErrorIs(t, err, ErrBadSampleRate)
}

func TestDecodeWAVHeader_Rejects(t *testing.T) {
	_, err := DecodeWAVHeader([]byte("RIFF"))
	assert.ErrorIs(t, err, ErrShortHeader)

	junk := make([]byte, WAVHeaderSize)
	_, err = DecodeWAVHeader(junk)
	assert.ErrorIs(t, err, ErrNotRIFF)

	assert.False(t, IsWAV(junk))
	assert.True(t, IsWAV(EncodeWAV(nil, 16000)))
}

func TestBase64Helpers(t *testing.T) {
	raw := []byte{0x00, 0xff, 0x10, 0x80, 0x7f}
	s := EncodeBase64(raw)
	assert.Equal(t, "AP8QgH8=", s)

	back, err := DecodeBase64(s)
	require.NoError(t, err)
	assert.Equal(t, raw, back)
}
