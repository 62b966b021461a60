package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// WAVHeaderSize is the size of the canonical RIFF/WAVE header.
	WAVHeaderSize = 44

	// MIMETypeWAV is the content type of an encoded container.
	MIMETypeWAV = "audio/wav"

	// ProviderSampleRate is the fixed rate of Gemini speech output.
	ProviderSampleRate = 24000

	pcmFormatTag  = 1
	monoChannels  = 1
	bitsPerSample = 16
	blockAlign    = monoChannels * bitsPerSample / 8
	fmtChunkSize  = 16
)

var (
	ErrShortHeader   = errors.New("wav header shorter than 44 bytes")
	ErrNotRIFF       = errors.New("missing RIFF/WAVE magic")
	ErrBadSampleRate = errors.New("sample rate must be positive")
)

// WAVFile is an encoded container ready to hand to a playback element.
type WAVFile struct {
	MIMEType   string
	SampleRate int
	Data       []byte
}

// PCM returns the payload following the header.
func (w *WAVFile) PCM() []byte {
	return w.Data[WAVHeaderSize:]
}

// WAVHeader holds the fields of a parsed canonical header.
type WAVHeader struct {
	RIFFSize      uint32
	FormatTag     uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// PCMToWAV decodes base64 PCM (16-bit signed little-endian mono) and frames
// it as a WAV container. Decode errors are returned unchanged.
func PCMToWAV(base64PCM string, sampleRate int) (*WAVFile, error) {
	pcm, err := DecodeBase64(base64PCM)
	if err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		return nil, ErrBadSampleRate
	}

	return &WAVFile{
		MIMEType:   MIMETypeWAV,
		SampleRate: sampleRate,
		Data:       EncodeWAV(pcm, sampleRate),
	}, nil
}

// EncodeWAV writes the 44-byte header followed by pcm.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	n := uint32(len(pcm))
	out := make([]byte, WAVHeaderSize+len(pcm))
	le := binary.LittleEndian

	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], 36+n)
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], fmtChunkSize)
	le.PutUint16(out[20:22], pcmFormatTag)
	le.PutUint16(out[22:24], monoChannels)
	le.PutUint32(out[24:28], uint32(sampleRate))
	le.PutUint32(out[28:32], uint32(sampleRate*blockAlign))
	le.PutUint16(out[32:34], blockAlign)
	le.PutUint16(out[34:36], bitsPerSample)

	copy(out[36:40], "data")
	le.PutUint32(out[40:44], n)
	copy(out[WAVHeaderSize:], pcm)

	return out
}

// DecodeWAVHeader parses the canonical header at the start of data.
func DecodeWAVHeader(data []byte) (WAVHeader, error) {
	if len(data) < WAVHeaderSize {
		return WAVHeader{}, ErrShortHeader
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return WAVHeader{}, ErrNotRIFF
	}
	if string(data[12:16]) != "fmt " || string(data[36:40]) != "data" {
		return WAVHeader{}, fmt.Errorf("unexpected chunk layout: %q/%q", data[12:16], data[36:40])
	}

	le := binary.LittleEndian
	return WAVHeader{
		RIFFSize:      le.Uint32(data[4:8]),
		FormatTag:     le.Uint16(data[20:22]),
		Channels:      le.Uint16(data[22:24]),
		SampleRate:    le.Uint32(data[24:28]),
		ByteRate:      le.Uint32(data[28:32]),
		BlockAlign:    le.Uint16(data[32:34]),
		BitsPerSample: le.Uint16(data[34:36]),
		DataSize:      le.Uint32(data[40:44]),
	}, nil
}

// IsWAV reports whether data starts with a RIFF/WAVE magic.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}
