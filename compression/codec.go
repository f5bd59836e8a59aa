package compression

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type Codec uint8

const (
	NoCompression Codec = iota
	Lz4Compression
	ZstdCompression
)

func (c Codec) String() string {
	switch c {
	case NoCompression:
		return "none"
	case Lz4Compression:
		return "lz4"
	case ZstdCompression:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lz4":
		return Lz4Compression, nil
	case "none":
		return NoCompression, nil
	case "zstd":
		return ZstdCompression, nil
	default:
		return NoCompression, fmt.Errorf("unknown compression codec '%s'", name)
	}
}

func CompressLz4(src []byte, output *bytes.Buffer) error {
	zw := lz4.NewWriter(output)

	if _, err := zw.Write(src); err != nil {
		return err
	}

	flushErr := zw.Flush()

	if flushErr != nil {
		return flushErr
	}

	return zw.Close()
}

func DecompressLz4(src []byte) ([]byte, error) {
	zr := lz4.NewReader(bytes.NewReader(src))
	return io.ReadAll(zr)
}

func Compress(codec Codec, src []byte) ([]byte, error) {
	switch codec {
	case NoCompression:
		return src, nil
	case Lz4Compression:
		output := bytes.Buffer{}
		if err := CompressLz4(src, &output); err != nil {
			return nil, fmt.Errorf("lz4 compression failed: %s", err.Error())
		}
		return output.Bytes(), nil
	case ZstdCompression:
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer encoder.Close()
		return encoder.EncodeAll(src, nil), nil
	default:
		return nil, fmt.Errorf("unsupported codec %s", codec.String())
	}
}

func Decompress(codec Codec, src []byte) ([]byte, error) {
	switch codec {
	case NoCompression:
		return src, nil
	case Lz4Compression:
		return DecompressLz4(src)
	case ZstdCompression:
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer decoder.Close()
		return decoder.DecodeAll(src, nil)
	default:
		return nil, fmt.Errorf("unsupported codec %s", codec.String())
	}
}
