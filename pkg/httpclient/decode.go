package httpclient

import (
	"compress/flate"
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// decode swaps a compressed body for a decoding reader. The encoding and
// length headers are removed since they describe the wire bytes.
func (c *Client) decode(resp *http.Response) {
	enc := strings.ToLower(strings.TrimSpace(resp.Header.Get(HeaderContentEncoding)))

	var r io.Reader
	switch enc {
	case "", "identity":
		return
	case EncodingGzip:
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			c.logger.Warn("invalid gzip body, passing it through", slog.String("error", err.Error()))
			return
		}
		r = gz
	case EncodingDeflate:
		r = flate.NewReader(resp.Body)
	case EncodingBrotli:
		r = brotli.NewReader(resp.Body)
	default:
		c.logger.Debug("unsupported content encoding, passing body through", slog.String("encoding", enc))
		return
	}

	resp.Body = &decodedBody{Reader: r, wire: resp.Body}
	resp.Header.Del(HeaderContentEncoding)
	resp.Header.Del(HeaderContentLength)
	resp.ContentLength = -1
	resp.Uncompressed = true
}

// decodedBody reads decoded bytes and closes both the decoder and the wire
// body.
type decodedBody struct {
	io.Reader
	wire io.Closer
}

func (b *decodedBody) Close() error {
	if c, ok := b.Reader.(io.Closer); ok {
		_ = c.Close()
	}
	return b.wire.Close()
}

// cappedBody fails with ErrResponseTooLarge once more than the cap has
// been read. Bytes past the cap are still returned with the error.
type cappedBody struct {
	io.ReadCloser
	remaining int64
}

func (b *cappedBody) Read(p []byte) (int, error) {
	if b.remaining < 0 {
		return 0, ErrResponseTooLarge
	}
	n, err := b.ReadCloser.Read(p)
	b.remaining -= int64(n)
	if b.remaining < 0 {
		return n, ErrResponseTooLarge
	}
	return n, err
}
