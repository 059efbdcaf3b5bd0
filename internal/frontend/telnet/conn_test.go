package telnet

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// pipeConn returns a Conn reading whatever is written to the returned client.
func pipeConn(t testing.TB) (*Conn, net.Conn) {
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return NewConn(server, 0, 0), client
}

func readLineFrom(t testing.TB, input []byte) string {
	conn, client := pipeConn(t)
	go func() { _, _ = client.Write(input) }()
	line, err := conn.ReadLine()
	require.NoError(t, err)
	return line
}

func TestReadLine_Plain(t *testing.T) {
	assert.Equal(t, "select ryu", readLineFrom(t, []byte("select ryu\r\n")))
}

func TestReadLine_BareLF(t *testing.T) {
	assert.Equal(t, "fight", readLineFrom(t, []byte("fight\n")))
}

func TestReadLine_StripsOptionNegotiation(t *testing.T) {
	input := []byte{IAC, WILL, OptEcho, 'h', 'i', IAC, DO, OptLinemode, '\r', '\n'}
	assert.Equal(t, "hi", readLineFrom(t, input))

	input = []byte{'a', IAC, DONT, OptEcho, 'b', IAC, WONT, OptSuppressGoAhead, '\n'}
	assert.Equal(t, "ab", readLineFrom(t, input))
}

func TestReadLine_StripsSubNegotiation(t *testing.T) {
	input := []byte{IAC, SB, 24, 0, 'x', 't', 'e', 'r', 'm', IAC, SE, 'o', 'k', '\n'}
	assert.Equal(t, "ok", readLineFrom(t, input))
}

func TestReadLine_IgnoresNOPAndEscapedIAC(t *testing.T) {
	input := []byte{'x', IAC, NOP, 'y', IAC, IAC, 'z', IAC, GA, '\n'}
	assert.Equal(t, "xyz", readLineFrom(t, input))
}

func TestReadLine_DropsControlCharacters(t *testing.T) {
	assert.Equal(t, "tap\tq", readLineFrom(t, []byte("t\x07ap\tq\x1b\n")))
}

func TestReadLine_ConsecutiveLines(t *testing.T) {
	conn, client := pipeConn(t)
	go func() { _, _ = client.Write([]byte("press a\r\nrelease a\n")) }()

	first, err := conn.ReadLine()
	require.NoError(t, err)
	second, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "press a", first)
	assert.Equal(t, "release a", second)
}

func TestReadLine_EOF(t *testing.T) {
	conn, client := pipeConn(t)
	go func() {
		_, _ = client.Write([]byte("partial"))
		_ = client.Close()
	}()
	line, err := conn.ReadLine()
	assert.Error(t, err)
	assert.Equal(t, "partial", line)
}

func TestConnID_Unique(t *testing.T) {
	a, _ := pipeConn(t)
	b, _ := pipeConn(t)
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

// Property: printable text survives ReadLine unchanged, whatever option
// negotiations are interleaved before it.
func TestPropertyReadLine_PrintableTextRoundTrips(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.StringMatching(`[ -~]{0,40}`).Draw(rt, "text")
		verbs := rapid.SliceOfN(rapid.SampledFrom([]byte{WILL, WONT, DO, DONT}), 0, 4).Draw(rt, "verbs")

		var input []byte
		for _, v := range verbs {
			input = append(input, IAC, v, OptSuppressGoAhead)
		}
		input = append(input, text...)
		input = append(input, '\r', '\n')

		if got := readLineFrom(t, input); got != text {
			rt.Fatalf("ReadLine(%q) = %q, want %q", input, got, text)
		}
	})
}

// Property: ReadLine output never contains IAC or control bytes other than tab.
func TestPropertyReadLine_OutputHasNoProtocolBytes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(rt, "raw")
		// A trailing negotiation-free terminator guarantees the read completes.
		input := append(append([]byte{}, raw...), IAC, NOP, '\n')

		conn, client := pipeConn(t)
		go func() {
			_, _ = client.Write(input)
			_ = client.Close()
		}()
		line, _ := conn.ReadLine()
		for _, b := range []byte(line) {
			if b == IAC || (b < 32 && b != '\t') {
				rt.Fatalf("ReadLine(%v) returned protocol byte 0x%02x in %q", input, b, line)
			}
		}
	})
}
