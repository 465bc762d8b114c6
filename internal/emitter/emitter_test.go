package emitter

import (
	"bufio"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xtaci/smux"
)

// captureOne accepts a single connection and returns everything written
// on it.
func captureOne(t *testing.T, path string) <-chan string {
	t.Helper()
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			out <- ""
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		out <- string(data)
	}()
	return out
}

func recv(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for captured frame")
		return ""
	}
}

func TestEmit_WireFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.socket")
	captured := captureOne(t, path)

	w := New(path)
	require.NoError(t, w.Emit("hello"))
	require.Equal(t, "1\nhello\n", recv(t, captured))
}

func TestEmit_FlattensNewlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.socket")
	captured := captureOne(t, path)

	w := New(path)
	require.NoError(t, w.Emit("line one\nline two"))
	require.Equal(t, "1\nline one line two\n", recv(t, captured))
}

func TestWrite_StripsSingleTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.socket")
	captured := captureOne(t, path)

	w := New(path)
	n, err := w.Write([]byte("from a logger\n"))
	require.NoError(t, err)
	require.Equal(t, len("from a logger\n"), n)
	require.Equal(t, "1\nfrom a logger\n", recv(t, captured))
}

func TestEmit_CustomVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.socket")
	captured := captureOne(t, path)

	w := New(path)
	w.Version = 7
	require.NoError(t, w.Emit("future"))
	require.Equal(t, "7\nfuture\n", recv(t, captured))
}

func TestEmit_DialError(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing.socket"))
	err := w.Emit("nobody home")
	require.Error(t, err)
}

func TestEmit_Mux(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.socket")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer ln.Close()

	frames := make(chan string, 4)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		smuxConfig := smux.DefaultConfig()
		smuxConfig.Version = 2
		session, err := smux.Server(conn, smuxConfig)
		if err != nil {
			return
		}
		for {
			stream, err := session.AcceptStream()
			if err != nil {
				return
			}
			go func(st *smux.Stream) {
				defer st.Close()
				r := bufio.NewReader(st)
				version, _ := r.ReadString('\n')
				message, _ := r.ReadString('\n')
				frames <- version + message
			}(stream)
		}
	}()

	w := NewMux(path)
	defer w.Close()
	require.NoError(t, w.Emit("alpha"))
	require.NoError(t, w.Emit("beta"))

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case f := <-frames:
			got[f] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for mux frames")
		}
	}
	require.True(t, got["1\nalpha\n"])
	require.True(t, got["1\nbeta\n"])
}
