package agentrpc

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSendConnectionRefused(t *testing.T) {
	tr := transport{
		socketPath: filepath.Join(t.TempDir(), "absent.sock"),
		timeout:    time.Second,
	}

	_, err := tr.send(context.Background(), []byte("{}\n"))
	require.ErrorIs(t, err, ErrConnectionFailure)
}

func TestSendTimesOutWithoutResponse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.sock")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer ln.Close()

	// Accept and hold the connection open without ever responding.
	hold := make(chan struct{})
	defer close(hold)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		<-hold
	}()

	tr := transport{socketPath: path, timeout: 100 * time.Millisecond}
	_, err = tr.send(context.Background(), []byte("{}\n"))
	require.ErrorIs(t, err, ErrCallTimeout)
}

func TestSendEmptyResponseIsProtocolError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.sock")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		// Drain the request, then close without answering: the client
		// sees a clean EOF with no data. Closing with the request still
		// unread would reset the connection instead.
		bufio.NewReader(conn).ReadBytes('\n')
		conn.Close()
	}()

	tr := transport{socketPath: path, timeout: time.Second}
	_, err = tr.send(context.Background(), []byte("{}\n"))
	require.ErrorIs(t, err, ErrProtocol)
}

func TestSendReturnsResponseLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.sock")
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 1024)
		conn.Read(buf)
		conn.Write([]byte("{\"id\":1,\"result\":{}}\n"))
	}()

	tr := transport{socketPath: path, timeout: time.Second}
	resp, err := tr.send(context.Background(), []byte("{}\n"))
	require.NoError(t, err)
	require.JSONEq(t, `{"id":1,"result":{}}`, string(resp))
}
