package mail

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-it/helpdesk/internal/domain"
)

func listen(t *testing.T) (net.Listener, domain.MailSettings) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	addr := ln.Addr().(*net.TCPAddr)
	return ln, domain.MailSettings{Enabled: true, Host: "127.0.0.1", Port: addr.Port, FromEmail: "helpdesk@etsu.edu"}
}

func testMessage() Message {
	return Message{To: []string{"lovelace@etsu.edu"}, Subject: "Ticket Created", PlainBody: "plain", HTMLBody: "<p>html</p>"}
}

func TestSendReturnsWhenServerStalls(t *testing.T) {
	ln, cfg := listen(t)
	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := NewSMTPSender().Send(ctx, cfg, testMessage())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	select {
	case conn := <-accepted:
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, readErr := bufio.NewReader(conn).ReadByte()
		assert.Error(t, readErr, "client connection should be closed")
		conn.Close()
	case <-time.After(time.Second):
		t.Fatal("server never saw a connection")
	}
}

func TestSendDeliversOverSMTP(t *testing.T) {
	ln, cfg := listen(t)
	received := make(chan []string, 1)
	go serveOnce(ln, received)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, NewSMTPSender().Send(ctx, cfg, testMessage()))

	lines := <-received
	assert.Contains(t, lines, "MAIL FROM:<helpdesk@etsu.edu>")
	assert.Contains(t, lines, "RCPT TO:<lovelace@etsu.edu>")
	assert.Contains(t, lines, "Subject: Ticket Created")
	assert.Contains(t, lines, "QUIT")
}

// serveOnce speaks just enough SMTP for one delivery and reports every line
// the client sent.
func serveOnce(ln net.Listener, received chan<- []string) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	r := bufio.NewReader(conn)
	reply := func(code int, text string) {
		conn.Write([]byte(strconv.Itoa(code) + " " + text + "\r\n"))
	}
	var lines []string
	reply(220, "localhost ready")
	inData := false
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			break
		}
		line = strings.TrimRight(line, "\r\n")
		lines = append(lines, line)
		if inData {
			if line == "." {
				inData = false
				reply(250, "queued")
			}
			continue
		}
		switch verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0]); verb {
		case "EHLO", "HELO":
			reply(250, "localhost")
		case "DATA":
			inData = true
			reply(354, "go ahead")
		case "QUIT":
			reply(221, "bye")
			received <- lines
			return
		default:
			reply(250, "ok")
		}
	}
	received <- lines
}
