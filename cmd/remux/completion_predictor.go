package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/Prometheus1400/remux/internal/client"
	"github.com/Prometheus1400/remux/internal/config"
	"github.com/posener/complete"
)

type sessionPredictor struct{}

func (p sessionPredictor) Predict(a complete.Args) []string {
	socket := socketFromCompletionArgs(a)
	c, err := client.Connect(socket)
	if err != nil {
		return nil
	}
	defer c.Close()

	ids, err := c.ListSessions()
	if err != nil {
		return nil
	}

	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, strconv.FormatUint(uint64(id), 10))
	}
	return out
}

func socketFromCompletionArgs(a complete.Args) string {
	for i := 0; i < len(a.All); i++ {
		arg := a.All[i]
		if arg == "--socket" && i+1 < len(a.All) {
			return a.All[i+1]
		}
		if strings.HasPrefix(arg, "--socket=") {
			return strings.TrimPrefix(arg, "--socket=")
		}
	}
	if socket := os.Getenv("REMUX_SOCKET"); socket != "" {
		return socket
	}
	sock, err := config.SocketPath()
	if err != nil {
		return ""
	}
	return sock
}
