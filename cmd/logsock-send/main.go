// logsock-send ships one or more messages to a running collector. With
// arguments it sends them joined as a single message; without, it reads
// stdin and sends each line as its own frame.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"logsock/internal/emitter"
	"logsock/internal/shared/protocol"
)

func main() {
	socketPath := flag.String("socket", "/tmp/debug.socket", "Collector socket path")
	proto := flag.Int("proto", protocol.Version, "Protocol version to stamp on frames")
	mux := flag.Bool("mux", false, "Send over a multiplexed session instead of one dial per frame")
	flag.Parse()

	var w *emitter.Writer
	if *mux {
		w = emitter.NewMux(*socketPath)
	} else {
		w = emitter.New(*socketPath)
	}
	w.Version = *proto
	defer w.Close()

	if flag.NArg() > 0 {
		if err := w.Emit(strings.Join(flag.Args(), " ")); err != nil {
			fmt.Fprintf(os.Stderr, "logsock-send: %v\n", err)
			os.Exit(1)
		}
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)
	for scanner.Scan() {
		if err := w.Emit(scanner.Text()); err != nil {
			fmt.Fprintf(os.Stderr, "logsock-send: %v\n", err)
			os.Exit(1)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "logsock-send: read stdin: %v\n", err)
		os.Exit(1)
	}
}
