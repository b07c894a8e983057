package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// terminalRetriever asks the operator for verification codes
type terminalRetriever struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

func newTerminalRetriever(in io.Reader, out io.Writer) *terminalRetriever {
	return &terminalRetriever{in: bufio.NewReader(in), out: out}
}

func (t *terminalRetriever) RetrieveCode(ctx context.Context, prompt, image string, _ map[string]interface{}) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if image != "" {
		fmt.Fprintf(t.out, "[image, %d base64 chars]\n", len(image))
	}
	fmt.Fprintf(t.out, "%s: ", prompt)

	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := t.in.ReadString('\n')
		ch <- answer{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case a := <-ch:
		if a.err != nil && !(errors.Is(a.err, io.EOF) && a.line != "") {
			return "", fmt.Errorf("read code: %w", a.err)
		}
		return strings.TrimSpace(a.line), nil
	}
}
