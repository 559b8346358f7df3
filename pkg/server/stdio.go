package server

import (
	"bufio"
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

const maxFrameSize = 16 * 1024 * 1024

// ServeStdio reads newline-delimited JSON-RPC messages from r and writes
// responses to w until r is exhausted or ctx is canceled. Logs must not go
// to w.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)

	log.Info("MCP server listening on stdio")
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		frame := make([]byte, len(line))
		copy(frame, line)

		if resp := s.Handle(ctx, frame); resp != nil {
			if _, err := w.Write(append(resp, '\n')); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}
	log.Debug("stdin closed, stopping MCP server")
	return nil
}
