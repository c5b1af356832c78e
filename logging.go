package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	slogseq "github.com/sokkalf/slog-seq"
)

// multiHandler forwards every record to each of its handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// setupLogger logs as text to w and, when seqURL is set, to Seq as well.
// The returned func flushes the Seq batch.
func setupLogger(w io.Writer, seqURL string, debug bool) (*slog.Logger, func()) {

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	options := &slog.HandlerOptions{Level: level}

	consoleHandler := slog.NewTextHandler(w, options)

	if seqURL == "" {
		return slog.New(consoleHandler), func() {}
	}

	_, seqHandler := slogseq.NewLogger(
		seqURL,
		slogseq.WithBatchSize(10),
		slogseq.WithFlushInterval(500*time.Millisecond),
		slogseq.WithHandlerOptions(options),
	)

	// Seq unavailable, console only
	if seqHandler == nil {
		return slog.New(consoleHandler), func() {}
	}

	logger := slog.New(&multiHandler{
		handlers: []slog.Handler{consoleHandler, seqHandler},
	})

	return logger, func() {
		seqHandler.Close()
	}
}
