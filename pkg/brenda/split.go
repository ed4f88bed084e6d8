package brenda

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// BlockText is the raw text of one block, up to and including its "///"
// separator line.
type BlockText struct {
	Index     int
	StartLine int
	EndLine   int
	Text      string
}

// SplitBlocks cuts a dump into block texts without parsing fields. Text
// after the last separator is returned as a final block if it holds
// anything besides blank and comment lines.
func SplitBlocks(r io.Reader, fn func(BlockText) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var (
		text       strings.Builder
		index      int
		lineNumber int
		start      = 1
		hasContent bool
	)

	emit := func() error {
		block := BlockText{Index: index, StartLine: start, EndLine: lineNumber, Text: text.String()}
		index++
		start = lineNumber + 1
		text.Reset()
		hasContent = false
		return fn(block)
	}

	for scanner.Scan() {
		lineNumber++
		raw := scanner.Text()
		text.WriteString(raw)
		text.WriteByte('\n')

		switch classifyLine(raw).kind {
		case lineSeparator:
			if err := emit(); err != nil {
				return err
			}
		case lineBlank, lineComment:
		default:
			hasContent = true
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading line %d: %w", lineNumber+1, err)
	}

	if hasContent {
		return emit()
	}
	return nil
}

// ParseParallel parses a dump with a pool of workers, one block at a time
// per worker. Blocks are split sequentially first, so local IDs never cross
// a block boundary. The parser's resolver must be safe for concurrent use.
// Records come back in input order. workers <= 0 uses GOMAXPROCS.
func (p *Parser) ParseParallel(ctx context.Context, r io.Reader, workers int) (*Collection, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	blocks := make(chan BlockText, workers)

	g.Go(func() error {
		defer close(blocks)
		return SplitBlocks(r, func(block BlockText) error {
			select {
			case blocks <- block:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	var (
		mu      sync.Mutex
		results = make(map[int][]*Record)
	)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for block := range blocks {
				var parsed []*Record
				err := p.stream(ctx, strings.NewReader(block.Text), block.StartLine, func(record *Record) error {
					parsed = append(parsed, record)
					return nil
				})
				if err != nil {
					return err
				}

				mu.Lock()
				results[block.Index] = parsed
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := NewCollection()
	for i := 0; i < len(results); i++ {
		for _, record := range results[i] {
			p.put(records, record)
		}
	}
	return records, nil
}
