// Command sqld wires the catalog, storage, and session engine together
// into a runnable server. A framed wire-protocol listener is not part of
// this build, so Server drives the session engine from a line-oriented
// simple-query stdin/stdout loop instead, standing in for a real
// frontend/backend codec.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/tolledo/database/internal/catalog"
	"github.com/tolledo/database/internal/session"
	"github.com/tolledo/database/internal/storage/disk"
	"github.com/tolledo/database/internal/storage/memory"
	"github.com/tolledo/database/pkg/pgwire"
)

type config struct {
	diskPath string
	logger   *zap.Logger
	in       io.Reader
	out      io.Writer
}

// Option configures a Server, following the same functional-options shape
// pkg/fixgres.Option uses for its sandbox config.
type Option func(*config)

// WithDiskStorage opens the bbolt-backed durable catalog at path instead
// of the default in-memory one.
func WithDiskStorage(path string) Option {
	return func(c *config) { c.diskPath = path }
}

// WithLogger overrides the server's zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithIO overrides the server's input/output streams, mainly for tests.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(c *config) { c.in, c.out = in, out }
}

// Server owns one session.Engine over a shared catalog and drives it from
// a simple-query request/response loop.
type Server struct {
	engine *session.Engine
	cfg    *config
}

// NewServer builds a Server from the given options, opening either the
// in-memory or bbolt-backed storage engine depending on configuration.
func NewServer(opts ...Option) (*Server, error) {
	cfg := &config{logger: zap.NewNop(), in: os.Stdin, out: os.Stdout}
	for _, o := range opts {
		o(cfg)
	}

	dd, err := buildCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("sqld: open storage: %w", err)
	}

	return &Server{
		engine: session.NewEngine(dd, cfg.logger),
		cfg:    cfg,
	}, nil
}

func buildCatalog(cfg *config) (*catalog.DataDefinition, error) {
	if cfg.diskPath != "" {
		store, err := disk.Open(cfg.diskPath)
		if err != nil {
			return nil, err
		}
		return catalog.New(store, cfg.logger)
	}
	return catalog.New(memory.NewCatalog(), cfg.logger)
}

// lineSender renders query events as human-readable lines, the way a psql
// front end would render a RowDescription/DataRow/CommandComplete stream.
type lineSender struct {
	out io.Writer
}

func (s *lineSender) Send(event pgwire.QueryEvent, qerr *pgwire.QueryError) error {
	if qerr != nil {
		_, err := fmt.Fprintf(s.out, "ERROR: %s\n", qerr.Error())
		return err
	}
	switch event.Kind {
	case pgwire.EventRow:
		cells := make([]string, len(event.Row))
		for i, v := range event.Row {
			cells[i] = formatValue(v)
		}
		_, err := fmt.Fprintln(s.out, strings.Join(cells, "\t"))
		return err
	case pgwire.EventSchemaCreated:
		_, err := fmt.Fprintln(s.out, "CREATE SCHEMA")
		return err
	case pgwire.EventSchemaDropped:
		_, err := fmt.Fprintln(s.out, "DROP SCHEMA")
		return err
	case pgwire.EventTableCreated:
		_, err := fmt.Fprintln(s.out, "CREATE TABLE")
		return err
	case pgwire.EventTableDropped:
		_, err := fmt.Fprintln(s.out, "DROP TABLE")
		return err
	case pgwire.EventRecordsInserted:
		_, err := fmt.Fprintf(s.out, "INSERT %d\n", event.RecordCount)
		return err
	case pgwire.EventRecordsUpdated:
		_, err := fmt.Fprintf(s.out, "UPDATE %d\n", event.RecordCount)
		return err
	case pgwire.EventRecordsDeleted:
		_, err := fmt.Fprintf(s.out, "DELETE %d\n", event.RecordCount)
		return err
	case pgwire.EventRecordsSelected:
		_, err := fmt.Fprintf(s.out, "SELECT %d\n", event.RecordCount)
		return err
	case pgwire.EventQueryComplete:
		return nil
	default:
		return nil
	}
}

func (s *lineSender) Flush() error { return nil }

// formatValue renders a decoded wire value for the line-oriented client,
// using whichever field Kind says is populated.
func formatValue(v pgwire.PostgreSqlValue) string {
	switch v.Kind {
	case pgwire.ValueNull:
		return "NULL"
	case pgwire.ValueBool:
		return fmt.Sprintf("%t", v.B)
	case pgwire.ValueInt16, pgwire.ValueInt32, pgwire.ValueInt64:
		return fmt.Sprintf("%d", v.I)
	case pgwire.ValueFloat32, pgwire.ValueFloat64:
		return fmt.Sprintf("%v", v.F)
	case pgwire.ValueString:
		return v.S
	default:
		return ""
	}
}

// Run reads one SQL statement per line from cfg.in until EOF, executing
// each through the simple query flow and writing results to cfg.out.
func (s *Server) Run() error {
	in, out := s.cfg.in, s.cfg.out
	scanner := bufio.NewScanner(in)
	sender := &lineSender{out: out}
	for scanner.Scan() {
		sql := strings.TrimSpace(scanner.Text())
		if sql == "" {
			continue
		}
		if err := s.engine.Execute(pgwire.QueryCommand{SQL: sql}, sender); err != nil {
			if err == session.ErrTerminated {
				return nil
			}
			return err
		}
	}
	return scanner.Err()
}
