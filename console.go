package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	"github.com/dot5enko/simple-hash-db/manager"
	"github.com/dot5enko/simple-hash-db/query"
	"github.com/dot5enko/simple-hash-db/table"
	"github.com/fatih/color"
)

var (
	errorColor   = color.New(color.FgRed)
	commentColor = color.New(color.FgYellow)
	headerColor  = color.New(color.FgGreen)
)

type console struct {
	db    *manager.Manager
	out   io.Writer
	debug bool
}

// run reads lines until EOF or exit. A line holds statements separated by
// semicolons, a statement starting with -- is a comment.
func (c *console) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(c.out, ">> ")

		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		fmt.Fprintln(c.out)

		for _, statement := range strings.Split(scanner.Text(), ";") {
			statement = strings.TrimSpace(statement)

			switch {
			case statement == "":
				continue
			case strings.HasPrefix(statement, "--"):
				commentColor.Fprintf(c.out, "COMMENT: %s\n\n", strings.TrimSpace(statement[2:]))
				continue
			case strings.EqualFold(statement, "exit"):
				return nil
			}

			c.execute(statement)
			fmt.Fprintln(c.out)
		}
	}
}

func (c *console) execute(statement string) {
	fmt.Fprintf(c.out, "Query: %s\n", statement)

	res, err := query.Interpret(c.db, statement)
	if err != nil {
		errorColor.Fprintf(c.out, "Error: %s\n", err.Error())
		return
	}

	if c.debug {
		spew.Fdump(c.out, res)
	}

	switch {
	case res.Path != "":
		fmt.Fprintf(c.out, "Exported %d rows to %s\n", res.Affected, res.Path)
	case res.Table != nil:
		if err := printTable(c.out, res.Table); err != nil {
			errorColor.Fprintf(c.out, "Error: %s\n", err.Error())
		}
	default:
		fmt.Fprintf(c.out, "Number of Rows Affected: %d\n", res.Affected)
	}
}

func printTable(w io.Writer, t table.Table) error {
	s := t.Schema()

	headerColor.Fprintf(w, "Table: %s (%s, %d rows)\n", t.Name(), t.Kind(), t.Size())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	for i, col := range s.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		marker := ""
		if i == s.PrimaryIndex {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s%s (%s)", col.Name, marker, col.Type)
	}
	fmt.Fprintln(tw)

	for i := range s.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, "---")
	}
	fmt.Fprintln(tw)

	for row, err := range t.Rows() {
		if err != nil {
			tw.Flush()
			return err
		}
		for i, v := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, v.String())
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}
