package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hyperjump/interleave/internal/cli"
	apperrors "github.com/hyperjump/interleave/internal/errors"
	"github.com/hyperjump/interleave/internal/models"
	"github.com/hyperjump/interleave/internal/session"
)

type fixupAction int

const (
	actionAccept fixupAction = iota
	actionPick
	actionSet
	actionSearch
	actionHelp
	actionQuit
)

type fixupCommand struct {
	action fixupAction
	src    int
	dst    int
	query  string
}

const fixupHelp = `Commands:
  <enter>        accept the suggested match (*)
  <n>            match destination n
  -              leave the source item unmatched
  set <s> <d>    match source s to destination d directly
  / <words>      search the destination chapter (typos tolerated)
  h              show this help
  q              quit (choices so far are saved)
`

// parseFixupCommand parses one line typed at the fix-up prompt.
func parseFixupCommand(line string) (fixupCommand, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "" || line == "y":
		return fixupCommand{action: actionAccept}, nil
	case line == "q" || line == "quit":
		return fixupCommand{action: actionQuit}, nil
	case line == "h" || line == "help" || line == "?":
		return fixupCommand{action: actionHelp}, nil
	case line == "-" || line == "x":
		return fixupCommand{action: actionPick, dst: models.Unmatched}, nil
	case strings.HasPrefix(line, "/"):
		q := strings.TrimSpace(strings.TrimPrefix(line, "/"))
		if q == "" {
			return fixupCommand{}, fmt.Errorf("search needs words")
		}
		return fixupCommand{action: actionSearch, query: q}, nil
	case strings.HasPrefix(line, "set "):
		fields := strings.Fields(strings.TrimPrefix(line, "set "))
		if len(fields) != 2 {
			return fixupCommand{}, fmt.Errorf("usage: set <src> <dst>")
		}
		src, err := strconv.Atoi(fields[0])
		if err != nil {
			return fixupCommand{}, fmt.Errorf("invalid source index %q", fields[0])
		}
		dst, err := strconv.Atoi(fields[1])
		if err != nil {
			return fixupCommand{}, fmt.Errorf("invalid destination index %q", fields[1])
		}
		return fixupCommand{action: actionSet, src: src, dst: dst}, nil
	}
	dst, err := strconv.Atoi(line)
	if err != nil {
		return fixupCommand{}, fmt.Errorf("unknown command %q (h for help)", line)
	}
	return fixupCommand{action: actionPick, dst: dst}, nil
}

// runFixupLoop walks the flagged points of s, reading one command per line from in,
// until every point is confirmed, the input ends, or the operator quits.
func runFixupLoop(ctx context.Context, m *session.Manager, s *session.Session, in io.Reader, out io.Writer, format cli.OutputFormat) error {
	scanner := bufio.NewScanner(in)
	for {
		view, ok := m.NextFixupPoint(s)
		if !ok {
			fmt.Fprintln(out, "All points confirmed.")
			return nil
		}
		if err := cli.WriteFixupView(out, view, format); err != nil {
			return err
		}
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		cmd, err := parseFixupCommand(scanner.Text())
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}

		switch cmd.action {
		case actionQuit:
			return nil
		case actionHelp:
			fmt.Fprint(out, fixupHelp)
		case actionSearch:
			hits, err := m.SearchDestination(ctx, s, cmd.query, 5, &session.SearchOptions{Fuzzy: true, Semantic: true})
			if err != nil {
				return err
			}
			if err := cli.WriteSearchHits(out, hits, format); err != nil {
				return err
			}
		case actionAccept:
			err = m.ConfirmFixup(ctx, s, view.Point.SrcIndex, view.Point.SuggestedDst)
		case actionPick:
			err = m.ConfirmFixup(ctx, s, view.Point.SrcIndex, cmd.dst)
		case actionSet:
			err = m.ConfirmFixupAt(ctx, s, cmd.src, cmd.dst)
		}
		if err != nil {
			if errors.Is(err, apperrors.ErrInput) {
				fmt.Fprintln(out, err)
				continue
			}
			return err
		}
	}
}
