package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"contractqa/internal/domain"
	"contractqa/internal/logger"
	"contractqa/internal/tui"
	"contractqa/internal/watch"
)

var (
	chatWatch bool
	chatPlain bool
)

var chatCmd = &cobra.Command{
	Use:   "chat <analysis-file>",
	Short: "Ask questions interactively",
	Long: `Chat opens an interactive session over one analysis file. On a terminal
it starts a full-screen view; otherwise it reads one question per line.
Type exit, quit or q to leave.

With --watch the file is re-indexed whenever it changes on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatWatch, "watch", false, "rebuild the index when the file changes")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "line-oriented prompt even on a terminal")
}

func runChat(cmd *cobra.Command, args []string) error {
	s, err := newSession(args[0])
	if err != nil {
		return err
	}
	h, err := s.open()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	interactive := !chatPlain && term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	if !interactive {
		if chatWatch {
			if err := s.watch(ctx, func(n int, _ domain.Overview) {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n[re-indexed %d segments]\n", n)
			}); err != nil {
				return err
			}
		}
		return runREPL(ctx, s, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	p := tea.NewProgram(tui.New(s, filepath.Base(s.path), s.overview(h)), tea.WithAltScreen(), tea.WithContext(ctx))
	if chatWatch {
		if err := s.watch(ctx, func(n int, ov domain.Overview) {
			p.Send(tui.ReloadedMsg{Segments: n, Overview: ov})
		}); err != nil {
			return err
		}
	}
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// watch rebuilds the session's index on every change to its file and reports
// each successful rebuild.
func (s *session) watch(ctx context.Context, notify func(segments int, ov domain.Overview)) error {
	events, err := watch.Watch(ctx, s.path)
	if err != nil {
		return err
	}
	go func() {
		for range events {
			h, err := s.rebuild()
			if err != nil {
				logger.Warn("rebuild after change failed: %v", err)
				continue
			}
			notify(h.Corpus.Len(), s.overview(h))
		}
	}()
	return nil
}

// runREPL answers one question per input line until EOF or an exit word.
func runREPL(ctx context.Context, a tui.Asker, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	fmt.Fprint(out, "> ")
	for sc.Scan() {
		q := strings.TrimSpace(sc.Text())
		switch strings.ToLower(q) {
		case "exit", "quit", "q":
			return nil
		case "":
			fmt.Fprint(out, "> ")
			continue
		}
		res, err := a.Ask(ctx, q)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		} else {
			printAnswer(out, res)
		}
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(out, "\n> ")
	}
	return sc.Err()
}
