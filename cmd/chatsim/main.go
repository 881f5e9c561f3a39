// Command chatsim drives the booking assistant from a terminal using the
// in-memory session store and ledger.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/wolfman30/vitalpoint-assistant/internal/app/bootstrap"
	appconfig "github.com/wolfman30/vitalpoint-assistant/internal/config"
	"github.com/wolfman30/vitalpoint-assistant/internal/conversation"
	"github.com/wolfman30/vitalpoint-assistant/internal/dialogue"
	"github.com/wolfman30/vitalpoint-assistant/internal/ledger"
	"github.com/wolfman30/vitalpoint-assistant/internal/session"
	"github.com/wolfman30/vitalpoint-assistant/pkg/logging"
)

type turnRunner interface {
	ProcessTurn(ctx context.Context, sessionID, text string) (*conversation.Turn, error)
}

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New("error")

	dir, err := bootstrap.BuildDirectory(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	svc, err := bootstrap.BuildConversationService(cfg, bootstrap.Dependencies{
		Directory: dir,
		Ledger:    ledger.NewMemoryLedger(),
		Store:     session.NewMemoryStore(),
	}, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := repl(context.Background(), svc, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// repl reads one message per line until EOF or "quit".
func repl(ctx context.Context, svc turnRunner, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	sessionID := ""
	fmt.Fprintln(out, "Type a message to start (\"quit\" to exit).")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
			return nil
		}

		turn, err := svc.ProcessTurn(ctx, sessionID, line)
		if errors.Is(err, dialogue.ErrEmptyInput) {
			continue
		}
		if err != nil {
			return err
		}
		sessionID = turn.SessionID
		fmt.Fprintln(out, turn.Message)
	}
}
