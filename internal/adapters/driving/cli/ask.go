package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/regdesk/internal/core/ports/driving"
)

var askCmd = &cobra.Command{
	Use:     "ask [question]",
	Short:   "Ask one question about stored documents",
	Example: `  regdesk ask "What executive orders were published in the last month?"`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runAsk,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question session",
	Long: `Reads one question per line and prints one answer per question.
Earlier questions in the session are remembered as context.

Ctrl-C while an answer is being prepared cancels that answer.
Ctrl-D or "exit" ends the session.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	conversations, err := requireConversation()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	reply, err := conversations.NewSession().Submit(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	cmd.Println(reply.Text)
	return nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	conversations, err := requireConversation()
	if err != nil {
		return err
	}

	session := conversations.NewSession()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Ask about Federal Register documents. Type \"exit\" to quit.")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		answer, err := chatTurn(commandContext(cmd), session, line)
		if errors.Is(err, context.Canceled) {
			if commandContext(cmd).Err() != nil {
				return nil
			}
			fmt.Fprintln(out, "(cancelled)")
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, answer)
	}
}

// chatTurn submits one utterance. Interrupts during the turn cancel only
// this turn.
func chatTurn(ctx context.Context, session driving.Session, utterance string) (string, error) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	reply, err := session.Submit(turnCtx, utterance)
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}
