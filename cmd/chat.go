package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive advisor session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sessionID := chatSessionID
		if sessionID == "" {
			sessionID = uuid.New().String()
		}

		fmt.Printf("session %s (type 'exit' to quit)\n", sessionID)
		if !env.Monitor.Healthy(ctx, "predict") {
			fmt.Println("note: the prediction service is unreachable; estimates will fall back to general guidance")
		}
		fmt.Println()

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "exit" || line == "quit" {
				break
			}

			reply, err := env.Orchestrator.HandleMessage(ctx, sessionID, line, nil)
			if err != nil {
				return err
			}
			fmt.Printf("\n%s\n\n", reply.Text)
		}
		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "resume an existing session id")
	rootCmd.AddCommand(chatCmd)
}
