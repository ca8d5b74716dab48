package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentforest/agent"
)

var (
	chatSystemPrompt string
	chatNoTools      bool
	chatStream       bool
	chatTimeout      time.Duration
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with a single tool-using agent",
	Long: `Run one agent with the built-in tools (calculator, word_count, current_time).

With a message argument the agent answers once. Without arguments each line
read from stdin is sent as a new turn of the same conversation.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSystemPrompt, "system", "You are a helpful assistant. Use tools when they help.", "System prompt")
	chatCmd.Flags().BoolVar(&chatNoTools, "no-tools", false, "Run without the built-in tools")
	chatCmd.Flags().BoolVar(&chatStream, "stream", false, "Print the reply as it is generated")
	chatCmd.Flags().DurationVar(&chatTimeout, "timeout", 2*time.Minute, "Timeout per turn (0 disables)")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	a, err := rt.af.NewAgent("assistant", rt.llm, func(o *agent.Options) {
		o.SystemPrompt = chatSystemPrompt
		if !chatNoTools {
			o.Tools = builtinTools()
		}
		if chatStream {
			o.Stream = true
			o.OnChunk = func(text string) { fmt.Fprint(cmd.OutOrStdout(), text) }
		}
	})
	if err != nil {
		return err
	}

	if len(args) > 0 {
		return chatTurn(cmd, a, strings.Join(args, " "))
	}

	return chatLoop(cmd, a, cmd.InOrStdin())
}

func chatLoop(cmd *cobra.Command, a *agent.Agent, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := chatTurn(cmd, a, line); err != nil {
			if agent.IsIterationLimit(err) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				continue
			}
			return err
		}
	}
	return scanner.Err()
}

func chatTurn(cmd *cobra.Command, a *agent.Agent, text string) error {
	ctx, cancel := commandContext(cmd.Context(), chatTimeout)
	defer cancel()

	reply, err := a.Chat(ctx, text)
	if err != nil {
		return err
	}

	if chatStream {
		// the reply was already printed chunk by chunk
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), reply)

	return nil
}
