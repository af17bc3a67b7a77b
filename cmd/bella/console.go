package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/agent"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/conversation"
)

// runConsole is the interactive surface: a line-oriented console loop over
// the conversation service. Plain input becomes a user turn; lines starting
// with "/" are commands. It returns when stdin closes, the user quits, or
// the context is cancelled.
func runConsole(ctx context.Context, conv *conversation.Service) error {
	printGreeting(conv)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Print("you> ")
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if strings.HasPrefix(text, "/") {
				if quit := runCommand(ctx, conv, text); quit {
					return nil
				}
				continue
			}
			conv.SendMessage(ctx, text)
			printReply(conv)
		}
	}
}

// runCommand executes one slash command and reports whether the loop should
// exit.
func runCommand(ctx context.Context, conv *conversation.Service, text string) bool {
	fields := strings.Fields(text)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println(`commands:
  /agent <domain> [message]   hand the next turn to a specialized agent
  /clear                      clear the conversation
  /status                     show connection status and mood
  /history                    print the conversation log
  /feedback <n> <1-5>         rate the n-th message in the log
  /report <n> [reason]        report the n-th message in the log
  /quit                       exit`)

	case "/clear":
		conv.ClearMessages(ctx)
		printGreeting(conv)

	case "/status":
		st := conv.ConnectionStatus()
		fmt.Printf("online=%v class=%s latency=%dms failures=%d mood=%s\n",
			st.IsOnline, st.Class, st.LatencyMs, st.ConsecutiveFailures, conv.Mood())

	case "/history":
		for i, msg := range conv.Messages() {
			who := "bella"
			if msg.IsUser {
				who = "you"
			}
			fmt.Printf("%3d %-5s %s\n", i, who, msg.Content)
		}

	case "/agent":
		if len(args) == 0 {
			fmt.Println("usage: /agent <coding|finance|medical|creative|research> [message]")
			return false
		}
		domain := agent.Domain(args[0])
		conv.ActivateAgent(ctx, domain, strings.Join(args[1:], " "))
		printReply(conv)

	case "/feedback":
		if len(args) != 2 {
			fmt.Println("usage: /feedback <index> <rating 1-5>")
			return false
		}
		msg, ok := messageAt(conv, args[0])
		if !ok {
			return false
		}
		rating, err := strconv.Atoi(args[1])
		if err != nil || rating < 1 || rating > 5 {
			fmt.Println("rating must be an integer from 1 to 5")
			return false
		}
		conv.SubmitFeedback(ctx, msg.ID, rating)
		fmt.Println("thanks for the feedback")

	case "/report":
		if len(args) == 0 {
			fmt.Println("usage: /report <index> [reason]")
			return false
		}
		msg, ok := messageAt(conv, args[0])
		if !ok {
			return false
		}
		conv.ReportMessage(ctx, msg.ID, strings.Join(args[1:], " "))
		fmt.Println("message reported")

	default:
		fmt.Printf("unknown command %s (try /help)\n", cmd)
	}
	return false
}

func messageAt(conv *conversation.Service, arg string) (conversation.Message, bool) {
	idx, err := strconv.Atoi(arg)
	msgs := conv.Messages()
	if err != nil || idx < 0 || idx >= len(msgs) {
		fmt.Printf("no message at index %q (see /history)\n", arg)
		return conversation.Message{}, false
	}
	return msgs[idx], true
}

// printReply prints the assistant's latest message, which SendMessage and
// ActivateAgent append synchronously before returning.
func printReply(conv *conversation.Service) {
	msgs := conv.Messages()
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.IsUser {
		return
	}
	fmt.Printf("bella> %s\n", last.Content)
}

func printGreeting(conv *conversation.Service) {
	for _, msg := range conv.Messages() {
		if !msg.IsUser {
			fmt.Printf("bella> %s\n", msg.Content)
			return
		}
	}
}
