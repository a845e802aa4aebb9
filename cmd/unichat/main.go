package main

// main.go

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/unichat-app/unichat/chatcontext"
	"github.com/unichat-app/unichat/config"
	"github.com/unichat-app/unichat/session"
	"github.com/unichat-app/unichat/store"
	"github.com/unichat-app/unichat/types"
)

// echoTransport is a local stand-in for a model provider backend.
type echoTransport struct{}

func (echoTransport) SendToModel(_ context.Context, outbound, model, _ string) (session.Reply, error) {
	return session.Reply{
		Content: fmt.Sprintf("[%s] %s", model, chatcontext.Extract(outbound, "", nil)),
	}, nil
}

func main() {
	confFilepath := ""
	if len(os.Args) == 2 {
		confFilepath = os.Args[1]
	}

	conf, err := config.Load(confFilepath)
	if err != nil {
		log.Fatalf("failed to load config: %s", err)
	}
	if conf.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	runChat(conf)
}

func runChat(conf config.Config) {
	s := session.New(store.New(), echoTransport{}, session.Options{
		Settings:      types.ContextSettings{Enabled: conf.ContextEnabled, Level: conf.ContextLevel},
		Model:         conf.Model,
		Capacity:      conf.OriginalsCapacity,
		PruneInterval: conf.PruneInterval(),
	})
	defer s.Close()

	const conversationID = "local"

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
		case input == "/quit":
			return
		case input == "/history":
			history, err := s.Render(conversationID)
			if err != nil {
				log.Error(err)
				break
			}
			for _, m := range history {
				fmt.Printf("%s: %s\n", m.Role, m.Content)
			}
		default:
			_, reply, err := s.Send(context.Background(), conversationID, input)
			if err != nil {
				log.Error(err)
			} else {
				fmt.Println(reply.Content)
			}
		}
		fmt.Print("> ")
	}
}
