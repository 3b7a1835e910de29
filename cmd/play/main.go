// Command play is a console entry point for the search engine: it binds
// a Registry to the LLM endpoint named by flags/environment and plays
// one game, either human-vs-engine over stdin or engine-vs-engine.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	chessagent "github.com/llmchess/core"
	"github.com/llmchess/core/logging"
	"github.com/llmchess/core/prompt"
	"github.com/llmchess/core/rules"
)

var (
	endpointFlag = flag.String("endpoint", "https://api.openai.com/v1/chat/completions", "oracle chat-completions endpoint")
	whiteFlag    = flag.String("white", "human", "white descriptor: human, random, minimax(gpt-3.5), minimax(gpt-4)")
	blackFlag    = flag.String("black", "minimax(gpt-4)", "black descriptor")
	maxPliesFlag = flag.Int("max_plies", 300, "ply cap for the game")
)

func main() {
	flag.Parse()

	apiKey := os.Getenv("LLM_API_KEY")
	orgID := os.Getenv("LLM_ORG_ID")

	logs := logging.NewStream(os.Stderr)
	defer logs.Close()

	reg := chessagent.NewRegistry(*endpointFlag, apiKey, orgID, logs)
	ctx := context.Background()

	state := rules.InitialState()
	stdin := bufio.NewReader(os.Stdin)

	white := chessagent.Descriptor(*whiteFlag)
	black := chessagent.Descriptor(*blackFlag)

	for ply := 0; ply < *maxPliesFlag; ply++ {
		endgame := rules.EndgameOf(state)
		if !endgame.InProgress {
			printOutcome(endgame)
			return
		}

		fmt.Println(prompt.Context(state))

		descriptor := white
		if state.ToMove == rules.Black {
			descriptor = black
		}

		var move rules.Move
		var err error
		if descriptor == chessagent.Human {
			move, err = readHumanMove(stdin, state)
		} else {
			move, err = reg.CallAgent(ctx, state, descriptor)
		}
		if err != nil {
			log.Fatalf("move failed: %v", err)
		}

		fmt.Printf("%s plays %s\n\n", state.ToMove, move.Algebraic)
		state = rules.Apply(state, move)
	}

	fmt.Println("ply cap reached, game called a draw")
}

func readHumanMove(stdin *bufio.Reader, state rules.GameState) (rules.Move, error) {
	legal := rules.LegalMoves(state, state.ToMove)
	for {
		fmt.Print("your move (algebraic): ")
		line, err := stdin.ReadString('\n')
		if err != nil {
			return rules.Move{}, err
		}
		line = trimNewline(line)
		for _, m := range legal {
			if m.Algebraic == line {
				return m, nil
			}
		}
		fmt.Println("not a legal move, try again")
	}
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func printOutcome(eg rules.Endgame) {
	if eg.Draw {
		fmt.Println("draw")
		return
	}
	fmt.Printf("checkmate: %s wins\n", eg.Checkmate.Opposite())
}
