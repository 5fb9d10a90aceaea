package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "play":
		playCmd(apiURL, args)
	case "create":
		createCmd(apiURL, args)
	case "show":
		showCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Match Simulator - Development tool for playing matches over HTTP

USAGE:
  simulator <command> [options]

COMMANDS:
  play      Create a match and play every round as the human participant
  create    Create a match and print the invite code for others to join
  show      Print the current state of a match
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Play a full classic match (1 human vs 3 robots) to completion
  simulator play

  # Play a short 2-round mini match
  simulator play --template=mini_1v2 --rounds=2

  # Create a duo match and print the invite code for a second human
  simulator create --template=duo_2v2

  # Inspect a match by ID or invite code
  simulator show --match=AB12CD`)
}

var cannedAnswers = []string{
	"probably coffee, if I'm honest",
	"I once got lost in my own neighborhood",
	"the smell of rain on hot pavement",
	"whichever one has the least paperwork",
	"I'd teleport, no contest",
	"toast. it's always toast",
}

func playCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	template := fs.String("template", "classic_1v3", "Match template")
	rounds := fs.Int("rounds", 0, "Total rounds (0 uses the server default)")
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	fmt.Println("=== Match Simulator: Full Playthrough ===")
	fmt.Println()

	fmt.Print("Creating match... ")
	joined, err := client.CreateMatch("Simulator", *template, *rounds)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	m := &joined.Match
	fmt.Printf("OK (id: %s, code: %s, you are %s)\n", m.ID, m.InviteCode, joined.YourIdentity)

	for round := 1; m.Status != "completed"; round++ {
		fmt.Printf("\n--- Round %d/%d ---\n", round, m.TotalRounds)
		fmt.Printf("Prompt: %s\n", m.Rounds[round-1].Prompt)

		answer := cannedAnswers[rand.Intn(len(cannedAnswers))]
		fmt.Printf("Responding as %s: %q\n", joined.YourIdentity, answer)
		if _, err := client.SubmitResponse(m.ID, joined.YourIdentity, answer, round); err != nil {
			fmt.Printf("Failed to submit response: %v\n", err)
			os.Exit(1)
		}

		m, err = client.WaitForRoundStatus(m.ID, round, "voting", 60*time.Second)
		if err != nil {
			fmt.Printf("Round never reached voting: %v\n", err)
			os.Exit(1)
		}

		state := m.Rounds[round-1]
		fmt.Println("All responses in. Presentation order:")
		for _, identity := range state.PresentationOrder {
			fmt.Printf("  %s: %s\n", identity, state.Responses[identity])
		}

		target := pickVoteTarget(state.PresentationOrder, joined.YourIdentity)
		fmt.Printf("Voting for %s...\n", target)
		m, err = client.SubmitVote(m.ID, joined.YourIdentity, target, round)
		if err != nil {
			fmt.Printf("Failed to vote: %v\n", err)
			os.Exit(1)
		}

		m, err = client.WaitForRoundStatus(m.ID, round, "complete", 60*time.Second)
		if err != nil {
			fmt.Printf("Round never completed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Round scores: %v\n", m.Rounds[round-1].Scores)
	}

	fmt.Println()
	fmt.Println("=========================================")
	fmt.Println("  MATCH COMPLETED")
	fmt.Println("=========================================")
	fmt.Printf("  Totals: %v\n", m.Scores)
	for _, p := range m.Participants {
		role := "human"
		if p.IsAI != nil && *p.IsAI {
			role = "robot"
		}
		fmt.Printf("  %s (%s): %s\n", p.Identity, p.DisplayName, role)
	}
}

func pickVoteTarget(order []string, self string) string {
	candidates := make([]string, 0, len(order))
	for _, identity := range order {
		if identity != self {
			candidates = append(candidates, identity)
		}
	}
	return candidates[rand.Intn(len(candidates))]
}

func createCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	template := fs.String("template", "duo_2v2", "Match template")
	rounds := fs.Int("rounds", 0, "Total rounds (0 uses the server default)")
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	joined, err := client.CreateMatch("Simulator", *template, *rounds)
	if err != nil {
		fmt.Printf("Failed to create match: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=========================================")
	fmt.Println("  MATCH CREATED")
	fmt.Println("=========================================")
	fmt.Println()
	fmt.Printf("  Match ID:    %s\n", joined.Match.ID)
	fmt.Printf("  Invite Code: %s\n", joined.Match.InviteCode)
	fmt.Printf("  Status:      %s\n", joined.Match.Status)
	fmt.Printf("  You are:     %s\n", joined.YourIdentity)
	fmt.Println()
	fmt.Printf("  Join with: simulator show --match=%s\n", joined.Match.InviteCode)
}

func showCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	matchRef := fs.String("match", "", "Match ID or invite code (required)")
	fs.Parse(args)

	if *matchRef == "" {
		fmt.Println("Error: --match is required")
		fmt.Println("\nUsage: simulator show --match=AB12CD")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	m, err := client.GetMatch(*matchRef)
	if err != nil {
		fmt.Printf("Failed to get match: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Match %s (code: %s)\n", m.ID, m.InviteCode)
	fmt.Printf("  Status: %s, round %d/%d, template %s\n", m.Status, m.CurrentRound, m.TotalRounds, m.TemplateType)
	fmt.Println("  Participants:")
	for _, p := range m.Participants {
		fmt.Printf("    %s: %s\n", p.Identity, p.DisplayName)
	}
	for _, round := range m.Rounds {
		fmt.Printf("  Round %d [%s]: %s\n", round.RoundNumber, round.Status, round.Prompt)
		for identity, response := range round.Responses {
			fmt.Printf("    %s: %s\n", identity, response)
		}
		if len(round.Votes) > 0 {
			fmt.Printf("    votes: %v\n", round.Votes)
		}
	}
	if m.Scores != nil {
		fmt.Printf("  Totals: %v\n", m.Scores)
	}
}
