// Command cli is a terminal client for the conversation API, mostly useful
// for poking at a local server without the browser frontend. It drives the
// same stream reducer the tests use, so what it prints is exactly the
// message list a UI would render.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"ventureforge/internal/model"
	"ventureforge/internal/reducer"
)

func main() {
	addr := flag.String("addr", "http://localhost:8000", "server base URL")
	session := flag.String("session", "", "existing session id (default: create a new one)")
	profilePath := flag.String("profile", "", "path to an intake profile JSON file (required for a new session)")
	flag.Parse()

	client := &http.Client{}

	sessionID := *session
	if sessionID == "" {
		profile, err := loadProfile(*profilePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "could not load profile:", err)
			os.Exit(1)
		}
		id, err := createSession(client, *addr, profile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "could not create session:", err)
			os.Exit(1)
		}
		sessionID = id
	}
	fmt.Println("session:", sessionID)
	fmt.Println(`type a message, or "/select <card-id> <value>" to answer a card`)

	r := reducer.New()
	p := &printer{}

	stdin := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !stdin.Scan() {
			return
		}
		line := strings.TrimSpace(stdin.Text())
		if line == "" {
			continue
		}

		message := line
		if rest, ok := strings.CutPrefix(line, "/select "); ok {
			cardID, value, found := strings.Cut(rest, " ")
			if !found {
				fmt.Println("usage: /select <card-id> <value>")
				continue
			}
			message = r.CompleteCard(cardID, value, value)
			if message == "" {
				fmt.Println("unknown or already answered card:", cardID)
				continue
			}
		} else {
			r.AddUserMessage(line, false)
		}
		p.skipUserMessages(r)

		if err := streamTurn(client, *addr, sessionID, message, r, p); err != nil {
			fmt.Fprintln(os.Stderr, "turn failed:", err)
		}
	}
}

// loadProfile reads the intake profile the server requires at session
// creation. The conversation never collects these fields, so a new session
// cannot start without them.
func loadProfile(path string) (*model.Profile, error) {
	if path == "" {
		return nil, fmt.Errorf("new sessions need -profile pointing at an intake JSON file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func createSession(client *http.Client, addr string, profile *model.Profile) (string, error) {
	body, err := json.Marshal(map[string]any{"profile": profile})
	if err != nil {
		return "", err
	}
	resp, err := client.Post(addr+"/api/v1/sessions", "application/json", strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	var record model.SessionRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return "", err
	}
	return record.ID, nil
}

func streamTurn(client *http.Client, addr, sessionID, message string, r *reducer.Reducer, p *printer) error {
	body, err := json.Marshal(map[string]string{"user_message": message})
	if err != nil {
		return err
	}
	resp, err := client.Post(
		addr+"/api/v1/conversations/"+sessionID+"/stream",
		"application/json",
		strings.NewReader(string(body)),
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		r.ApplyLine(scanner.Text())
		p.flush(r)
	}
	if r.LastError != "" {
		fmt.Fprintln(os.Stderr, "stream error:", r.LastError)
		r.LastError = ""
	}
	return scanner.Err()
}

// printer incrementally renders the reducer's message list: text messages
// print as their deltas land, cards print once when they appear.
type printer struct {
	msgIdx  int
	textLen int
}

func (p *printer) skipUserMessages(r *reducer.Reducer) {
	for p.msgIdx < len(r.Messages) && r.Messages[p.msgIdx].Role == "user" {
		p.msgIdx++
	}
}

func (p *printer) flush(r *reducer.Reducer) {
	for p.msgIdx < len(r.Messages) {
		msg := r.Messages[p.msgIdx]
		if msg.Role == "user" {
			p.msgIdx++
			continue
		}
		if msg.Type == model.MessageCard {
			printCard(msg.Card)
			p.msgIdx++
			continue
		}
		fmt.Print(msg.Content[p.textLen:])
		p.textLen = len(msg.Content)
		if msg.IsStreaming {
			// Still open; later deltas append here.
			return
		}
		fmt.Println()
		p.textLen = 0
		p.msgIdx++
	}
}

func printCard(card *model.Card) {
	if card == nil {
		return
	}
	fmt.Printf("\n[%s %s]\n", card.Type, card.ID)
	if card.Question != "" {
		fmt.Println(" ", card.Question)
	}
	for _, opt := range card.Options {
		fmt.Printf("  - %s (%s)\n", opt.Label, opt.Value)
	}
	for _, step := range card.Steps {
		fmt.Printf("  [%s] %s\n", step.Status, step.Label)
	}
	for _, rec := range card.Recommendations {
		fmt.Printf("  %s (%d/100): %s\n", rec.Niche, rec.SegmentScores.Total, rec.Bottleneck)
	}
	for _, field := range card.Fields {
		fmt.Printf("  %s: %s\n", field.Label, field.Value)
	}
	if card.Demo != nil {
		fmt.Println("  demo page:", card.Demo.HeroHeadline)
	}
}
