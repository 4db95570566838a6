package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/coder/websocket"
	"golang.org/x/term"
)

func runHealth(args []string) error {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the raw response")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// A degraded server answers 503 with a JSON body, so read the body
	// regardless of status code.
	c := newClient()
	resp, err := c.http.Get(c.baseURL + "/health")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	var status struct {
		Status   string `json:"status"`
		Postgres string `json:"postgres"`
		NATS     string `json:"nats"`
		LiteLLM  string `json:"litellm"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}

	if *asJSON {
		return printJSON(status)
	}
	fmt.Printf("status:   %s\n", status.Status)
	fmt.Printf("postgres: %s\n", status.Postgres)
	fmt.Printf("nats:     %s\n", status.NATS)
	fmt.Printf("litellm:  %s\n", status.LiteLLM)
	return nil
}

func runLogin(args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email address (required)")
	asJSON := fs.Bool("json", false, "print the raw response")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := newClient().do("POST", "/api/v1/auth/login", map[string]string{
		"email":    *email,
		"password": password,
	}, &resp); err != nil {
		return err
	}

	if *asJSON {
		return printJSON(resp)
	}
	fmt.Fprintf(os.Stderr, "Token valid for %ds. Export it:\n\n", resp.ExpiresIn)
	fmt.Printf("export LETTERDESK_TOKEN=%s\n", resp.AccessToken)
	return nil
}

func runDraft(args []string) error {
	fs := flag.NewFlagSet("draft", flag.ContinueOnError)
	conversation := fs.Bool("conversation", false, "include the full panel transcript in the output")
	asJSON := fs.Bool("json", false, "print the raw response")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := bufio.NewReader(os.Stdin)
	name, err := promptLine(in, "Customer name: ")
	if err != nil {
		return err
	}
	policy, err := promptLine(in, "Policy number: ")
	if err != nil {
		return err
	}
	address, err := promptLine(in, "Address (optional): ")
	if err != nil {
		return err
	}
	phone, err := promptLine(in, "Phone (optional): ")
	if err != nil {
		return err
	}
	email, err := promptLine(in, "Email (optional): ")
	if err != nil {
		return err
	}
	agent, err := promptLine(in, "Agent name (optional): ")
	if err != nil {
		return err
	}
	letterType, err := promptLine(in, "Letter type: ")
	if err != nil {
		return err
	}
	prompt, err := promptLine(in, "Request details: ")
	if err != nil {
		return err
	}

	body := map[string]any{
		"customer_info": map[string]string{
			"name":          name,
			"policy_number": policy,
			"address":       address,
			"phone":         phone,
			"email":         email,
			"agent_name":    agent,
		},
		"letter_type":          letterType,
		"user_prompt":          prompt,
		"include_conversation": *conversation,
	}

	fmt.Fprintln(os.Stderr, "Running the review panel, this can take a few minutes...")

	var result struct {
		LetterContent  string `json:"letter_content"`
		ApprovalStatus struct {
			Status          string `json:"status"`
			OverallApproved bool   `json:"overall_approved"`
		} `json:"approval_status"`
		TotalRounds  int    `json:"total_rounds"`
		DocumentID   string `json:"document_id"`
		StorageError string `json:"storage_error"`
		Conversation []struct {
			Round   int    `json:"round"`
			Agent   string `json:"agent"`
			Message string `json:"message"`
		} `json:"agent_conversation"`
	}
	if err := newClient().do("POST", "/api/v1/letters/draft", body, &result); err != nil {
		return err
	}

	if *asJSON {
		return printJSON(result)
	}

	fmt.Printf("\n--- Letter (%s after %d round(s)) ---\n\n", result.ApprovalStatus.Status, result.TotalRounds)
	fmt.Println(result.LetterContent)
	if result.DocumentID != "" {
		fmt.Printf("\nSaved as %s\n", result.DocumentID)
	}
	if result.StorageError != "" {
		fmt.Fprintf(os.Stderr, "\nWarning: letter was not persisted: %s\n", result.StorageError)
	}
	if *conversation {
		fmt.Println("\n--- Panel transcript ---")
		for _, entry := range result.Conversation {
			fmt.Printf("\n[round %d] %s:\n%s\n", entry.Round, entry.Agent, entry.Message)
		}
	}
	return nil
}

func runSuggest(args []string) error {
	fs := flag.NewFlagSet("suggest", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the raw response")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prompt := strings.Join(fs.Args(), " ")
	if prompt == "" {
		return fmt.Errorf("usage: letterctl suggest <request text>")
	}

	var suggestion struct {
		SuggestedType    string   `json:"suggested_type"`
		Confidence       float64  `json:"confidence"`
		Reasoning        string   `json:"reasoning"`
		AlternativeTypes []string `json:"alternative_types"`
	}
	if err := newClient().do("POST", "/api/v1/letters/suggest-type", map[string]string{
		"prompt": prompt,
	}, &suggestion); err != nil {
		return err
	}

	if *asJSON {
		return printJSON(suggestion)
	}
	fmt.Printf("suggested type: %s (confidence %.2f)\n", suggestion.SuggestedType, suggestion.Confidence)
	if len(suggestion.AlternativeTypes) > 0 {
		fmt.Printf("alternatives:   %s\n", strings.Join(suggestion.AlternativeTypes, ", "))
	}
	return nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	file := fs.String("file", "", "path to the letter text (required)")
	letterType := fs.String("type", "general", "letter type for compliance context")
	asJSON := fs.Bool("json", false, "print the raw response")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("--file is required")
	}

	content, err := os.ReadFile(*file)
	if err != nil {
		return err
	}

	var result struct {
		IsValid          bool     `json:"is_valid"`
		ComplianceIssues []string `json:"compliance_issues"`
		Suggestions      []string `json:"suggestions"`
		ComplianceScore  float64  `json:"compliance_score"`
	}
	if err := newClient().do("POST", "/api/v1/letters/validate", map[string]string{
		"letter_content": string(content),
		"letter_type":    *letterType,
	}, &result); err != nil {
		return err
	}

	if *asJSON {
		return printJSON(result)
	}
	verdict := "VALID"
	if !result.IsValid {
		verdict = "INVALID"
	}
	fmt.Printf("%s (score %.2f)\n", verdict, result.ComplianceScore)
	for _, issue := range result.ComplianceIssues {
		fmt.Printf("  issue: %s\n", issue)
	}
	for _, s := range result.Suggestions {
		fmt.Printf("  suggestion: %s\n", s)
	}
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	customer := fs.String("customer", "", "filter by customer name")
	letterType := fs.String("type", "", "filter by letter type")
	limit := fs.Int("limit", 20, "maximum results")
	asJSON := fs.Bool("json", false, "print the raw response")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := "/api/v1/letters?limit=" + strconv.Itoa(*limit)
	if *customer != "" {
		path += "&customer=" + url.QueryEscape(*customer)
	}
	if *letterType != "" {
		path += "&type=" + url.QueryEscape(*letterType)
	}

	var letters []struct {
		ID           string `json:"id"`
		CustomerName string `json:"customer_name"`
		LetterType   string `json:"letter_type"`
		ReviewStatus string `json:"review_status"`
		TotalRounds  int    `json:"total_rounds"`
		CreatedAt    string `json:"created_at"`
	}
	if err := newClient().do("GET", path, nil, &letters); err != nil {
		return err
	}

	if *asJSON {
		return printJSON(letters)
	}
	if len(letters) == 0 {
		fmt.Println("No letters found.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCUSTOMER\tTYPE\tSTATUS\tROUNDS\tCREATED")
	for _, l := range letters {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			l.ID, l.CustomerName, l.LetterType, l.ReviewStatus, l.TotalRounds, l.CreatedAt)
	}
	return w.Flush()
}

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print the raw response")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: letterctl get <id>")
	}

	var l struct {
		ID           string          `json:"id"`
		CustomerName string          `json:"customer_name"`
		PolicyNumber string          `json:"policy_number"`
		LetterType   string          `json:"letter_type"`
		Content      string          `json:"content"`
		ReviewStatus string          `json:"review_status"`
		TotalRounds  int             `json:"total_rounds"`
		Approval     json.RawMessage `json:"approval_details"`
	}
	if err := newClient().do("GET", "/api/v1/letters/"+fs.Arg(0), nil, &l); err != nil {
		return err
	}

	if *asJSON {
		return printJSON(l)
	}
	fmt.Printf("id:      %s\n", l.ID)
	fmt.Printf("customer: %s (policy %s)\n", l.CustomerName, l.PolicyNumber)
	fmt.Printf("type:    %s\n", l.LetterType)
	fmt.Printf("status:  %s after %d round(s)\n\n", l.ReviewStatus, l.TotalRounds)
	fmt.Println(l.Content)
	return nil
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: letterctl status <id> <approved|needs_review|sent|rejected>")
	}

	if err := newClient().do("PATCH", "/api/v1/letters/"+fs.Arg(0)+"/status", map[string]string{
		"status": fs.Arg(1),
	}, nil); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Letter %s marked %s\n", fs.Arg(0), fs.Arg(1))
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: letterctl delete <id>")
	}

	if err := newClient().do("DELETE", "/api/v1/letters/"+fs.Arg(0), nil, nil); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Letter %s deleted\n", fs.Arg(0))
	return nil
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print raw event envelopes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c := newClient()
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/ws"
	if c.token != "" {
		wsURL += "?token=" + c.token
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", wsURL, err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	fmt.Fprintln(os.Stderr, "Watching panel progress, Ctrl-C to stop...")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if *asJSON {
			fmt.Println(string(data))
			continue
		}
		printEvent(data)
	}
}

// printEvent renders one hub event for terminal display.
func printEvent(data []byte) {
	var envelope struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		fmt.Println(string(data))
		return
	}

	switch envelope.Type {
	case "panel.round":
		var e struct {
			RequestID string `json:"request_id"`
			Round     int    `json:"round"`
			MaxRounds int    `json:"max_rounds"`
		}
		if json.Unmarshal(envelope.Payload, &e) == nil {
			fmt.Printf("[%s] round %d/%d started\n", e.RequestID, e.Round, e.MaxRounds)
		}
	case "panel.message":
		var e struct {
			RequestID string `json:"request_id"`
			Round     int    `json:"round"`
			Agent     string `json:"agent"`
			Message   string `json:"message"`
		}
		if json.Unmarshal(envelope.Payload, &e) == nil {
			fmt.Printf("[%s] round %d, %s: %s\n", e.RequestID, e.Round, e.Agent, excerpt(e.Message, 120))
		}
	case "panel.done":
		var e struct {
			RequestID   string `json:"request_id"`
			Status      string `json:"status"`
			TotalRounds int    `json:"total_rounds"`
			DocumentID  string `json:"document_id"`
		}
		if json.Unmarshal(envelope.Payload, &e) == nil {
			fmt.Printf("[%s] done: %s after %d round(s), document %s\n",
				e.RequestID, e.Status, e.TotalRounds, e.DocumentID)
		}
	default:
		fmt.Println(string(data))
	}
}

func excerpt(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// promptLine reads one trimmed line from the reader.
func promptLine(in *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
