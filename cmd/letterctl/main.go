// Command letterctl is a terminal client for the LetterDesk HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] == "help" || os.Args[1] == "--help" {
		printHelp()
		if len(os.Args) < 2 {
			os.Exit(1)
		}
		return
	}

	if err := dispatch(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "letterctl: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(command string, args []string) error {
	switch command {
	case "health":
		return runHealth(args)
	case "login":
		return runLogin(args)
	case "draft":
		return runDraft(args)
	case "suggest":
		return runSuggest(args)
	case "validate":
		return runValidate(args)
	case "list":
		return runList(args)
	case "get":
		return runGet(args)
	case "status":
		return runStatus(args)
	case "delete":
		return runDelete(args)
	case "watch":
		return runWatch(args)
	default:
		printHelp()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Usage: letterctl <command> [options]

Commands:
  health     Check service health
  login      Obtain a bearer token
  draft      Draft a letter through the review panel (interactive)
  suggest    Suggest a letter type for a request prompt
  validate   Validate letter content from a file
  list       List stored letters
  get        Fetch one stored letter by id
  status     Update a letter's review status
  delete     Soft-delete a letter
  watch      Stream live panel progress over WebSocket
  help       Show this help message

Environment:
  LETTERDESK_URL    Server base URL (default http://localhost:8080)
  LETTERDESK_TOKEN  Bearer token from 'letterctl login'

Examples:
  letterctl login --email admin@letterdesk.local
  letterctl draft --conversation
  letterctl suggest "customer wants to cancel after a premium increase"
  letterctl validate --file letter.txt --type claim_denial
  letterctl list --customer "Jane Smith" --limit 10
  letterctl status <letter-id> sent
  letterctl watch
`)
}

// client is a thin wrapper over the LetterDesk HTTP API.
type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient() *client {
	base := os.Getenv("LETTERDESK_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	return &client{
		baseURL: strings.TrimRight(base, "/"),
		token:   os.Getenv("LETTERDESK_TOKEN"),
		http:    &http.Client{Timeout: 10 * time.Minute},
	}
}

// do sends one API request and decodes the JSON response into out.
// Non-2xx responses are returned as errors carrying the server message.
func (c *client) do(method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
