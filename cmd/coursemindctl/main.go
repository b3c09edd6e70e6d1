// coursemindctl is a small CLI client for a running coursemindd.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coursemind-io/coursemind/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "ask":
		cmdAsk(os.Args[2:])
	case "courses":
		cmdCourses()
	case "health":
		cmdHealth()
	case "sessions":
		if len(os.Args) < 4 || os.Args[2] != "clear" {
			fmt.Fprintln(os.Stderr, "usage: coursemindctl sessions clear <id>")
			os.Exit(1)
		}
		cmdSessionsClear(os.Args[3])
	case "config":
		if len(os.Args) < 4 || os.Args[2] != "validate" {
			fmt.Fprintln(os.Stderr, "usage: coursemindctl config validate <path>")
			os.Exit(1)
		}
		cmdConfigValidate(os.Args[3])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`coursemindctl - query a running coursemindd

Commands:
  ask [-s session] [question]   Ask a question (no question starts a REPL)
  courses                       List indexed courses
  sessions clear <id>           Drop a session's history
  health                        Check daemon health
  config validate <path>        Validate a config file

The API base URL is taken from COURSEMIND_API (default http://localhost:8000).`)
}

func apiBase() string {
	if v := os.Getenv("COURSEMIND_API"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://localhost:8000"
}

var httpClient = &http.Client{Timeout: 120 * time.Second}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type queryResponse struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	SessionID string   `json:"session_id"`
	Error     string   `json:"error"`
}

func cmdAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	sessionID := fs.String("s", "", "Session ID to continue")
	fs.Parse(args)

	if question := strings.TrimSpace(strings.Join(fs.Args(), " ")); question != "" {
		resp, err := ask(question, *sessionID)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		printAnswer(resp)
		return
	}

	// Interactive mode: keep the session across questions.
	session := *sessionID
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("coursemind - ask about the course materials (ctrl-d to exit)")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		resp, err := ask(question, session)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		session = resp.SessionID
		printAnswer(resp)
	}
}

func ask(question, sessionID string) (*queryResponse, error) {
	payload, err := json.Marshal(queryRequest{Query: question, SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Post(apiBase()+"/api/query", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return nil, fmt.Errorf("%s", out.Error)
		}
		return nil, fmt.Errorf("api returned status %d", resp.StatusCode)
	}
	return &out, nil
}

func printAnswer(resp *queryResponse) {
	answer := resp.Answer
	if answer == "" {
		answer = "(no answer)"
	}
	fmt.Println(answer)
	if len(resp.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range resp.Sources {
			fmt.Println("  -", s)
		}
	}
}

func cmdCourses() {
	body := get("/api/courses")
	var stats struct {
		TotalCourses int      `json:"total_courses"`
		CourseTitles []string `json:"course_titles"`
	}
	if err := json.Unmarshal(body, &stats); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Printf("%d course(s) indexed\n", stats.TotalCourses)
	for _, t := range stats.CourseTitles {
		fmt.Println("  -", t)
	}
}

func cmdHealth() {
	body := get("/api/health")
	fmt.Println(strings.TrimSpace(string(body)))
}

func cmdSessionsClear(id string) {
	req, err := http.NewRequest(http.MethodDelete, apiBase()+"/api/sessions/"+id, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	io.Copy(os.Stdout, resp.Body)
	fmt.Println()
}

func cmdConfigValidate(path string) {
	if _, err := config.Load(path); err != nil {
		fmt.Fprintln(os.Stderr, "invalid:", err)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func get(path string) []byte {
	resp, err := httpClient.Get(apiBase() + path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "api returned status %d: %s\n", resp.StatusCode, body)
		os.Exit(1)
	}
	return body
}
