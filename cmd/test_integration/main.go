// Smoke test for a running server: builds the graph from the
// configured data directory, then walks every endpoint. Start the
// server first, then run this against it.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const baseURL = "http://localhost:8080"

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Smoke Test...")

	step("Health check", http.MethodGet, "/healthz", nil)
	step("Build knowledge graph", http.MethodPost, "/build", nil)
	step("Graph query", http.MethodPost, "/graph/query", map[string]string{
		"question": "Who is Marie Curie?",
	})
	step("Hybrid query", http.MethodPost, "/query", map[string]string{
		"query": "What is the main topic of the documents?",
	})
	step("Save feedback", http.MethodPost, "/feedback", map[string]any{
		"query":    "What is the main topic of the documents?",
		"response": map[string]any{"answer": "smoke test answer", "sources": []any{}},
		"rating":   4,
		"comment":  "smoke test",
	})
	step("Feedback analytics", http.MethodGet, "/feedback/analytics", nil)

	fmt.Println("All endpoints responded.")
}

func step(name, method, endpoint string, payload any) {
	fmt.Printf("%s...\n", name)
	if !call(method, endpoint, payload) {
		fmt.Printf("FAILED: %s\n", name)
		os.Exit(1)
	}
	fmt.Printf("PASSED: %s\n", name)
}

func call(method, endpoint string, payload any) bool {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("Error encoding payload: %v\n", err)
			return false
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, data)
		return false
	}
	fmt.Printf("Response: %s\n", data)
	return true
}
