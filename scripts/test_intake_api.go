package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api/intake/v1"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{} // No timeout; model turns can be slow
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func chat(threadID, message string) {
	color.Cyan(">> %s", message)
	resp, body, err := sendRequest("POST", "/chat", map[string]interface{}{
		"thread_id": threadID,
		"message":   message,
	})
	if err != nil {
		color.Red("Request failed: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode != http.StatusOK {
		color.Red("Status %d: %s", resp.StatusCode, string(body))
		return
	}

	var parsed map[string]interface{}
	_ = json.Unmarshal(body, &parsed)
	prettyPrint(parsed)
}

func main() {
	threadID := "smoke-test-1"

	color.Yellow("=== Health ===")
	resp, body, err := sendRequest("GET", "/health", nil)
	if err != nil {
		color.Red("Server not reachable: %v", err)
		os.Exit(1)
	}
	color.Green("Status %d", resp.StatusCode)
	fmt.Println(string(body))

	color.Yellow("=== Intake conversation ===")
	chat(threadID, "Hi, I'd like a quote for flood insurance.")
	chat(threadID, "My name is Jane Doe, I live at 1 Main St, and my email is jane@example.com.")
	chat(threadID, "Yes, that's everything. Please submit it.")

	color.Yellow("=== Thread history ===")
	resp, body, err = sendRequest("GET", "/thread/"+threadID+"/history", nil)
	if err != nil {
		color.Red("Request failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status %d", resp.StatusCode)
	fmt.Println(string(body))

	color.Yellow("=== Cleanup ===")
	resp, _, err = sendRequest("DELETE", "/thread/"+threadID, nil)
	if err != nil {
		color.Red("Request failed: %v", err)
		os.Exit(1)
	}
	color.Green("Thread deleted (status %d)", resp.StatusCode)
}
