package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/fatih/color"
)

// Smoke test for the gateway API. Run the gateway locally, export
// SMOKE_TOKEN with a valid access token, then:
//
//	go run ./cmd/smoke path/to/notes.png

const baseURL = "http://localhost:3000/api"

func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func uploadFile(url, token, path string) (*http.Response, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", path)
	if err != nil {
		return nil, nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, nil, err
	}
	writer.Close()

	req, err := http.NewRequest("POST", baseURL+url, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	color.Cyan("Starting gateway smoke test\n")

	token := os.Getenv("SMOKE_TOKEN")
	if token == "" {
		color.Red("SMOKE_TOKEN is not set")
		os.Exit(1)
	}

	// 1. Workspace should answer even when empty
	color.Yellow("\n1. Get active workspace")
	resp, body, err := sendRequest("GET", "/sessions/active", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var wsResp map[string]interface{}
	json.Unmarshal(body, &wsResp)
	prettyPrint(wsResp)

	// 2. Upload a file if one was given
	if len(os.Args) > 1 {
		color.Yellow("\n2. Select file %s", os.Args[1])
		resp, body, err = uploadFile("/sessions/select-file", token, os.Args[1])
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		color.Green("Status: %s", resp.Status)
		var selectResp map[string]interface{}
		json.Unmarshal(body, &selectResp)
		prettyPrint(selectResp)

		// 3. Ask the chat panel something
		color.Yellow("\n3. Chat about the extracted text")
		resp, body, err = sendRequest("POST", "/sessions/chat", token, map[string]string{
			"message": "What are the key topics here?",
		})
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		color.Green("Status: %s", resp.Status)
		var chatResp map[string]interface{}
		json.Unmarshal(body, &chatResp)
		prettyPrint(chatResp)
	}

	// 4. List prior sessions
	color.Yellow("\n4. List sessions")
	resp, body, err = sendRequest("GET", "/sessions/", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var listResp map[string]interface{}
	json.Unmarshal(body, &listResp)
	prettyPrint(listResp)

	// 5. Dark mode round trip
	color.Yellow("\n5. Toggle dark mode")
	resp, body, err = sendRequest("PUT", "/preferences/dark-mode", token, map[string]bool{"dark_mode": true})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var prefResp map[string]interface{}
	json.Unmarshal(body, &prefResp)
	prettyPrint(prefResp)

	color.Cyan("\nSmoke test finished")
}
