package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Walks the chat API end to end against a running server. Set SMOKE_TOKEN
// to a valid access token; anonymous steps run without it.

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

func extractData(body []byte) map[string]interface{} {
	var parsed map[string]interface{}
	json.Unmarshal(body, &parsed)
	if data, ok := parsed["data"].(map[string]interface{}); ok {
		return data
	}
	return nil
}

func main() {
	token := os.Getenv("SMOKE_TOKEN")

	color.Cyan("Starting Chat API smoke walk\n")

	// 1. Create a chat
	color.Yellow("\n1. Create chat")
	resp, body, err := sendRequest("POST", "/chat/v1", token, map[string]interface{}{
		"title":           "Smoke test chat",
		"initial_message": "Hello from the smoke walker",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	data := extractData(body)
	prettyPrint(data)

	var chatID string
	if data != nil {
		chatID, _ = data["chat_id"].(string)
	}
	if chatID == "" {
		color.Red("No chat id returned, aborting")
		os.Exit(1)
	}

	// 2. Stream a turn
	color.Yellow("\n2. Stream a model turn")
	streamBody, _ := json.Marshal(map[string]interface{}{
		"messages": []map[string]string{
			{"role": "user", "content": "Say hi in five words or fewer."},
		},
		"chat_id": chatID,
	})
	req, _ := http.NewRequest("POST", baseURL+"/chat/v1/stream", bytes.NewBuffer(streamBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	streamResp, err := http.DefaultClient.Do(req)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", streamResp.Status)

	scanner := bufio.NewScanner(streamResp.Body)
	var assistantText strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var event struct {
			Type  string `json:"type"`
			Delta string `json:"delta"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(line[6:]), &event); err != nil {
			continue
		}
		switch event.Type {
		case "token":
			assistantText.WriteString(event.Delta)
		case "error":
			color.Red("Stream error: %s", event.Error)
		}
	}
	streamResp.Body.Close()
	fmt.Printf("Assistant: %s\n", assistantText.String())

	// 3. Save the assistant turn
	color.Yellow("\n3. Save assistant message")
	resp, body, err = sendRequest("POST", "/chat/v1/message", token, map[string]interface{}{
		"chat_id": chatID,
		"role":    "assistant",
		"content": assistantText.String(),
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)

	// 4. Fetch the transcript
	color.Yellow("\n4. Fetch messages")
	resp, body, err = sendRequest("GET", "/chat/v1/"+chatID+"/messages", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var msgResp map[string]interface{}
	json.Unmarshal(body, &msgResp)
	prettyPrint(msgResp)

	// 5. Share the chat and read it back anonymously
	color.Yellow("\n5. Create share")
	resp, body, err = sendRequest("POST", "/share/v1", token, map[string]interface{}{
		"chat_id": chatID,
		"title":   "Smoke test share",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	shareData := extractData(body)
	prettyPrint(shareData)

	var shareToken string
	if shareData != nil {
		shareToken, _ = shareData["share_token"].(string)
	}

	if shareToken != "" {
		color.Yellow("\n6. Read share anonymously")
		resp, body, err = sendRequest("GET", "/share/v1?token="+shareToken, "", nil)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		color.Green("Status: %s", resp.Status)

		if token != "" {
			color.Yellow("\n7. Import the share")
			resp, body, err = sendRequest("POST", "/share/v1/import", token, map[string]interface{}{
				"share_token": shareToken,
			})
			if err != nil {
				color.Red("Failed: %v", err)
				os.Exit(1)
			}
			color.Green("Status: %s", resp.Status)
			prettyPrint(extractData(body))
		}
	}

	// 8. Delete the chat
	color.Yellow("\n8. Delete chat")
	resp, _, err = sendRequest("DELETE", "/chat/v1/"+chatID, token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)

	color.Cyan("\nSmoke walk complete")
}
