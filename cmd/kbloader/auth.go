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

// resolveToken returns the bearer token for orchestrator calls. A --token
// flag wins; otherwise the loader logs in with the admin credentials from
// the environment.
func resolveToken() (string, error) {
	if authToken != "" {
		return authToken, nil
	}

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "password123"
	}

	postBody, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(
		strings.TrimRight(orchestratorURL, "/")+"/auth/login",
		"application/json", bytes.NewBuffer(postBody))
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login rejected, status %d: %s",
			resp.StatusCode, string(bodyBytes))
	}

	var loginResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(bodyBytes, &loginResp); err != nil {
		return "", fmt.Errorf("could not parse login response: %w", err)
	}
	if loginResp.AccessToken == "" {
		return "", fmt.Errorf("login response had no access_token")
	}
	return loginResp.AccessToken, nil
}
