// Minimal end-to-end integration test for the IdeaLink API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"
)

var baseURL = getenv("API_URL", "http://localhost:8080/v1")

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	suffix := uuid.NewString()[:8]
	ownerTok, _ := signup("owner-"+suffix+"@example.com", "Olive Owner", "idea_owner")
	reqTok, reqProfile := signup("dev-"+suffix+"@example.com", "Rita Dev", "developer")

	ideaID := createIdea(ownerTok)
	requestID := requestCollaboration(reqTok, ideaID)
	decide(ownerTok, requestID)
	checkAccepted(reqTok)

	convID := openConversation(ownerTok, reqProfile)
	sendMessage(ownerTok, convID, http.StatusCreated)
	sendMessage(ownerTok, convID, http.StatusCreated)

	fmt.Println("✓ all endpoints passed")
}

func signup(email, name, role string) (token, profileID string) {
	var resp struct {
		Token   string
		Profile struct{ ID string }
	}
	doJSON("POST", "/auth/signup", map[string]any{
		"email":     email,
		"password":  "integration-pass-1",
		"full_name": name,
		"role":      role,
	}, &resp, http.StatusCreated)
	if resp.Token == "" {
		log.Fatal("signup: empty token")
	}
	return resp.Token, resp.Profile.ID
}

func createIdea(tok string) string {
	var resp struct{ ID string }
	doAuth(tok, "POST", "/ideas", map[string]any{
		"title":              "integration idea " + uuid.NewString(),
		"problem_statement":  "smoke test",
		"high_level_concept": "smoke test",
		"visibility":         "public",
		"category":           "tech",
	}, &resp, http.StatusCreated)
	return resp.ID
}

func requestCollaboration(tok, ideaID string) string {
	var resp struct{ ID string }
	doAuth(tok, "POST", "/requests", map[string]any{
		"idea_id": ideaID,
		"message": "integration request",
	}, &resp, http.StatusCreated)
	return resp.ID
}

func decide(tok, requestID string) {
	doAuth(tok, "PUT", "/requests/"+requestID, map[string]any{
		"decision": "approved",
		"version":  0,
	}, nil, http.StatusOK)
}

func checkAccepted(tok string) {
	var resp struct {
		Notifications []struct{ Type string }
	}
	doAuth(tok, "GET", "/notifications", nil, &resp, http.StatusOK)
	for _, n := range resp.Notifications {
		if n.Type == "collaboration_accepted" {
			return
		}
	}
	log.Fatal("notifications: acceptance not found")
}

func openConversation(tok, participantID string) string {
	var resp struct{ ID string }
	doAuth(tok, "POST", "/conversations", map[string]any{
		"participant_id": participantID,
	}, &resp, http.StatusOK)
	return resp.ID
}

func sendMessage(tok, convID string, want int) {
	doAuth(tok, "POST", "/conversations/"+convID+"/messages", map[string]any{
		"content": "integration message " + uuid.NewString(),
	}, nil, want)
}

// ----------------------------- helpers

func doAuth(token, method, path string, body, out any, want int) {
	doReq(method, path, token, body, out, want)
}

func doJSON(method, path string, body, out any, want int) {
	doReq(method, path, "", body, out, want)
}

func doReq(method, path, token string, body, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", method, path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}
