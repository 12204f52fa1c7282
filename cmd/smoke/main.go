// Command smoke exercises a running API end to end: register an admin and a
// student, publish a targeted notice and verify who can see it.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

type session struct {
	Token string `json:"token"`
}

type noticeList struct {
	Notices []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"notices"`
}

func main() {
	base := os.Getenv("BOARD_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	client := &http.Client{Timeout: 10 * time.Second}
	suffix := rand.New(rand.NewSource(time.Now().UnixNano())).Int63()

	adminEmail := fmt.Sprintf("smoke-admin-%d@example.com", suffix)
	studentEmail := fmt.Sprintf("smoke-student-%d@example.com", suffix)

	post(client, base+"/api/admin/register", "", map[string]any{
		"username": fmt.Sprintf("smokeadmin%d", suffix),
		"email":    adminEmail,
		"phone":    "0000000000",
		"password": "smoke-password",
	})
	post(client, base+"/api/register", "", map[string]any{
		"username": fmt.Sprintf("smokestudent%d", suffix),
		"email":    studentEmail,
		"phone":    "0000000000",
		"password": "smoke-password",
		"branch":   "CSE",
	})

	var adminSess, studentSess session
	decode(post(client, base+"/api/admin/login", "", map[string]any{
		"email": adminEmail, "password": "smoke-password",
	}), &adminSess)
	decode(post(client, base+"/api/login", "", map[string]any{
		"email": studentEmail, "password": "smoke-password",
	}), &studentSess)

	title := fmt.Sprintf("smoke notice %d", suffix)
	post(client, base+"/api/admin/post", adminSess.Token, map[string]any{
		"title":       title,
		"description": "posted by the smoke test",
		"category":    "student",
		"branch":      "CSE",
	})

	var visible noticeList
	decode(get(client, base+"/api/student/CSE/notices", studentSess.Token), &visible)
	if !contains(visible, title) {
		log.Fatalf("student cannot see the targeted notice %q", title)
	}

	var anonymous noticeList
	decode(get(client, base+"/api/notices", ""), &anonymous)
	if contains(anonymous, title) {
		log.Fatalf("targeted notice %q leaked to the anonymous listing", title)
	}

	fmt.Println("smoke test passed")
}

func post(client *http.Client, url, token string, body map[string]any) []byte {
	payload, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("build request %s: %v", url, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return do(client, req, token)
}

func get(client *http.Client, url, token string) []byte {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		log.Fatalf("build request %s: %v", url, err)
	}
	return do(client, req, token)
}

func do(client *http.Client, req *http.Request, token string) []byte {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if resp.StatusCode >= 400 {
		log.Fatalf("%s %s: status %d: %s", req.Method, req.URL, resp.StatusCode, buf.String())
	}
	return buf.Bytes()
}

func decode(raw []byte, dst any) {
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Fatalf("decode response: %v", err)
	}
}

func contains(list noticeList, title string) bool {
	for _, n := range list.Notices {
		if n.Title == title {
			return true
		}
	}
	return false
}
