// Mockprovider is a simple test HTTP server that mimics a completion
// provider endpoint for fallback router testing.
//
// Usage:
//
//	go run mockprovider.go -port 8081
//	go run mockprovider.go -port 8082 -fail-rate 0.5
//	go run mockprovider.go -port 8083 -fail
//
// It accepts the router's completion payload on / and echoes a canned
// completion back. -fail makes every request return 500; -fail-rate makes
// a random fraction of requests fail, which is handy for exercising the
// failure window and threshold policies end to end.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
)

// CompletionRequest is the payload the fallback router sends.
type CompletionRequest struct {
	Model  string         `json:"model"`
	Prompt string         `json:"prompt"`
	Params map[string]any `json:"params"`
}

func main() {
	port := flag.Int("port", 8081, "port to listen on")
	name := flag.String("name", "mock", "provider name echoed in responses")
	fail := flag.Bool("fail", false, "fail every request with 500")
	failRate := flag.Float64("fail-rate", 0, "fraction of requests to fail (0..1)")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		// log request for visibility when running multiple providers
		log.Printf("request: from=%s body=%s", r.RemoteAddr, string(body))

		if *fail || (*failRate > 0 && rand.Float64() < *failRate) {
			http.Error(w, "injected provider failure", http.StatusInternalServerError)
			return
		}

		var req CompletionRequest
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		resp := map[string]any{
			"provider":   *name,
			"model":      req.Model,
			"completion": fmt.Sprintf("Mock response for prompt: %s", req.Prompt),
		}
		b, _ := json.Marshal(resp)
		w.Header().Set("Content-Type", "application/json")
		w.Write(b)
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("starting mock provider %q on %s", *name, addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
