package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ProviderCall records one request received by a FakeProvider.
type ProviderCall struct {
	Ability      string         `json:"ability"`
	Parameters   map[string]any `json:"parameters"`
	Capabilities []string       `json:"server_capabilities"`
}

// ProviderReply scripts the response for an ability. A zero Status means 200.
// Body, when set, is written verbatim instead of {"data": Data}.
type ProviderReply struct {
	Status int
	Data   map[string]any
	Body   string
}

// FakeProvider is an httptest capability provider serving POST /execute.
type FakeProvider struct {
	Server *httptest.Server

	mu      sync.Mutex
	calls   []ProviderCall
	replies map[string]ProviderReply
}

// NewFakeProvider starts a fake provider that answers every ability with
// DefaultProviderData until scripted otherwise. The server closes on cleanup.
func NewFakeProvider(t testing.TB) *FakeProvider {
	t.Helper()
	f := &FakeProvider{replies: map[string]ProviderReply{}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the provider base URL.
func (f *FakeProvider) URL() string { return f.Server.URL }

// Reply scripts the response for ability.
func (f *FakeProvider) Reply(ability string, reply ProviderReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[ability] = reply
}

// Calls returns a copy of the received requests in arrival order.
func (f *FakeProvider) Calls() []ProviderCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ProviderCall(nil), f.calls...)
}

// Abilities returns the ability names received in arrival order.
func (f *FakeProvider) Abilities() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Ability
	}
	return out
}

func (f *FakeProvider) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/execute" {
		http.NotFound(w, r)
		return
	}
	var call ProviderCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	reply, scripted := f.replies[call.Ability]
	f.mu.Unlock()

	if !scripted {
		reply = ProviderReply{Data: DefaultProviderData(call.Ability)}
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if reply.Body != "" {
		_, _ = w.Write([]byte(reply.Body))
		return
	}
	data := reply.Data
	if data == nil {
		data = map[string]any{}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

// DefaultProviderData returns a plausible payload for ability: confident
// entity extraction and a high solution score, so the default catalog skips
// clarification.
func DefaultProviderData(ability string) map[string]any {
	switch ability {
	case "parse_request_text":
		return map[string]any{"intent": "technical_support", "summary": "slow connection"}
	case "extract_entities":
		return map[string]any{"issue": "connectivity", "confidence": 0.9}
	case "knowledge_base_search":
		return map[string]any{"results": []any{"Restart the router", "Check line status"}}
	case "solution_evaluation":
		return map[string]any{"score": 0.9}
	case "extract_answer":
		return map[string]any{"answer": "Yes, it started yesterday"}
	case "response_generation":
		return map[string]any{"response": "Please restart your router."}
	case "output_payload":
		return map[string]any{"status": "completed"}
	default:
		return map[string]any{"ok": true}
	}
}
