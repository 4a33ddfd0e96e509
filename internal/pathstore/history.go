package pathstore

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Run is one recorded review of a document.
type Run struct {
	RunID           string    `json:"run_id"`
	DocumentID      string    `json:"document_id"`
	Title           string    `json:"title"`
	ContentHash     string    `json:"content_hash"`
	Mode            string    `json:"mode"`
	Status          string    `json:"status"`
	Summary         string    `json:"summary,omitempty"`
	Sections        int       `json:"sections"`
	Critiqued       int       `json:"critiqued"`
	WritesAttempted int       `json:"writes_attempted"`
	WritesSucceeded int       `json:"writes_succeeded"`
	CreatedAt       time.Time `json:"created_at"`
}

const latestKey = "latest"

func docPrefix(docID string) string {
	return "reviews/" + docID
}

// RemoteHistory keeps review runs in pathstore under reviews/{docID}/{runID},
// with a copy of the newest run at reviews/{docID}/latest.
type RemoteHistory struct {
	client *Client
	ttl    time.Duration
}

// NewRemoteHistory stores runs through c. A positive ttl sets an expiry on
// every written node.
func NewRemoteHistory(c *Client, ttl time.Duration) *RemoteHistory {
	return &RemoteHistory{client: c, ttl: ttl}
}

func (h *RemoteHistory) node(run Run) NodeRequest {
	req := NodeRequest{Value: run, MergeMode: "replace", Source: "docreview"}
	if h.ttl > 0 {
		req.ExpiresAt = run.CreatedAt.Add(h.ttl).UTC().Format(time.RFC3339)
	}
	return req
}

// Record stores run and marks it as the latest for its document.
func (h *RemoteHistory) Record(ctx context.Context, run Run) error {
	prefix := docPrefix(run.DocumentID)
	if err := h.client.PutNode(ctx, prefix+"/"+run.RunID, h.node(run)); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	if err := h.client.PutNode(ctx, prefix+"/"+latestKey, h.node(run)); err != nil {
		return fmt.Errorf("record latest run: %w", err)
	}
	return nil
}

// Latest returns the newest run for docID, or nil if none exists.
func (h *RemoteHistory) Latest(ctx context.Context, docID string) (*Run, error) {
	node, err := h.client.GetNode(ctx, docPrefix(docID)+"/"+latestKey)
	if err != nil || node == nil {
		return nil, err
	}
	var run Run
	if err := json.Unmarshal(node.Value, &run); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return &run, nil
}

// List returns up to limit runs for docID, newest first.
func (h *RemoteHistory) List(ctx context.Context, docID string, limit int) ([]Run, error) {
	nodes, err := h.client.ListChildren(ctx, docPrefix(docID), 0)
	if err != nil {
		return nil, err
	}
	runs := make([]Run, 0, len(nodes))
	for _, n := range nodes {
		if strings.HasSuffix(n.Key, "/"+latestKey) {
			continue
		}
		var run Run
		if err := json.Unmarshal(n.Value, &run); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", n.Key, err)
		}
		runs = append(runs, run)
	}
	return newestFirst(runs, limit), nil
}

// Forget deletes every stored run for docID.
func (h *RemoteHistory) Forget(ctx context.Context, docID string) error {
	if err := h.client.DeleteNode(ctx, docPrefix(docID), true); err != nil {
		return fmt.Errorf("forget %s: %w", docID, err)
	}
	return nil
}

func newestFirst(runs []Run, limit int) []Run {
	slices.SortFunc(runs, func(a, b Run) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs
}

// MemoryHistory is a process-local history used when no pathstore is configured.
type MemoryHistory struct {
	mu   sync.Mutex
	runs map[string][]Run
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{runs: make(map[string][]Run)}
}

func (h *MemoryHistory) Record(_ context.Context, run Run) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs[run.DocumentID] = append(h.runs[run.DocumentID], run)
	return nil
}

func (h *MemoryHistory) Latest(_ context.Context, docID string) (*Run, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	runs := h.runs[docID]
	if len(runs) == 0 {
		return nil, nil
	}
	run := runs[len(runs)-1]
	return &run, nil
}

func (h *MemoryHistory) List(_ context.Context, docID string, limit int) ([]Run, error) {
	h.mu.Lock()
	runs := slices.Clone(h.runs[docID])
	h.mu.Unlock()
	return newestFirst(runs, limit), nil
}

func (h *MemoryHistory) Forget(_ context.Context, docID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.runs, docID)
	return nil
}
