package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"studycost/core/estimate"
)

// Archive persists generated estimates so a consultation can refer back to
// the exact numbers a student was shown.
type Archive interface {
	// Save stores an estimate; a missing ID is assigned
	Save(ctx context.Context, record *ArchivedEstimate) error

	// Get retrieves an archived estimate by ID
	Get(ctx context.Context, id string) (*ArchivedEstimate, error)

	// List lists archived estimates matching the filter
	List(ctx context.Context, filter *ListFilter) ([]*ArchivedEstimate, error)

	// Delete removes an archived estimate
	Delete(ctx context.Context, id string) error

	// GetLatest returns the most recent estimate for a client
	GetLatest(ctx context.Context, clientID string) (*ArchivedEstimate, error)

	// Compare reports the total difference between two archived estimates
	Compare(ctx context.Context, oldID, newID string) (*CompareResult, error)

	// Close releases resources
	Close() error
}

// ArchivedEstimate is one stored estimate
type ArchivedEstimate struct {
	// ID is the unique identifier
	ID string `json:"id"`

	// ClientID groups estimates belonging to one prospective student
	ClientID string `json:"client_id"`

	// Result is the full computed breakdown
	Result estimate.Result `json:"result"`

	// Summary is the rendered document shown to the client
	Summary *Summary `json:"summary,omitempty"`

	// CreatedAt is when the estimate was archived
	CreatedAt time.Time `json:"created_at"`

	// Metadata carries free-form context (counselor, campaign, notes)
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ListFilter narrows archive listings
type ListFilter struct {
	ClientID string
	Since    time.Time
	Until    time.Time
	Limit    int
	Offset   int
}

// CompareResult is the difference between two archived estimates.
// Catalogs change over time, so the same selection can price differently
// between visits; the delta is what a counselor explains to the client.
type CompareResult struct {
	OldID        string          `json:"old_id"`
	NewID        string          `json:"new_id"`
	OldTotal     decimal.Decimal `json:"old_total"`
	NewTotal     decimal.Decimal `json:"new_total"`
	Delta        decimal.Decimal `json:"delta"`
	DeltaPercent decimal.Decimal `json:"delta_percent"`
	ComparedAt   time.Time       `json:"compared_at"`
}

// FileArchive stores estimates as JSON files under basePath/clientID/
type FileArchive struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileArchive creates a file-backed archive
func NewFileArchive(basePath string) (*FileArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &FileArchive{basePath: basePath}, nil
}

func (a *FileArchive) Save(ctx context.Context, record *ArchivedEstimate) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	stamp(record)

	clientDir := filepath.Join(a.basePath, record.ClientID)
	if err := os.MkdirAll(clientDir, 0755); err != nil {
		return fmt.Errorf("creating client directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling estimate: %w", err)
	}
	return os.WriteFile(filepath.Join(clientDir, record.ID+".json"), data, 0644)
}

func (a *FileArchive) Get(ctx context.Context, id string) (*ArchivedEstimate, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entries, err := os.ReadDir(a.basePath)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(a.basePath, entry.Name(), id+".json"))
		if err != nil {
			continue
		}
		var record ArchivedEstimate
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("unmarshaling estimate: %w", err)
		}
		return &record, nil
	}
	return nil, fmt.Errorf("estimate not found: %s", id)
}

func (a *FileArchive) List(ctx context.Context, filter *ListFilter) ([]*ArchivedEstimate, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var records []*ArchivedEstimate
	err := filepath.Walk(a.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		var record ArchivedEstimate
		if err := json.Unmarshal(data, &record); err != nil {
			return nil
		}
		if matches(&record, filter) {
			records = append(records, &record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paginate(records, filter), nil
}

func (a *FileArchive) Delete(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := os.ReadDir(a.basePath)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(a.basePath, entry.Name(), id+".json")
		if _, err := os.Stat(path); err == nil {
			return os.Remove(path)
		}
	}
	return fmt.Errorf("estimate not found: %s", id)
}

func (a *FileArchive) GetLatest(ctx context.Context, clientID string) (*ArchivedEstimate, error) {
	records, err := a.List(ctx, &ListFilter{ClientID: clientID})
	if err != nil {
		return nil, err
	}
	return latestOf(records, clientID)
}

func (a *FileArchive) Compare(ctx context.Context, oldID, newID string) (*CompareResult, error) {
	return compareRecords(ctx, a, oldID, newID)
}

func (a *FileArchive) Close() error {
	return nil
}

// MemoryArchive is an in-memory archive, used in tests and when no
// archive directory is configured.
type MemoryArchive struct {
	records map[string]*ArchivedEstimate
	mu      sync.RWMutex
}

// NewMemoryArchive creates a memory archive
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{records: make(map[string]*ArchivedEstimate)}
}

func (a *MemoryArchive) Save(ctx context.Context, record *ArchivedEstimate) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	stamp(record)
	a.records[record.ID] = record
	return nil
}

func (a *MemoryArchive) Get(ctx context.Context, id string) (*ArchivedEstimate, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	record, ok := a.records[id]
	if !ok {
		return nil, fmt.Errorf("estimate not found: %s", id)
	}
	return record, nil
}

func (a *MemoryArchive) List(ctx context.Context, filter *ListFilter) ([]*ArchivedEstimate, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var records []*ArchivedEstimate
	for _, record := range a.records {
		if matches(record, filter) {
			records = append(records, record)
		}
	}
	return paginate(records, filter), nil
}

func (a *MemoryArchive) Delete(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.records, id)
	return nil
}

func (a *MemoryArchive) GetLatest(ctx context.Context, clientID string) (*ArchivedEstimate, error) {
	records, err := a.List(ctx, &ListFilter{ClientID: clientID})
	if err != nil {
		return nil, err
	}
	return latestOf(records, clientID)
}

func (a *MemoryArchive) Compare(ctx context.Context, oldID, newID string) (*CompareResult, error) {
	return compareRecords(ctx, a, oldID, newID)
}

func (a *MemoryArchive) Close() error {
	return nil
}

func stamp(record *ArchivedEstimate) {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.ClientID == "" {
		record.ClientID = "anonymous"
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
}

func matches(record *ArchivedEstimate, filter *ListFilter) bool {
	if filter == nil {
		return true
	}
	if filter.ClientID != "" && record.ClientID != filter.ClientID {
		return false
	}
	if !filter.Since.IsZero() && record.CreatedAt.Before(filter.Since) {
		return false
	}
	if !filter.Until.IsZero() && record.CreatedAt.After(filter.Until) {
		return false
	}
	return true
}

func paginate(records []*ArchivedEstimate, filter *ListFilter) []*ArchivedEstimate {
	if filter == nil {
		return records
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(records) {
			return nil
		}
		records = records[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(records) {
		records = records[:filter.Limit]
	}
	return records
}

func latestOf(records []*ArchivedEstimate, clientID string) (*ArchivedEstimate, error) {
	var latest *ArchivedEstimate
	for _, record := range records {
		if latest == nil || record.CreatedAt.After(latest.CreatedAt) {
			latest = record
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no estimates for client: %s", clientID)
	}
	return latest, nil
}

func compareRecords(ctx context.Context, archive Archive, oldID, newID string) (*CompareResult, error) {
	oldRecord, err := archive.Get(ctx, oldID)
	if err != nil {
		return nil, fmt.Errorf("loading old estimate: %w", err)
	}
	newRecord, err := archive.Get(ctx, newID)
	if err != nil {
		return nil, fmt.Errorf("loading new estimate: %w", err)
	}

	delta := newRecord.Result.Total.Sub(oldRecord.Result.Total)
	deltaPercent := decimal.Zero
	if oldRecord.Result.Total.IsPositive() {
		deltaPercent = delta.Div(oldRecord.Result.Total).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return &CompareResult{
		OldID:        oldID,
		NewID:        newID,
		OldTotal:     oldRecord.Result.Total,
		NewTotal:     newRecord.Result.Total,
		Delta:        delta,
		DeltaPercent: deltaPercent,
		ComparedAt:   time.Now().UTC(),
	}, nil
}
